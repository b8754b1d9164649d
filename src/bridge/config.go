package bridge

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	BaseURL       string        `envconfig:"BRIDGE_BASE_URL" default:"https://router.bridgelane.io"`
	APIKey        string        `envconfig:"BRIDGE_API_KEY"`
	APISecret     string        `envconfig:"BRIDGE_API_SECRET"`
	RequestTimout time.Duration `envconfig:"BRIDGE_REQUEST_TIMEOUT" default:"15s"`
	ReceiptsURL   string        `envconfig:"BRIDGE_RECEIPTS_URL" default:"wss://router.bridgelane.io/v1/receipts"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
