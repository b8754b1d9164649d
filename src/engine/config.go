package engine

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// MaxActiveOrders caps the active-id list, bounding per-cycle
	// evaluation cost and worst-case staleness.
	MaxActiveOrders int `envconfig:"MAX_ACTIVE_ORDERS" default:"100"`

	// ScanBatchLimit bounds how many active orders one scan evaluates.
	ScanBatchLimit int `envconfig:"SCAN_BATCH_LIMIT" default:"25"`

	// MaxPriceAge is the initial staleness cutoff for feed answers.
	// Zero disables the staleness check.
	MaxPriceAge time.Duration `envconfig:"MAX_PRICE_AGE" default:"1h"`

	// DispatchGracePeriod is the deadline applied to outbound messages of
	// orders that carry none of their own.
	DispatchGracePeriod time.Duration `envconfig:"DISPATCH_GRACE_PERIOD" default:"1h"`

	// FeeAsset is the treasury asset the bridge fee is paid in.
	FeeAsset string `envconfig:"FEE_ASSET" default:"NATIVE"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
