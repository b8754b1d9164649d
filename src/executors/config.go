package executors

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	OwnerID     string        `envconfig:"OWNER_ID" default:"owner"`
	ForwarderID string        `envconfig:"FORWARDER_ID"`
	LoopPeriod  time.Duration `envconfig:"LOOP_PERIOD" default:"30s"`

	// Comma separated allowlists applied at startup.
	AllowedChains []uint64 `envconfig:"ALLOWED_CHAINS"`
	AllowedTokens []string `envconfig:"ALLOWED_TOKENS"`
	AllowedFeeds  []string `envconfig:"ALLOWED_FEEDS"`

	// OracleSource selects the price source implementation: "http" for the
	// feed-aggregator service, "binance" for spot tickers.
	OracleSource  string `envconfig:"ORACLE_SOURCE" default:"http"`
	OracleBaseURL string `envconfig:"ORACLE_BASE_URL" default:"http://localhost:8801"`

	// Bridge credentials, AES-GCM encrypted with the credentials key (see
	// the keys command). Plaintext is accepted when decryption fails and
	// ALLOW_PLAINTEXT_CREDS is set, for local development.
	BridgeAPIKeyEnc     string `envconfig:"BRIDGE_API_KEY_ENC"`
	BridgeAPISecretEnc  string `envconfig:"BRIDGE_API_SECRET_ENC"`
	AllowPlaintextCreds bool   `envconfig:"ALLOW_PLAINTEXT_CREDS" default:"false"`

	EnableReceipts bool `envconfig:"ENABLE_RECEIPTS" default:"true"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
