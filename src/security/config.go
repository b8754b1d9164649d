package security

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// CredentialsKey is the base64-encoded AES key protecting bridge
	// credentials at rest. The default only exists for local development.
	CredentialsKey string `envconfig:"BRIDGE_CREDENTIALS_KEY" default:"Pjk+k4hske5KkKtbaKSVDOgpllRl+0EI6oCAdx88XqI="`

	// OperatorTokenHash is the bcrypt hash of the management API token.
	// Empty disables the management surface's mutating routes.
	OperatorTokenHash string `envconfig:"OPERATOR_TOKEN_HASH"`
}

func GetConfig() Config {
	var config Config
	if err := envconfig.Process("", &config); err != nil {
		panic(fmt.Errorf("error processing env config: %w", err))
	}
	return config
}
