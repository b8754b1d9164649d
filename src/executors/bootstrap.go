package executors

import (
	"fmt"

	logger "github.com/sirupsen/logrus"

	"crosstrader/src/bridge"
	"crosstrader/src/engine"
	"crosstrader/src/oracle"
	"crosstrader/src/security"
	"crosstrader/src/treasury"
)

// BuildEngine wires the trading engine from environment configuration:
// treasury, bridge router client (with decrypted credentials), price
// source, and the startup allowlists.
func BuildEngine() (*engine.Engine, error) {
	config := GetConfig()
	bridgeConfig := bridge.GetConfig()

	apiKey, err := resolveCredential(config.BridgeAPIKeyEnc, config.AllowPlaintextCreds)
	if err != nil {
		return nil, fmt.Errorf("resolve bridge api key: %w", err)
	}
	apiSecret, err := resolveCredential(config.BridgeAPISecretEnc, config.AllowPlaintextCreds)
	if err != nil {
		return nil, fmt.Errorf("resolve bridge api secret: %w", err)
	}

	router := bridge.NewRouterClient(apiKey, apiSecret, bridgeConfig.BaseURL)

	var prices oracle.Source
	switch config.OracleSource {
	case "binance":
		prices = oracle.NewBinanceFeed()
	case "http":
		prices = oracle.NewHTTPFeedClient(config.OracleBaseURL)
	default:
		return nil, fmt.Errorf("unknown oracle source %q", config.OracleSource)
	}

	eng := engine.New(config.OwnerID, engine.GetConfig(), router, prices, treasury.New())

	owner := config.OwnerID
	for _, chain := range config.AllowedChains {
		if err := eng.SetChainAllowed(owner, chain, true); err != nil {
			return nil, err
		}
	}
	for _, token := range config.AllowedTokens {
		if err := eng.SetTokenAllowed(owner, token, true); err != nil {
			return nil, err
		}
	}
	for _, feed := range config.AllowedFeeds {
		if err := eng.SetFeedAllowed(owner, feed, true); err != nil {
			return nil, err
		}
	}

	if config.ForwarderID != "" {
		if err := eng.SetForwarder(owner, config.ForwarderID); err != nil {
			return nil, err
		}
	}

	logger.WithFields(map[string]interface{}{
		"owner":     config.OwnerID,
		"forwarder": config.ForwarderID,
		"oracle":    config.OracleSource,
		"chains":    len(config.AllowedChains),
		"tokens":    len(config.AllowedTokens),
		"feeds":     len(config.AllowedFeeds),
	}).Info("Engine bootstrapped")

	return eng, nil
}

// resolveCredential decrypts an AES-GCM sealed credential. When decryption
// is impossible and plaintext fallback is enabled, the raw value passes
// through. Local development only.
func resolveCredential(value string, allowPlaintext bool) (string, error) {
	if value == "" {
		return "", nil
	}

	plain, err := security.DecryptString(value)
	if err != nil {
		if allowPlaintext {
			logger.Warn("Credential not decryptable, using raw value (plaintext mode)")
			return value, nil
		}
		return "", err
	}

	return plain, nil
}
