package oracle

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/nntaoli-project/goex"
	"github.com/nntaoli-project/goex/binance"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

// binanceFeedDecimals is the native scale spot ticker answers are served
// at. Binance quotes floats; eight decimals matches the precision the
// exchange reports.
const binanceFeedDecimals = 8

// BinanceFeed serves price rounds straight from Binance spot tickers. Feed
// addresses are spot pairs in "BASE/QUOTE" form, e.g. "BTC/USDT".
type BinanceFeed struct {
	exchange goex.API
	now      func() time.Time
}

func NewBinanceFeed() *BinanceFeed {
	apiConfig := &goex.APIConfig{
		HttpClient: http.DefaultClient,
		Endpoint:   binance.GLOBAL_API_BASE_URL,
	}

	return &BinanceFeed{
		exchange: binance.NewWithConfig(apiConfig),
		now:      time.Now,
	}
}

func parsePair(feed string) (goex.CurrencyPair, error) {
	parts := strings.Split(feed, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return goex.CurrencyPair{}, fmt.Errorf("oracle: feed %q is not a BASE/QUOTE pair", feed)
	}

	return goex.NewCurrencyPair(
		goex.Currency{Symbol: strings.ToUpper(parts[0])},
		goex.Currency{Symbol: strings.ToUpper(parts[1])},
	), nil
}

// LatestRound reads the spot ticker and presents it as a feed round. The
// ticker timestamp doubles as the round id so consecutive reads stay
// monotonic.
func (f *BinanceFeed) LatestRound(feed string) (Round, error) {
	pair, err := parsePair(feed)
	if err != nil {
		return Round{}, err
	}

	ticker, err := f.exchange.GetTicker(pair)
	if err != nil {
		logger.WithFields(map[string]interface{}{
			"component": "BinanceFeed",
			"feed":      feed,
		}).WithError(err).Warn("Ticker fetch failed")
		return Round{}, fmt.Errorf("oracle: ticker fetch for %s failed: %w", feed, err)
	}

	updatedAt := f.now()
	if ticker.Date > 0 {
		updatedAt = time.Unix(int64(ticker.Date), 0)
	}

	return Round{
		Answer:          decimal.NewFromFloat(ticker.Last).Shift(binanceFeedDecimals).Truncate(0),
		UpdatedAt:       updatedAt,
		RoundID:         ticker.Date,
		AnsweredInRound: ticker.Date,
	}, nil
}

// Decimals is fixed for ticker-backed feeds.
func (f *BinanceFeed) Decimals(feed string) (uint8, error) {
	if _, err := parsePair(feed); err != nil {
		return 0, err
	}
	return binanceFeedDecimals, nil
}
