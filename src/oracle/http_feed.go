package oracle

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"
)

const (
	defaultFeedTimeout    = 10 * time.Second
	defaultFeedRetryCount = 2
	defaultFeedRetryWait  = 300 * time.Millisecond
)

// HTTPFeedClient reads prices from a feed-aggregator REST service. One
// client serves every configured feed address.
type HTTPFeedClient struct {
	baseURL string
	http    *resty.Client
}

type latestRoundResponse struct {
	Feed            string `json:"feed"`
	Answer          string `json:"answer"`
	Decimals        uint8  `json:"decimals"`
	UpdatedAt       int64  `json:"updated_at"`
	RoundID         uint64 `json:"round_id"`
	AnsweredInRound uint64 `json:"answered_in_round"`
	Error           string `json:"error,omitempty"`
}

func NewHTTPFeedClient(baseURL string) *HTTPFeedClient {
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultFeedTimeout).
		SetRetryCount(defaultFeedRetryCount).
		SetRetryWaitTime(defaultFeedRetryWait)

	return &HTTPFeedClient{
		baseURL: baseURL,
		http:    httpClient,
	}
}

// LatestRound fetches the newest answer for the given feed address.
func (c *HTTPFeedClient) LatestRound(feed string) (Round, error) {
	var out latestRoundResponse

	resp, err := c.http.R().
		SetResult(&out).
		SetPathParam("feed", feed).
		Get("/v1/feeds/{feed}/latest")
	if err != nil {
		return Round{}, fmt.Errorf("oracle: latest round request for %s failed: %w", feed, err)
	}

	if resp.IsError() {
		logger.WithFields(map[string]interface{}{
			"component": "HTTPFeedClient",
			"feed":      feed,
			"status":    resp.StatusCode(),
		}).Warn("Feed service returned error status")
		return Round{}, fmt.Errorf("oracle: feed %s returned status %d: %s", feed, resp.StatusCode(), out.Error)
	}

	answer, err := decimal.NewFromString(out.Answer)
	if err != nil {
		return Round{}, fmt.Errorf("oracle: feed %s returned unparseable answer %q: %w", feed, out.Answer, err)
	}

	round := Round{
		Answer:          answer,
		RoundID:         out.RoundID,
		AnsweredInRound: out.AnsweredInRound,
	}
	if out.UpdatedAt > 0 {
		round.UpdatedAt = time.Unix(out.UpdatedAt, 0)
	}

	return round, nil
}

// Decimals fetches the feed's native decimal count.
func (c *HTTPFeedClient) Decimals(feed string) (uint8, error) {
	var out latestRoundResponse

	resp, err := c.http.R().
		SetResult(&out).
		SetPathParam("feed", feed).
		Get("/v1/feeds/{feed}")
	if err != nil {
		return 0, fmt.Errorf("oracle: decimals request for %s failed: %w", feed, err)
	}

	if resp.IsError() {
		return 0, fmt.Errorf("oracle: feed %s returned status %d: %s", feed, resp.StatusCode(), out.Error)
	}

	return out.Decimals, nil
}
