package bridge

// REST client for the bridge router service. Resty only, HMAC request
// signing, internal retry on transient statuses.

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"crosstrader/src/model"
)

const (
	defaultRetryAttempts   = 3
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultRetryMaxBackoff = 4 * time.Second

	quotePath    = "/v1/quote"
	dispatchPath = "/v1/dispatch"
)

type RouterClient struct {
	apiKey    string
	apiSecret string // base64-encoded
	baseURL   string
	http      *resty.Client
}

type quoteRequest struct {
	DestinationChain uint64                `json:"destination_chain"`
	Message          model.OutboundMessage `json:"message"`
}

type quoteResponse struct {
	Fee   string `json:"fee"`
	Error string `json:"error,omitempty"`
}

type dispatchRequest struct {
	DestinationChain uint64                `json:"destination_chain"`
	Message          model.OutboundMessage `json:"message"`
	MessageID        string                `json:"message_id"` // idempotency key
}

type dispatchResponse struct {
	DispatchID string `json:"dispatch_id"`
	Error      string `json:"error,omitempty"`
}

func isRetryableResp(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	return r.StatusCode() == 429 || r.StatusCode() >= 500
}

func NewRouterClient(apiKey, apiSecret, baseURL string) *RouterClient {
	config := GetConfig()
	if strings.TrimSpace(baseURL) == "" {
		baseURL = config.BaseURL
		logger.Warnf("No bridge base URL provided, using default: %s", baseURL)
	}
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(config.RequestTimout).
		SetRetryCount(defaultRetryAttempts - 1).
		SetRetryWaitTime(defaultRetryBaseDelay).
		SetRetryMaxWaitTime(defaultRetryMaxBackoff).
		AddRetryCondition(isRetryableResp)

	return &RouterClient{
		apiKey:    apiKey,
		apiSecret: apiSecret,
		baseURL:   baseURL,
		http:      httpClient,
	}
}

func nonceMillis() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10)
}

// signPayload authenticates a request the router's way:
//  1. message = body + nonce + path
//  2. sha256(message)
//  3. hmac-sha512 keyed with the base64-decoded secret
//  4. base64-encode the mac
func signPayload(body, nonce, path, apiSecretB64 string) (string, error) {
	msg := body + nonce + path

	sum := sha256.Sum256([]byte(msg))

	secret, err := base64.StdEncoding.DecodeString(apiSecretB64)
	if err != nil {
		return "", fmt.Errorf("base64 decode api secret failed: %w", err)
	}

	mac := hmac.New(sha512.New, secret)
	_, _ = mac.Write(sum[:])

	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), nil
}

func (c *RouterClient) signedPost(path string, body interface{}, out interface{}) (*resty.Response, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request body: %w", err)
	}

	req := c.http.R().
		SetHeader("Content-Type", "application/json").
		SetBody(raw).
		SetResult(out)

	if c.apiKey != "" {
		nonce := nonceMillis()
		sig, err := signPayload(string(raw), nonce, path, c.apiSecret)
		if err != nil {
			return nil, err
		}
		req.SetHeader("Router-Key", c.apiKey).
			SetHeader("Router-Nonce", nonce).
			SetHeader("Router-Authent", sig)
	}

	return req.Post(path)
}

// QuoteFee asks the router what dispatching msg to the destination chain
// would cost, denominated in the router's fee currency. Read-only.
func (c *RouterClient) QuoteFee(destinationChain uint64, msg model.OutboundMessage) (decimal.Decimal, error) {
	var out quoteResponse

	resp, err := c.signedPost(quotePath, quoteRequest{
		DestinationChain: destinationChain,
		Message:          msg,
	}, &out)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bridge: quote request failed: %w", err)
	}

	if resp.IsError() {
		return decimal.Zero, fmt.Errorf("bridge: quote returned status %d: %s", resp.StatusCode(), out.Error)
	}

	fee, err := decimal.NewFromString(out.Fee)
	if err != nil {
		return decimal.Zero, fmt.Errorf("bridge: unparseable fee %q: %w", out.Fee, err)
	}

	return fee, nil
}

// Dispatch sends msg to the destination chain and returns the router's
// tracking id. The caller must have approved the fee beforehand.
func (c *RouterClient) Dispatch(destinationChain uint64, msg model.OutboundMessage) (string, error) {
	var out dispatchResponse

	messageID := uuid.NewString()

	resp, err := c.signedPost(dispatchPath, dispatchRequest{
		DestinationChain: destinationChain,
		Message:          msg,
		MessageID:        messageID,
	}, &out)
	if err != nil {
		return "", fmt.Errorf("bridge: dispatch request failed: %w", err)
	}

	if resp.IsError() {
		return "", fmt.Errorf("bridge: dispatch returned status %d: %s", resp.StatusCode(), out.Error)
	}

	if out.DispatchID == "" {
		return "", fmt.Errorf("bridge: dispatch returned no tracking id for message %s", messageID)
	}

	logger.WithFields(map[string]interface{}{
		"component":   "RouterClient",
		"chain":       destinationChain,
		"message_id":  messageID,
		"dispatch_id": out.DispatchID,
	}).Info("Message dispatched")

	return out.DispatchID, nil
}
