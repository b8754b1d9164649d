package bridge

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"crosstrader/src/model"
)

func testMessage() model.OutboundMessage {
	return model.OutboundMessage{
		Receiver:  "0xreceiver",
		Recipient: "0xrecipient",
		Action:    "swap_and_hold",
		Token:     "USDC",
		Amount:    decimal.RequireFromString("250"),
	}
}

func TestQuoteFee(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/quote", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)

		var req quoteRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, uint64(42), req.DestinationChain)
		require.Equal(t, "USDC", req.Message.Token)

		_ = json.NewEncoder(w).Encode(quoteResponse{Fee: "12.5"})
	}))
	defer srv.Close()

	client := NewRouterClient("", "", srv.URL)

	fee, err := client.QuoteFee(42, testMessage())
	require.NoError(t, err)
	require.True(t, fee.Equal(decimal.RequireFromString("12.5")))
}

func TestQuoteFeeErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(quoteResponse{Error: "unsupported chain"})
	}))
	defer srv.Close()

	client := NewRouterClient("", "", srv.URL)

	_, err := client.QuoteFee(9999, testMessage())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unsupported chain")
}

func TestDispatchCarriesIdempotencyKey(t *testing.T) {
	var seen dispatchRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/dispatch", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&seen))
		_ = json.NewEncoder(w).Encode(dispatchResponse{DispatchID: "disp-abc"})
	}))
	defer srv.Close()

	client := NewRouterClient("", "", srv.URL)

	dispatchID, err := client.Dispatch(42, testMessage())
	require.NoError(t, err)
	require.Equal(t, "disp-abc", dispatchID)
	require.NotEmpty(t, seen.MessageID, "dispatch must carry an idempotency key")
}

func TestDispatchRejectsEmptyTrackingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(dispatchResponse{})
	}))
	defer srv.Close()

	client := NewRouterClient("", "", srv.URL)

	_, err := client.Dispatch(42, testMessage())
	require.Error(t, err)
	require.Contains(t, err.Error(), "no tracking id")
}

func TestSignedRequestHeaders(t *testing.T) {
	secret := base64.StdEncoding.EncodeToString([]byte("super-secret"))

	var gotKey, gotNonce, gotSig, gotBody string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Router-Key")
		gotNonce = r.Header.Get("Router-Nonce")
		gotSig = r.Header.Get("Router-Authent")

		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)

		_ = json.NewEncoder(w).Encode(quoteResponse{Fee: "1"})
	}))
	defer srv.Close()

	client := NewRouterClient("api-key", secret, srv.URL)

	_, err := client.QuoteFee(42, testMessage())
	require.NoError(t, err)

	require.Equal(t, "api-key", gotKey)
	require.NotEmpty(t, gotNonce)
	require.NotEmpty(t, gotSig)

	// The signature must be reproducible from body, nonce and path.
	want, err := signPayload(gotBody, gotNonce, quotePath, secret)
	require.NoError(t, err)
	require.Equal(t, want, gotSig)
}

func TestSignPayloadRejectsBadSecret(t *testing.T) {
	_, err := signPayload("{}", "123", quotePath, "not-base64!!!")
	require.Error(t, err)
}

func TestRetryOnServerError(t *testing.T) {
	attempts := 0

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(quoteResponse{Fee: "3"})
	}))
	defer srv.Close()

	client := NewRouterClient("", "", srv.URL)

	fee, err := client.QuoteFee(42, testMessage())
	require.NoError(t, err)
	require.True(t, fee.Equal(decimal.RequireFromString("3")))
	require.Equal(t, 3, attempts)
}
