package handler

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crosstrader/src/auth"
	"crosstrader/src/engine"
	"crosstrader/src/model"
	"crosstrader/src/oracle"
	"crosstrader/src/repository"
	"crosstrader/src/treasury"
)

const testOwner = "owner"

type stubRouter struct {
	nextID int
}

func (s *stubRouter) QuoteFee(chain uint64, msg model.OutboundMessage) (decimal.Decimal, error) {
	return decimal.RequireFromString("1"), nil
}

func (s *stubRouter) Dispatch(chain uint64, msg model.OutboundMessage) (string, error) {
	s.nextID++
	return fmt.Sprintf("disp-%d", s.nextID), nil
}

type stubSource struct{}

func (stubSource) LatestRound(feed string) (oracle.Round, error) {
	return oracle.Round{Answer: decimal.New(2000, 8), UpdatedAt: time.Now()}, nil
}

func (stubSource) Decimals(feed string) (uint8, error) { return 8, nil }

func newTestEngine(t *testing.T) *engine.Engine {
	t.Helper()

	funds := treasury.New()
	require.NoError(t, funds.Deposit("NATIVE", decimal.RequireFromString("1000")))
	require.NoError(t, funds.Deposit("USDC", decimal.RequireFromString("100000")))

	cfg := engine.Config{
		MaxActiveOrders:     100,
		ScanBatchLimit:      25,
		MaxPriceAge:         time.Hour,
		DispatchGracePeriod: time.Hour,
		FeeAsset:            "NATIVE",
	}

	eng := engine.New(testOwner, cfg, &stubRouter{}, stubSource{}, funds)
	require.NoError(t, eng.SetChainAllowed(testOwner, 42, true))
	require.NoError(t, eng.SetTokenAllowed(testOwner, "USDC", true))
	require.NoError(t, eng.SetFeedAllowed(testOwner, "ETH/USD", true))

	return eng
}

func asOperator(req *http.Request) *http.Request {
	return req.WithContext(auth.WithOperator(req.Context(), testOwner))
}

const createBody = `{
	"token": "USDC",
	"amount": "250",
	"destination_chain": 42,
	"receiver_contract": "0xreceiver",
	"recipient": "0xrecipient",
	"action": "swap_and_hold",
	"interval_seconds": 3600
}`

func TestCreateTimedOrderHandler(t *testing.T) {
	eng := newTestEngine(t)
	handler := CreateTimedOrderHandler(eng)

	req := httptest.NewRequest(http.MethodPost, "/v1/orders/timed", strings.NewReader(createBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, asOperator(req))

	require.Equal(t, http.StatusCreated, rr.Code)
	assert.JSONEq(t, `{"order_id":1}`, rr.Body.String())
}

func TestCreateTimedOrderHandler_Unauthorized(t *testing.T) {
	handler := CreateTimedOrderHandler(newTestEngine(t))

	req := httptest.NewRequest(http.MethodPost, "/v1/orders/timed", strings.NewReader(createBody))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestCreateTimedOrderHandler_ValidationError(t *testing.T) {
	handler := CreateTimedOrderHandler(newTestEngine(t))

	body := strings.Replace(createBody, `"USDC"`, `"UNKNOWN"`, 1)
	req := httptest.NewRequest(http.MethodPost, "/v1/orders/timed", strings.NewReader(body))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, asOperator(req))

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateTimedOrderHandler_BadBody(t *testing.T) {
	handler := CreateTimedOrderHandler(newTestEngine(t))

	req := httptest.NewRequest(http.MethodPost, "/v1/orders/timed", strings.NewReader("{"))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, asOperator(req))

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreatePriceOrderHandler(t *testing.T) {
	eng := newTestEngine(t)
	handler := CreatePriceOrderHandler(eng)

	body := `{
		"token": "USDC",
		"amount": "250",
		"destination_chain": 42,
		"receiver_contract": "0xreceiver",
		"recipient": "0xrecipient",
		"action": "swap_and_hold",
		"price_feed": "ETH/USD",
		"price_threshold": "2000000000000000000000",
		"execute_above": true
	}`
	req := httptest.NewRequest(http.MethodPost, "/v1/orders/price", strings.NewReader(body))
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, asOperator(req))

	require.Equal(t, http.StatusCreated, rr.Code)

	order, err := eng.GetOrder(1)
	require.NoError(t, err)
	require.Equal(t, model.TriggerPriceThreshold, order.TriggerType)
	require.Equal(t, uint8(8), order.PriceFeedDecimals)
}

func newOrderRouter(eng *engine.Engine) *chi.Mux {
	r := chi.NewRouter()
	r.Post("/v1/orders/{orderID}/cancel", CancelOrderHandler(eng))
	r.Post("/v1/orders/{orderID}/pause", PauseOrderHandler(eng))
	r.Get("/v1/orders/{orderID}", GetOrderHandler(eng))
	return r
}

func createOrder(t *testing.T, eng *engine.Engine) uint64 {
	t.Helper()

	orderID, err := eng.CreateTimedOrder(testOwner, engine.TransferSpec{
		Token:            "USDC",
		Amount:           decimal.RequireFromString("250"),
		DestinationChain: 42,
		ReceiverContract: "0xreceiver",
		Recipient:        "0xrecipient",
		Action:           "swap_and_hold",
	}, time.Hour)
	require.NoError(t, err)
	return orderID
}

func TestCancelOrderHandler(t *testing.T) {
	eng := newTestEngine(t)
	orderID := createOrder(t, eng)
	router := newOrderRouter(eng)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/v1/orders/%d/cancel", orderID), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, asOperator(req))
	require.Equal(t, http.StatusNoContent, rr.Code)

	order, err := eng.GetOrder(orderID)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusCancelled, order.Status)

	// A second cancel conflicts with the terminal status.
	rr = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, fmt.Sprintf("/v1/orders/%d/cancel", orderID), nil)
	router.ServeHTTP(rr, asOperator(req))
	require.Equal(t, http.StatusConflict, rr.Code)
}

func TestCancelOrderHandler_NotFound(t *testing.T) {
	router := newOrderRouter(newTestEngine(t))

	req := httptest.NewRequest(http.MethodPost, "/v1/orders/999/cancel", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, asOperator(req))

	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPauseOrderHandler(t *testing.T) {
	eng := newTestEngine(t)
	orderID := createOrder(t, eng)
	router := newOrderRouter(eng)

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/v1/orders/%d/pause", orderID), strings.NewReader(`{"paused":true}`))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, asOperator(req))
	require.Equal(t, http.StatusNoContent, rr.Code)

	order, err := eng.GetOrder(orderID)
	require.NoError(t, err)
	require.Equal(t, model.OrderStatusPaused, order.Status)
}

func TestGetOrderHandler(t *testing.T) {
	eng := newTestEngine(t)
	orderID := createOrder(t, eng)
	router := newOrderRouter(eng)

	req := httptest.NewRequest(http.MethodGet, fmt.Sprintf("/v1/orders/%d", orderID), nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"swap_and_hold"`)

	req = httptest.NewRequest(http.MethodGet, "/v1/orders/404", nil)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

type mockOrderSearcher struct {
	records []model.OrderRecord
	err     error
	options repository.OrderSearchOptions
	calls   int
}

func (m *mockOrderSearcher) Search(ctx context.Context, options repository.OrderSearchOptions) ([]model.OrderRecord, error) {
	m.calls++
	m.options = options
	return m.records, m.err
}

func TestSearchOrdersHandler_ParsesFilters(t *testing.T) {
	mockRepo := &mockOrderSearcher{records: []model.OrderRecord{{OrderID: 1}}}
	handler := SearchOrdersHandler(mockRepo)

	req := httptest.NewRequest(http.MethodGet, "/v1/orders?status=active&trigger=time_based&chain=42&limit=5&offset=10", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, mockRepo.calls)
	require.NotNil(t, mockRepo.options.Status)
	assert.Equal(t, "active", *mockRepo.options.Status)
	require.NotNil(t, mockRepo.options.TriggerType)
	assert.Equal(t, "time_based", *mockRepo.options.TriggerType)
	require.NotNil(t, mockRepo.options.Chain)
	assert.Equal(t, uint64(42), *mockRepo.options.Chain)
	assert.Equal(t, 5, mockRepo.options.Limit)
	assert.Equal(t, 10, mockRepo.options.Offset)
}

func TestSearchOrdersHandler_InvalidChain(t *testing.T) {
	handler := SearchOrdersHandler(&mockOrderSearcher{})

	req := httptest.NewRequest(http.MethodGet, "/v1/orders?chain=abc", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSearchOrdersHandler_RepoError(t *testing.T) {
	handler := SearchOrdersHandler(&mockOrderSearcher{err: assert.AnError})

	req := httptest.NewRequest(http.MethodGet, "/v1/orders", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusInternalServerError, rr.Code)
}
