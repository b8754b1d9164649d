package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"crosstrader/src/auth"
	"crosstrader/src/engine"
	"crosstrader/src/model"
	"crosstrader/src/repository"
)

// orderSearcher is the read-side dependency of the listing handler,
// implemented by repository.OrderRepository.
type orderSearcher interface {
	Search(ctx context.Context, options repository.OrderSearchOptions) ([]model.OrderRecord, error)
}

// dispatchReader serves the persisted dispatch ledger and upkeep
// summaries, implemented by repository.DispatchRepository.
type dispatchReader interface {
	FindByOrderID(ctx context.Context, orderID uint64) ([]model.DispatchLog, error)
	FindLatestRuns(ctx context.Context, limit int) ([]model.UpkeepRun, error)
}

// createOrderRequest is the shared payload for the three creation routes.
// Amounts and thresholds are decimal strings.
type createOrderRequest struct {
	Token            string `json:"token"`
	Amount           string `json:"amount"`
	DestinationChain uint64 `json:"destination_chain"`
	ReceiverContract string `json:"receiver_contract"`
	Recipient        string `json:"recipient"`
	Action           string `json:"action"`
	Recurring        bool   `json:"recurring"`
	MaxExecutions    uint64 `json:"max_executions"`
	Deadline         string `json:"deadline,omitempty"` // RFC3339, empty = none

	// TIME_BASED
	IntervalSeconds int64 `json:"interval_seconds,omitempty"`

	// PRICE_THRESHOLD
	PriceFeed      string `json:"price_feed,omitempty"`
	PriceThreshold string `json:"price_threshold,omitempty"`
	ExecuteAbove   bool   `json:"execute_above,omitempty"`

	// BALANCE_TRIGGER
	BalanceRequired string `json:"balance_required,omitempty"`
}

type createOrderResponse struct {
	OrderID uint64 `json:"order_id"`
}

func (req *createOrderRequest) transferSpec() (engine.TransferSpec, error) {
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return engine.TransferSpec{}, errors.New("invalid amount")
	}

	spec := engine.TransferSpec{
		Token:            req.Token,
		Amount:           amount,
		DestinationChain: req.DestinationChain,
		ReceiverContract: req.ReceiverContract,
		Recipient:        req.Recipient,
		Action:           req.Action,
		Recurring:        req.Recurring,
		MaxExecutions:    req.MaxExecutions,
	}

	if req.Deadline != "" {
		deadline, err := time.Parse(time.RFC3339, req.Deadline)
		if err != nil {
			return engine.TransferSpec{}, errors.New("invalid deadline")
		}
		spec.Deadline = deadline
	}

	return spec, nil
}

// writeEngineError maps engine errors onto HTTP statuses with the typed
// diagnostic preserved in the body.
func writeEngineError(w http.ResponseWriter, err error) {
	var validation *engine.ValidationError
	var insufficient *engine.InsufficientFundsError

	switch {
	case errors.As(err, &validation):
		http.Error(w, validation.Error(), http.StatusBadRequest)
	case errors.Is(err, engine.ErrUnauthorized):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, engine.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, engine.ErrCapacityExceeded),
		errors.Is(err, engine.ErrOrderFinalized):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.As(err, &insufficient):
		http.Error(w, insufficient.Error(), http.StatusConflict)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.WithError(err).Error("Failed to encode response")
	}
}

func operatorOr401(w http.ResponseWriter, r *http.Request) (string, bool) {
	operator, ok := auth.GetOperatorFromContext(r.Context())
	if !ok || operator == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return "", false
	}
	return operator, true
}

// CreateTimedOrderHandler registers a TIME_BASED order.
func CreateTimedOrderHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := operatorOr401(w, r)
		if !ok {
			return
		}

		var req createOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}

		spec, err := req.transferSpec()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		orderID, err := eng.CreateTimedOrder(operator, spec, time.Duration(req.IntervalSeconds)*time.Second)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, createOrderResponse{OrderID: orderID})
	}
}

// CreatePriceOrderHandler registers a PRICE_THRESHOLD order.
func CreatePriceOrderHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := operatorOr401(w, r)
		if !ok {
			return
		}

		var req createOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}

		spec, err := req.transferSpec()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		threshold, err := decimal.NewFromString(req.PriceThreshold)
		if err != nil {
			http.Error(w, "invalid price_threshold", http.StatusBadRequest)
			return
		}

		orderID, err := eng.CreatePriceOrder(operator, spec, req.PriceFeed, threshold, req.ExecuteAbove)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, createOrderResponse{OrderID: orderID})
	}
}

// CreateBalanceOrderHandler registers a BALANCE_TRIGGER order.
func CreateBalanceOrderHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := operatorOr401(w, r)
		if !ok {
			return
		}

		var req createOrderRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}

		spec, err := req.transferSpec()
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		required, err := decimal.NewFromString(req.BalanceRequired)
		if err != nil {
			http.Error(w, "invalid balance_required", http.StatusBadRequest)
			return
		}

		orderID, err := eng.CreateBalanceOrder(operator, spec, required)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, createOrderResponse{OrderID: orderID})
	}
}

func orderIDParam(r *http.Request) (uint64, error) {
	return strconv.ParseUint(chi.URLParam(r, "orderID"), 10, 64)
}

// CancelOrderHandler moves an order to the terminal CANCELLED status.
func CancelOrderHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := operatorOr401(w, r)
		if !ok {
			return
		}

		orderID, err := orderIDParam(r)
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		if err := eng.CancelOrder(operator, orderID); err != nil {
			writeEngineError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// PauseOrderHandler toggles ACTIVE and PAUSED.
func PauseOrderHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := operatorOr401(w, r)
		if !ok {
			return
		}

		orderID, err := orderIDParam(r)
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		var req struct {
			Paused bool `json:"paused"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}

		if err := eng.PauseOrder(operator, orderID, req.Paused); err != nil {
			writeEngineError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// GetOrderHandler returns the live engine state of one order.
func GetOrderHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDParam(r)
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		order, err := eng.GetOrder(orderID)
		if err != nil {
			writeEngineError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, order)
	}
}

// SearchOrdersHandler lists persisted order snapshots from the read-only
// database. Supports pagination and filters (status, trigger, chain,
// createdFrom, createdTo).
func SearchOrdersHandler(repo orderSearcher) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		options := repository.OrderSearchOptions{}

		if statusParam := r.URL.Query().Get("status"); statusParam != "" {
			options.Status = &statusParam
		}

		if triggerParam := r.URL.Query().Get("trigger"); triggerParam != "" {
			options.TriggerType = &triggerParam
		}

		if chainParam := r.URL.Query().Get("chain"); chainParam != "" {
			chain, err := strconv.ParseUint(chainParam, 10, 64)
			if err != nil {
				http.Error(w, "invalid chain", http.StatusBadRequest)
				return
			}
			options.Chain = &chain
		}

		if createdFromParam := r.URL.Query().Get("createdFrom"); createdFromParam != "" {
			parsed, err := time.Parse(time.RFC3339, createdFromParam)
			if err != nil {
				http.Error(w, "invalid createdFrom", http.StatusBadRequest)
				return
			}
			options.CreatedFrom = &parsed
		}

		if createdToParam := r.URL.Query().Get("createdTo"); createdToParam != "" {
			parsed, err := time.Parse(time.RFC3339, createdToParam)
			if err != nil {
				http.Error(w, "invalid createdTo", http.StatusBadRequest)
				return
			}
			options.CreatedTo = &parsed
		}

		if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
			limit, err := strconv.Atoi(limitParam)
			if err != nil {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			options.Limit = limit
		}

		if offsetParam := r.URL.Query().Get("offset"); offsetParam != "" {
			offset, err := strconv.Atoi(offsetParam)
			if err != nil {
				http.Error(w, "invalid offset", http.StatusBadRequest)
				return
			}
			options.Offset = offset
		}

		records, err := repo.Search(r.Context(), options)
		if err != nil {
			http.Error(w, "search failed", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, records)
	}
}

// DispatchLedgerHandler lists the dispatch rows for one order.
func DispatchLedgerHandler(repo dispatchReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDParam(r)
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		rows, err := repo.FindByOrderID(r.Context(), orderID)
		if err != nil {
			http.Error(w, "lookup failed", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, rows)
	}
}
