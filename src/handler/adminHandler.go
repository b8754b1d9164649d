package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"crosstrader/src/engine"
	"crosstrader/src/treasury"
)

type allowlistRequest struct {
	Chain   uint64 `json:"chain,omitempty"`
	Token   string `json:"token,omitempty"`
	Feed    string `json:"feed,omitempty"`
	Allowed bool   `json:"allowed"`
}

// SetChainAllowedHandler toggles a destination chain on the allowlist.
func SetChainAllowedHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := operatorOr401(w, r)
		if !ok {
			return
		}

		var req allowlistRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}

		if err := eng.SetChainAllowed(operator, req.Chain, req.Allowed); err != nil {
			writeEngineError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// SetTokenAllowedHandler toggles a token on the allowlist.
func SetTokenAllowedHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := operatorOr401(w, r)
		if !ok {
			return
		}

		var req allowlistRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}

		if err := eng.SetTokenAllowed(operator, req.Token, req.Allowed); err != nil {
			writeEngineError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// SetFeedAllowedHandler toggles a price feed on the allowlist.
func SetFeedAllowedHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := operatorOr401(w, r)
		if !ok {
			return
		}

		var req allowlistRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}

		if err := eng.SetFeedAllowed(operator, req.Feed, req.Allowed); err != nil {
			writeEngineError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// SetForwarderHandler updates the automation forwarder identity.
func SetForwarderHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := operatorOr401(w, r)
		if !ok {
			return
		}

		var req struct {
			Forwarder string `json:"forwarder"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}

		if err := eng.SetForwarder(operator, req.Forwarder); err != nil {
			writeEngineError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// SetMaxPriceAgeHandler updates the staleness window for price reads.
func SetMaxPriceAgeHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := operatorOr401(w, r)
		if !ok {
			return
		}

		var req struct {
			MaxAgeSeconds int64 `json:"max_age_seconds"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}

		if err := eng.SetMaxPriceAge(operator, time.Duration(req.MaxAgeSeconds)*time.Second); err != nil {
			writeEngineError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// SetExtraDataHandler updates the opaque payload attached to dispatches.
func SetExtraDataHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := operatorOr401(w, r)
		if !ok {
			return
		}

		var req struct {
			ExtraData string `json:"extra_data"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}

		if err := eng.SetExtraData(operator, req.ExtraData); err != nil {
			writeEngineError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

type treasuryMoveRequest struct {
	Asset  string `json:"asset"`
	Amount string `json:"amount"`
}

// DepositHandler credits treasury funds used for fees and transfers.
func DepositHandler(funds *treasury.Treasury) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := operatorOr401(w, r); !ok {
			return
		}

		var req treasuryMoveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}

		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			http.Error(w, "invalid amount", http.StatusBadRequest)
			return
		}

		if err := funds.Deposit(req.Asset, amount); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// WithdrawHandler pulls treasury funds back out, owner only.
func WithdrawHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		operator, ok := operatorOr401(w, r)
		if !ok {
			return
		}

		var req treasuryMoveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid body", http.StatusBadRequest)
			return
		}

		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			http.Error(w, "invalid amount", http.StatusBadRequest)
			return
		}

		if err := eng.EmergencyWithdraw(operator, req.Asset, amount); err != nil {
			writeEngineError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// BalanceHandler reports the treasury balance for one asset.
func BalanceHandler(funds *treasury.Treasury) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		asset := r.URL.Query().Get("asset")
		if asset == "" {
			http.Error(w, "asset required", http.StatusBadRequest)
			return
		}

		writeJSON(w, http.StatusOK, map[string]string{
			"asset":   asset,
			"balance": funds.Balance(asset).String(),
		})
	}
}

// ActiveOrdersHandler exposes the live active id list, scan order included.
func ActiveOrdersHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"active_order_ids": eng.ActiveOrderIDs(),
		})
	}
}

// EvaluateOrderHandler runs the condition check for one order without
// executing it.
func EvaluateOrderHandler(eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := orderIDParam(r)
		if err != nil {
			http.Error(w, "invalid order id", http.StatusBadRequest)
			return
		}

		eligible, reason := eng.Evaluate(orderID)

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"order_id": orderID,
			"eligible": eligible,
			"reason":   reason,
		})
	}
}

// UpkeepRunsHandler lists the newest persisted upkeep summaries.
func UpkeepRunsHandler(repo dispatchReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 0
		if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
			parsed, err := strconv.Atoi(limitParam)
			if err != nil {
				http.Error(w, "invalid limit", http.StatusBadRequest)
				return
			}
			limit = parsed
		}

		runs, err := repo.FindLatestRuns(r.Context(), limit)
		if err != nil {
			http.Error(w, "lookup failed", http.StatusInternalServerError)
			return
		}

		writeJSON(w, http.StatusOK, runs)
	}
}
