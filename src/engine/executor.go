package engine

import (
	"fmt"
	"time"

	"crosstrader/src/model"
)

// resolveDeadline picks the deadline carried by outbound messages: the
// order's own when set, otherwise now plus the configured grace period.
// Fee estimation and dispatch both go through here; the two must build
// identical messages for the same order and observed time, or the quoted
// fee could diverge from the charged one.
func (e *Engine) resolveDeadline(order *model.TradeOrder, now time.Time) time.Time {
	if !order.Deadline.IsZero() {
		return order.Deadline
	}
	return now.Add(e.cfg.DispatchGracePeriod)
}

func (e *Engine) buildOutboundMessage(order *model.TradeOrder, now time.Time) model.OutboundMessage {
	return model.OutboundMessage{
		Receiver:  order.ReceiverContract,
		Recipient: order.Recipient,
		Action:    order.Action,
		ExtraData: e.extraData,
		Deadline:  e.resolveDeadline(order, now),
		Token:     order.Token,
		Amount:    order.Amount,
	}
}

// executeOrderLocked sends one executable order through the bridge:
// builds the outbound message, pays the fee, dispatches, and updates the
// execution bookkeeping. Returns the row describing the dispatch.
func (e *Engine) executeOrderLocked(order *model.TradeOrder, now time.Time) (DispatchEntry, error) {
	if !order.Exists() {
		return DispatchEntry{}, ErrNotFound
	}

	// Defensive double-check. Unreachable via PerformUpkeep, which
	// re-evaluates first; guards direct invocation.
	if executable, reason := e.evaluateLocked(order, now); !executable {
		return DispatchEntry{}, &ConditionNotMetError{OrderID: order.OrderID, Reason: reason}
	}

	msg := e.buildOutboundMessage(order, now)

	fee, err := e.router.QuoteFee(order.DestinationChain, msg)
	if err != nil {
		return DispatchEntry{}, fmt.Errorf("order %d: fee quote failed: %w", order.OrderID, err)
	}

	have := e.funds.Balance(e.cfg.FeeAsset)
	if have.LessThan(fee) {
		return DispatchEntry{}, &InsufficientFundsError{OrderID: order.OrderID, Have: have, Need: fee}
	}

	// One-shot approvals: exactly the fee and exactly the transfer amount.
	e.funds.Approve(bridgeSpender, e.cfg.FeeAsset, fee)
	e.funds.Approve(bridgeSpender, order.Token, order.Amount)

	dispatchID, err := e.router.Dispatch(order.DestinationChain, msg)
	if err != nil {
		return DispatchEntry{}, fmt.Errorf("order %d: dispatch failed: %w", order.OrderID, err)
	}

	if err := e.funds.Spend(bridgeSpender, e.cfg.FeeAsset, fee); err != nil {
		return DispatchEntry{}, fmt.Errorf("order %d: fee settlement failed: %w", order.OrderID, err)
	}
	if err := e.funds.Spend(bridgeSpender, order.Token, order.Amount); err != nil {
		return DispatchEntry{}, fmt.Errorf("order %d: token settlement failed: %w", order.OrderID, err)
	}

	order.PendingDispatches.Push(dispatchID)
	e.dispatchIndex[dispatchID] = order.OrderID

	order.LastExecutedAt = now
	order.ExecutionCount++

	// Finalization: one-shot orders, exhausted caps and expired deadlines
	// leave the active set for good.
	if !order.Recurring || order.ExecutionsExhausted() || order.DeadlinePassed(now) {
		order.Status = model.OrderStatusExecuted
		e.removeFromActiveLocked(order.OrderID)
	}

	e.log.WithFields(map[string]interface{}{
		"order_id":        order.OrderID,
		"dispatch_id":     dispatchID,
		"token":           order.Token,
		"amount":          order.Amount.String(),
		"fee":             fee.String(),
		"execution_count": order.ExecutionCount,
		"status":          order.Status,
	}).Info("Order executed")

	return DispatchEntry{
		OrderID:          order.OrderID,
		DispatchID:       dispatchID,
		DestinationChain: order.DestinationChain,
		Token:            order.Token,
		Amount:           order.Amount,
		Action:           order.Action,
		Fee:              fee,
		ExecutionCount:   order.ExecutionCount,
	}, nil
}

// ExecuteOrder runs one order outside a batch. Same authentication rules
// as PerformUpkeep.
func (e *Engine) ExecuteOrder(caller string, orderID uint64) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.automationCaller(caller) && caller != e.owner {
		return "", ErrUnauthorized
	}

	order := e.getLocked(orderID)
	if order == nil {
		return "", ErrNotFound
	}

	entry, err := e.executeOrderLocked(order, e.now())
	if err != nil {
		return "", err
	}
	return entry.DispatchID, nil
}
