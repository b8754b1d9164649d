package engine

import "crosstrader/src/model"

// Order bookkeeping: the durable order map plus the bounded active-id list
// used for per-cycle iteration. Callers hold e.mu.

// createLocked assigns the next id and stores the record. The capacity
// check runs first so a rejected creation never consumes an id.
func (e *Engine) createLocked(order *model.TradeOrder) (uint64, error) {
	if len(e.activeIDs) >= e.cfg.MaxActiveOrders {
		return 0, ErrCapacityExceeded
	}

	e.nextOrderID++
	order.OrderID = e.nextOrderID

	e.orders[order.OrderID] = order
	e.activeIDs = append(e.activeIDs, order.OrderID)

	e.log.WithFields(map[string]interface{}{
		"order_id": order.OrderID,
		"trigger":  order.TriggerType,
		"token":    order.Token,
		"chain":    order.DestinationChain,
	}).Info("Order created")

	return order.OrderID, nil
}

// getLocked returns the stored record or nil when absent.
func (e *Engine) getLocked(orderID uint64) *model.TradeOrder {
	return e.orders[orderID]
}

// removeFromActiveLocked drops orderID from the active list via
// scan-and-swap-remove. O(n) is fine: the list is capped small. No-op when
// the id is not a member, so removal stays idempotent.
func (e *Engine) removeFromActiveLocked(orderID uint64) {
	for i, id := range e.activeIDs {
		if id != orderID {
			continue
		}
		last := len(e.activeIDs) - 1
		e.activeIDs[i] = e.activeIDs[last]
		e.activeIDs = e.activeIDs[:last]
		return
	}
}
