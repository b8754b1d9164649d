package engine

import (
	"time"

	"github.com/shopspring/decimal"

	"crosstrader/src/model"
	"crosstrader/src/oracle"
)

// evaluateLocked decides whether one order is currently executable. Pure
// with respect to engine state: it reads, never mutates. Checks
// short-circuit; the first failing one names the skip reason.
//
// The affordability pre-check runs before the trigger-specific logic on
// purpose: an order that cannot pay the bridge fee must never be reported
// executable even when its trigger holds, otherwise the scan phase and the
// execute phase would disagree.
func (e *Engine) evaluateLocked(order *model.TradeOrder, now time.Time) (bool, model.SkipReason) {
	if !order.Exists() {
		return false, model.SkipNotFound
	}

	if order.Status != model.OrderStatusActive {
		return false, model.SkipOrderNotActive
	}

	if order.ExecutionsExhausted() {
		return false, model.SkipMaxExecutionsReached
	}

	if order.DeadlinePassed(now) {
		return false, model.SkipDeadlineExpired
	}

	// Affordability: quote the exact message execution would send. An
	// unreachable bridge counts as non-executable, not as an error.
	msg := e.buildOutboundMessage(order, now)
	fee, err := e.router.QuoteFee(order.DestinationChain, msg)
	if err != nil {
		return false, model.SkipFeeEstimationFailed
	}
	if e.funds.Balance(e.cfg.FeeAsset).LessThan(fee) {
		return false, model.SkipInsufficientFunds
	}

	switch order.TriggerType {
	case model.TriggerTimeBased:
		// The very first evaluation is always time-eligible, enabling
		// immediate first execution.
		if order.ExecutionCount == 0 {
			return true, model.SkipNone
		}
		if now.Sub(order.LastExecutedAt) >= order.Interval {
			return true, model.SkipNone
		}
		return false, model.SkipTimeNotElapsed

	case model.TriggerBalance:
		if e.funds.Balance(order.Token).GreaterThanOrEqual(order.BalanceRequired) {
			return true, model.SkipNone
		}
		return false, model.SkipBalanceTooLow

	case model.TriggerPriceThreshold:
		return e.evaluatePriceLocked(order, now)

	default:
		return false, model.SkipOrderNotActive
	}
}

// evaluatePriceLocked runs the price read sub-protocol and the threshold
// comparison. Fail closed: any uncertainty about validity or staleness
// skips rather than executing on unverified data.
func (e *Engine) evaluatePriceLocked(order *model.TradeOrder, now time.Time) (bool, model.SkipReason) {
	if order.PriceFeed == "" {
		return false, model.SkipPriceFeedNotSet
	}
	if !e.allowedFeeds[order.PriceFeed] {
		return false, model.SkipPriceFeedNotAllowed
	}

	price, reason := e.readPrice(order, now)
	if reason != model.SkipNone {
		return false, reason
	}

	if order.ExecuteAbove {
		if price.GreaterThanOrEqual(order.PriceThreshold) {
			return true, model.SkipNone
		}
		return false, model.SkipPriceNotMet
	}

	if price.LessThanOrEqual(order.PriceThreshold) {
		return true, model.SkipNone
	}
	return false, model.SkipPriceNotMet
}

// readPrice queries the oracle and canonicalizes the answer to 18-decimal
// fixed point using the decimal count cached at creation. Invalid when the
// call errors, the answer is non-positive, or the round carries no
// timestamp. Stale when the configured max age is nonzero and now is
// strictly past updatedAt+maxAge.
func (e *Engine) readPrice(order *model.TradeOrder, now time.Time) (decimal.Decimal, model.SkipReason) {
	round, err := e.prices.LatestRound(order.PriceFeed)
	if err != nil {
		return decimal.Zero, model.SkipPriceInvalid
	}
	if round.Answer.LessThanOrEqual(decimal.Zero) || round.UpdatedAt.IsZero() {
		return decimal.Zero, model.SkipPriceInvalid
	}

	if e.maxPriceAge > 0 && now.After(round.UpdatedAt.Add(e.maxPriceAge)) {
		return decimal.Zero, model.SkipPriceStale
	}

	return oracle.Canonicalize(round.Answer, order.PriceFeedDecimals), model.SkipNone
}

// Evaluate exposes the evaluator for a single order id. Read-only; two
// calls at the same state return identical results.
func (e *Engine) Evaluate(orderID uint64) (bool, model.SkipReason) {
	e.mu.Lock()
	defer e.mu.Unlock()

	order := e.getLocked(orderID)
	if order == nil {
		return false, model.SkipNotFound
	}
	return e.evaluateLocked(order, e.now())
}
