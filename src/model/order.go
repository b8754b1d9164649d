package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// TriggerType classifies the condition gating an order's execution.
// Immutable after creation.
type TriggerType string

const (
	TriggerTimeBased      TriggerType = "time_based"
	TriggerPriceThreshold TriggerType = "price_threshold"
	TriggerBalance        TriggerType = "balance_trigger"
)

type OrderStatus string

const (
	OrderStatusActive    OrderStatus = "active"
	OrderStatusExecuted  OrderStatus = "executed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusPaused    OrderStatus = "paused"
)

// SkipReason explains why the evaluator declined an order. These are not
// errors: a skipped order stays in the active set and is retried on the
// next cycle.
type SkipReason string

const (
	SkipNone                 SkipReason = ""
	SkipNotFound             SkipReason = "NOT_FOUND"
	SkipOrderNotActive       SkipReason = "ORDER_NOT_ACTIVE"
	SkipMaxExecutionsReached SkipReason = "MAX_EXECUTIONS_REACHED"
	SkipDeadlineExpired      SkipReason = "DEADLINE_EXPIRED"
	SkipFeeEstimationFailed  SkipReason = "FEE_ESTIMATION_FAILED"
	SkipInsufficientFunds    SkipReason = "INSUFFICIENT_FUNDS"
	SkipTimeNotElapsed       SkipReason = "TIME_NOT_ELAPSED"
	SkipBalanceTooLow        SkipReason = "BALANCE_TOO_LOW"
	SkipPriceFeedNotSet      SkipReason = "PRICE_FEED_NOT_SET"
	SkipPriceFeedNotAllowed  SkipReason = "PRICE_FEED_NOT_ALLOWLISTED"
	SkipPriceInvalid         SkipReason = "PRICE_INVALID"
	SkipPriceStale           SkipReason = "PRICE_STALE"
	SkipPriceNotMet          SkipReason = "PRICE_NOT_MET"
)

// HistoryDepth is the fixed capacity of each dispatch history ring.
// The rings are a bounded audit trail, not a full ledger.
const HistoryDepth = 3

// HistoryRing is a fixed-capacity circular buffer of dispatch ids with an
// explicit write cursor. Reused for the pending, completed and failed
// histories of an order.
type HistoryRing struct {
	Entries [HistoryDepth]string `json:"entries"`
	Cursor  int                  `json:"cursor"`
}

// Push records id at the cursor position, overwriting the oldest entry
// once the ring has wrapped.
func (r *HistoryRing) Push(id string) {
	r.Entries[r.Cursor] = id
	r.Cursor = (r.Cursor + 1) % HistoryDepth
}

// Recent returns the recorded ids, oldest first, skipping unused slots.
func (r *HistoryRing) Recent() []string {
	out := make([]string, 0, HistoryDepth)
	for i := 0; i < HistoryDepth; i++ {
		idx := (r.Cursor + i) % HistoryDepth
		if r.Entries[idx] != "" {
			out = append(out, r.Entries[idx])
		}
	}
	return out
}

// TradeOrder is a persistent record describing a conditional, possibly
// repeating cross-chain transfer instruction. A zero CreatedAt means the
// order does not exist.
type TradeOrder struct {
	OrderID   uint64
	Creator   string
	CreatedAt time.Time

	TriggerType TriggerType
	Status      OrderStatus

	// Transfer payload.
	Token            string
	Amount           decimal.Decimal
	DestinationChain uint64
	ReceiverContract string
	Recipient        string
	Action           string

	// Trigger parameters. Only the subset matching TriggerType is meaningful.
	Interval          time.Duration
	LastExecutedAt    time.Time
	PriceFeed         string
	PriceFeedDecimals uint8
	PriceThreshold    decimal.Decimal // 18-decimal fixed point
	ExecuteAbove      bool
	BalanceRequired   decimal.Decimal

	// Execution control.
	Recurring      bool
	MaxExecutions  uint64 // 0 = unbounded
	ExecutionCount uint64
	Deadline       time.Time // zero = none

	// Execution history.
	PendingDispatches   HistoryRing
	CompletedDispatches HistoryRing
	FailedDispatches    HistoryRing
}

// Exists reports whether the order has been initialized.
func (o *TradeOrder) Exists() bool {
	return o != nil && !o.CreatedAt.IsZero()
}

// ExecutionsExhausted reports whether the execution cap has been reached.
func (o *TradeOrder) ExecutionsExhausted() bool {
	return o.MaxExecutions > 0 && o.ExecutionCount >= o.MaxExecutions
}

// DeadlinePassed reports whether the order may never execute again because
// its absolute deadline is behind now.
func (o *TradeOrder) DeadlinePassed(now time.Time) bool {
	return !o.Deadline.IsZero() && now.After(o.Deadline)
}

// OutboundMessage is the payload handed to the bridge router alongside the
// token transfer. The destination receiver interprets Action and credits
// Recipient. Fee estimation and dispatch must build identical messages for
// the same stored order and observed time, otherwise the quoted fee can
// diverge from the charged fee.
type OutboundMessage struct {
	Receiver  string          `json:"receiver"`
	Recipient string          `json:"recipient"`
	Action    string          `json:"action"`
	ExtraData string          `json:"extra_data"`
	Deadline  time.Time       `json:"deadline"`
	Token     string          `json:"token"`
	Amount    decimal.Decimal `json:"amount"`
}
