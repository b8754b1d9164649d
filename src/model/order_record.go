package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// OrderRecord is the persisted snapshot of a TradeOrder. The engine state
// is authoritative; these rows exist for auditing and for the read API.
type OrderRecord struct {
	ID      uint   `gorm:"primaryKey" json:"id"`
	OrderID uint64 `gorm:"uniqueIndex" json:"order_id"`
	Creator string `gorm:"size:100;index" json:"creator"`

	TriggerType string `gorm:"size:30;index" json:"trigger_type"`
	Status      string `gorm:"size:20;not null;default:active;index" json:"status"`

	Token            string          `gorm:"size:100" json:"token"`
	Amount           decimal.Decimal `gorm:"type:numeric" json:"amount"`
	DestinationChain uint64          `gorm:"index" json:"destination_chain"`
	ReceiverContract string          `gorm:"size:100" json:"receiver_contract"`
	Recipient        string          `gorm:"size:100" json:"recipient"`
	Action           string          `gorm:"size:50" json:"action"`

	IntervalSeconds   int64           `json:"interval_seconds"`
	PriceFeed         string          `gorm:"size:100" json:"price_feed,omitempty"`
	PriceFeedDecimals uint8           `json:"price_feed_decimals,omitempty"`
	PriceThreshold    decimal.Decimal `gorm:"type:numeric" json:"price_threshold"`
	ExecuteAbove      bool            `json:"execute_above"`
	BalanceRequired   decimal.Decimal `gorm:"type:numeric" json:"balance_required"`

	Recurring      bool   `json:"recurring"`
	MaxExecutions  uint64 `json:"max_executions"`
	ExecutionCount uint64 `json:"execution_count"`

	Deadline       *time.Time `json:"deadline,omitempty"`
	LastExecutedAt *time.Time `json:"last_executed_at,omitempty"`

	// Recent dispatch ids, comma separated. The dispatch_logs table is the
	// full ledger; this mirrors the order's bounded history rings.
	PendingDispatches   string `gorm:"size:300" json:"pending_dispatches,omitempty"`
	CompletedDispatches string `gorm:"size:300" json:"completed_dispatches,omitempty"`
	FailedDispatches    string `gorm:"size:300" json:"failed_dispatches,omitempty"`

	OrderCreatedAt time.Time `json:"order_created_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName controls the exact table name for order snapshots.
func (OrderRecord) TableName() string {
	return "trade_orders"
}

// NewOrderRecord converts an engine order into its persisted form.
func NewOrderRecord(o *TradeOrder) *OrderRecord {
	rec := &OrderRecord{
		OrderID:             o.OrderID,
		Creator:             o.Creator,
		TriggerType:         string(o.TriggerType),
		Status:              string(o.Status),
		Token:               o.Token,
		Amount:              o.Amount,
		DestinationChain:    o.DestinationChain,
		ReceiverContract:    o.ReceiverContract,
		Recipient:           o.Recipient,
		Action:              o.Action,
		IntervalSeconds:     int64(o.Interval / time.Second),
		PriceFeed:           o.PriceFeed,
		PriceFeedDecimals:   o.PriceFeedDecimals,
		PriceThreshold:      o.PriceThreshold,
		ExecuteAbove:        o.ExecuteAbove,
		BalanceRequired:     o.BalanceRequired,
		Recurring:           o.Recurring,
		MaxExecutions:       o.MaxExecutions,
		ExecutionCount:      o.ExecutionCount,
		PendingDispatches:   strings.Join(o.PendingDispatches.Recent(), ","),
		CompletedDispatches: strings.Join(o.CompletedDispatches.Recent(), ","),
		FailedDispatches:    strings.Join(o.FailedDispatches.Recent(), ","),
		OrderCreatedAt:      o.CreatedAt,
	}

	if !o.Deadline.IsZero() {
		deadline := o.Deadline
		rec.Deadline = &deadline
	}

	if !o.LastExecutedAt.IsZero() {
		last := o.LastExecutedAt
		rec.LastExecutedAt = &last
	}

	return rec
}
