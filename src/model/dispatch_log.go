package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	DispatchStatusSent      = "sent"
	DispatchStatusDelivered = "delivered"
	DispatchStatusFailed    = "failed"
)

// DispatchLog records one cross-chain message sent (or attempted) on behalf
// of an order, plus the delivery receipt once the bridge reports it.
type DispatchLog struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	OrderID    uint64 `gorm:"index" json:"order_id"`
	DispatchID string `gorm:"size:100;uniqueIndex" json:"dispatch_id"`

	DestinationChain uint64          `json:"destination_chain"`
	Token            string          `gorm:"size:100" json:"token"`
	Amount           decimal.Decimal `gorm:"type:numeric" json:"amount"`
	Action           string          `gorm:"size:50" json:"action"`
	Fee              decimal.Decimal `gorm:"type:numeric" json:"fee"`

	Status string `gorm:"size:20;not null;default:sent;index" json:"status"`
	Detail string `gorm:"type:text" json:"detail,omitempty"`

	SentAt      time.Time  `json:"sent_at"`
	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (DispatchLog) TableName() string {
	return "dispatch_logs"
}

// UpkeepRun summarizes one execute pass of the automation loop.
type UpkeepRun struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Caller    string    `gorm:"size:100" json:"caller"`
	Requested int       `json:"requested"`
	Executed  int       `json:"executed"`
	Skipped   int       `json:"skipped"`
	Failed    int       `json:"failed"`
	RanAt     time.Time `json:"ran_at"`
	Window    time.Time `json:"window"`
	CreatedAt time.Time `json:"created_at"`
}

func (UpkeepRun) TableName() string {
	return "upkeep_runs"
}
