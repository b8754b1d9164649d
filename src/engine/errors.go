package engine

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"crosstrader/src/model"
)

var (
	// ErrNotFound is returned for order ids that were never created.
	ErrNotFound = errors.New("order not found")

	// ErrCapacityExceeded is returned when the active set is at its cap.
	// Creation fails without consuming an order id.
	ErrCapacityExceeded = errors.New("active order capacity exceeded")

	// ErrUnauthorized is returned when the caller is not allowed to invoke
	// an owner-only or automation-only operation.
	ErrUnauthorized = errors.New("caller not authorized")

	// ErrOrderFinalized is returned when cancelling or pausing an order
	// that already reached a terminal status.
	ErrOrderFinalized = errors.New("order already finalized")

	// ErrUpkeepInProgress guards the execute entry point against reentrant
	// invocation.
	ErrUpkeepInProgress = errors.New("upkeep already in progress")
)

// ValidationError reports a rejected input on the management surface.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}

// InsufficientFundsError carries the have/need fee balances observed at
// dispatch time.
type InsufficientFundsError struct {
	OrderID uint64
	Have    decimal.Decimal
	Need    decimal.Decimal
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("order %d: insufficient fee balance, have %s need %s", e.OrderID, e.Have, e.Need)
}

// ConditionNotMetError is raised when the executor is invoked for an order
// the evaluator rejects. Unreachable through the upkeep path, which
// re-checks first; it guards direct invocation.
type ConditionNotMetError struct {
	OrderID uint64
	Reason  model.SkipReason
}

func (e *ConditionNotMetError) Error() string {
	return fmt.Sprintf("order %d: condition not met: %s", e.OrderID, e.Reason)
}
