package bridge

import (
	"github.com/shopspring/decimal"

	"crosstrader/src/model"
)

// Router is the message-transport boundary: it quotes a fee for a
// (destination chain, message) pair and, given payment, dispatches the
// message and returns an opaque tracking id.
//
// A failing QuoteFee is treated by the caller as "not executable", never
// propagated as an execution error.
type Router interface {
	QuoteFee(destinationChain uint64, msg model.OutboundMessage) (decimal.Decimal, error)
	Dispatch(destinationChain uint64, msg model.OutboundMessage) (string, error)
}

// Receipt is a delivery report for a previously dispatched message.
type Receipt struct {
	DispatchID string `json:"dispatch_id"`
	Delivered  bool   `json:"delivered"`
	Detail     string `json:"detail,omitempty"`
}
