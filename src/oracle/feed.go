package oracle

import (
	"time"

	"github.com/shopspring/decimal"
)

// Round is one answer from a price feed: the raw answer in the feed's
// native decimal count plus round metadata.
type Round struct {
	Answer          decimal.Decimal
	UpdatedAt       time.Time
	RoundID         uint64
	AnsweredInRound uint64
}

// Source is the read-only price oracle the evaluator consumes, keyed by
// feed address. Decimals is read once at order creation and cached on the
// order.
type Source interface {
	LatestRound(feed string) (Round, error)
	Decimals(feed string) (uint8, error)
}

// CanonicalDecimals is the fixed-point scale thresholds are expressed in.
const CanonicalDecimals = 18

// Canonicalize scales a raw feed answer to the 18-decimal fixed point used
// for threshold comparison, regardless of which feed supplied it.
func Canonicalize(answer decimal.Decimal, feedDecimals uint8) decimal.Decimal {
	return answer.Shift(CanonicalDecimals - int32(feedDecimals))
}
