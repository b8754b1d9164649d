package engine

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"crosstrader/src/model"
)

// SkipEntry records one candidate the execute phase declined, with the
// evaluator's reason.
type SkipEntry struct {
	OrderID uint64           `json:"order_id"`
	Reason  model.SkipReason `json:"reason"`
}

// FailEntry records one candidate whose execution raised an error. The
// failure payload is preserved; the batch continues.
type FailEntry struct {
	OrderID uint64 `json:"order_id"`
	Err     string `json:"error"`
}

// DispatchEntry records one successful execution.
type DispatchEntry struct {
	OrderID          uint64          `json:"order_id"`
	DispatchID       string          `json:"dispatch_id"`
	DestinationChain uint64          `json:"destination_chain"`
	Token            string          `json:"token"`
	Amount           decimal.Decimal `json:"amount"`
	Action           string          `json:"action"`
	Fee              decimal.Decimal `json:"fee"`
	ExecutionCount   uint64          `json:"execution_count"`
}

// UpkeepReport summarizes one execute pass.
type UpkeepReport struct {
	Caller     string          `json:"caller"`
	Requested  int             `json:"requested"`
	Dispatches []DispatchEntry `json:"dispatches"`
	Skipped    []SkipEntry     `json:"skipped"`
	Failed     []FailEntry     `json:"failed"`
	RanAt      time.Time       `json:"ran_at"`
}

// CheckUpkeep is the read-only scan phase. It walks the active-id list up
// to the configured batch limit and returns the executable subset. No
// mutation happens here, so repeated calls at the same state produce
// identical results.
func (e *Engine) CheckUpkeep() (bool, []uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()

	limit := len(e.activeIDs)
	if e.cfg.ScanBatchLimit > 0 && limit > e.cfg.ScanBatchLimit {
		limit = e.cfg.ScanBatchLimit
	}

	var candidates []uint64
	for _, id := range e.activeIDs[:limit] {
		order := e.getLocked(id)
		if executable, _ := e.evaluateLocked(order, now); executable {
			candidates = append(candidates, id)
		}
	}

	return len(candidates) > 0, candidates
}

// PerformUpkeep is the state-mutating execute phase. Every candidate is
// re-evaluated first, since state may have shifted since the scan (e.g. a
// sibling order consuming the shared fee balance), and executed inside an
// isolated failure scope so that one misbehaving order never blocks the
// rest of the batch.
func (e *Engine) PerformUpkeep(caller string, candidateIDs []uint64) (UpkeepReport, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.automationCaller(caller) {
		return UpkeepReport{}, ErrUnauthorized
	}

	// The dispatch path calls out to the bridge mid-execution; the guard
	// keeps a malicious counterparty from re-entering the batch.
	if e.inUpkeep {
		return UpkeepReport{}, ErrUpkeepInProgress
	}
	e.inUpkeep = true
	defer func() { e.inUpkeep = false }()

	now := e.now()
	report := UpkeepReport{
		Caller:    caller,
		Requested: len(candidateIDs),
		RanAt:     now,
	}

	e.log.WithFields(map[string]interface{}{
		"caller":     caller,
		"candidates": len(candidateIDs),
	}).Info("Upkeep started")

	for _, id := range candidateIDs {
		order := e.getLocked(id)

		executable, reason := e.evaluateLocked(order, now)
		if !executable {
			report.Skipped = append(report.Skipped, SkipEntry{OrderID: id, Reason: reason})
			e.log.WithFields(map[string]interface{}{
				"order_id": id,
				"reason":   reason,
			}).Info("Candidate skipped")
			continue
		}

		entry, err := e.attemptExecute(order, now)
		if err != nil {
			report.Failed = append(report.Failed, FailEntry{OrderID: id, Err: err.Error()})
			e.log.WithField("order_id", id).WithError(err).Error("Candidate execution failed")
			continue
		}

		report.Dispatches = append(report.Dispatches, entry)
	}

	e.log.WithFields(map[string]interface{}{
		"caller":    caller,
		"requested": report.Requested,
		"executed":  len(report.Dispatches),
		"skipped":   len(report.Skipped),
		"failed":    len(report.Failed),
	}).Info("Upkeep finished")

	return report, nil
}

// attemptExecute is the isolation boundary around one candidate: any
// raised error, including a panic from a misbehaving collaborator, comes
// back as a value so the batch loop can move on.
func (e *Engine) attemptExecute(order *model.TradeOrder, now time.Time) (entry DispatchEntry, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("execution panicked: %v", r)
		}
	}()

	return e.executeOrderLocked(order, now)
}
