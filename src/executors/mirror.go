package executors

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"

	"crosstrader/src/engine"
	"crosstrader/src/model"
	"crosstrader/src/repository"
	"crosstrader/src/utils"
)

// ReportMirror copies the outcome of an upkeep pass into the audit
// database: the run summary, one dispatch row per executed order, fresh
// order snapshots, and an exception row per failure. Persistence errors
// are logged and swallowed: the engine already executed and the mirror must
// never wedge the loop.
type ReportMirror struct {
	orders     *repository.OrderRepository
	dispatches *repository.DispatchRepository
	exceptions *repository.ExceptionRepository
}

func NewReportMirror(
	orders *repository.OrderRepository,
	dispatches *repository.DispatchRepository,
	exceptions *repository.ExceptionRepository,
) *ReportMirror {
	return &ReportMirror{
		orders:     orders,
		dispatches: dispatches,
		exceptions: exceptions,
	}
}

func (m *ReportMirror) Persist(ctx context.Context, eng *engine.Engine, report engine.UpkeepReport) {
	run := &model.UpkeepRun{
		Caller:    report.Caller,
		Requested: report.Requested,
		Executed:  len(report.Dispatches),
		Skipped:   len(report.Skipped),
		Failed:    len(report.Failed),
		RanAt:     report.RanAt,
		Window:    utils.AlignToWindow(report.RanAt, GetConfig().LoopPeriod),
	}
	if err := m.dispatches.CreateRun(ctx, run); err != nil {
		logger.WithError(err).Warn("Failed to persist upkeep run")
	}

	for _, entry := range report.Dispatches {
		row := &model.DispatchLog{
			OrderID:          entry.OrderID,
			DispatchID:       entry.DispatchID,
			DestinationChain: entry.DestinationChain,
			Token:            entry.Token,
			Amount:           entry.Amount,
			Action:           entry.Action,
			Fee:              entry.Fee,
			Status:           model.DispatchStatusSent,
			SentAt:           report.RanAt,
		}
		if err := m.dispatches.Create(ctx, row); err != nil {
			logger.WithField("dispatch_id", entry.DispatchID).
				WithError(err).Warn("Failed to persist dispatch row")
		}

		m.snapshotOrder(ctx, eng, entry.OrderID)
	}

	for _, failure := range report.Failed {
		exc := &model.Exception{
			Service:   "trade_engine",
			Module:    "upkeep",
			Method:    "PerformUpkeep",
			Message:   failure.Err,
			Level:     "error",
			CreatedAt: time.Now(),
		}
		if err := m.exceptions.Create(ctx, exc); err != nil {
			logger.WithError(err).Warn("Failed to persist execution failure")
		}
	}
}

// SnapshotOrder mirrors one order's current engine state.
func (m *ReportMirror) SnapshotOrder(ctx context.Context, eng *engine.Engine, orderID uint64) {
	m.snapshotOrder(ctx, eng, orderID)
}

func (m *ReportMirror) snapshotOrder(ctx context.Context, eng *engine.Engine, orderID uint64) {
	order, err := eng.GetOrder(orderID)
	if err != nil {
		return
	}

	if err := m.orders.Upsert(ctx, model.NewOrderRecord(&order)); err != nil {
		logger.WithField("order_id", orderID).
			WithError(err).Warn("Failed to persist order snapshot")
	}
}
