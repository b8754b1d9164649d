package executors

import (
	"context"
	"time"

	logger "github.com/sirupsen/logrus"

	"crosstrader/src/engine"
	"crosstrader/src/repository"
)

// StartLoop runs the automation caller: every tick it scans the engine for
// executable orders and, only when the scan reports work, drives the
// execute pass. The engine itself contains no timer; this loop is the
// polling cadence the protocol assumes.
func StartLoop(ctx context.Context, eng *engine.Engine) error {
	config := GetConfig()

	ticker := time.NewTicker(config.LoopPeriod) // Set up a ticker that fires periodically
	defer ticker.Stop()

	caller := config.ForwarderID
	if caller == "" {
		// Bootstrap mode: the engine falls back to owner authentication
		// while no forwarder is configured.
		caller = config.OwnerID
	}

	mirror := NewReportMirror(
		repository.NewOrderRepository(),
		repository.NewDispatchRepository(),
		repository.NewExceptionRepository(),
	)

	for {
		select {
		case <-ctx.Done():
			logger.Println("loop stopped")
			return nil

		case <-ticker.C:
			logger.Debug("loop tick")

			needed, candidates := eng.CheckUpkeep()
			if !needed {
				continue
			}

			logger.WithField("candidates", len(candidates)).Info("Upkeep needed")

			report, err := eng.PerformUpkeep(caller, candidates)
			if err != nil {
				// Authorization and reentrancy problems are loop-level
				// defects, not per-order conditions. Surface and stop.
				logger.WithError(err).Error("PerformUpkeep failed, will exit here")
				return err
			}

			mirror.Persist(ctx, eng, report)
		}
	}
}
