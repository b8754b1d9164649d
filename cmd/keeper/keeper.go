package keeper

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"crosstrader/src/database"
	"crosstrader/src/executors"
)

// Keeper runs the standalone automation caller: the upkeep loop without
// the HTTP surface, for deployments where the API runs elsewhere.
type Keeper struct {
}

func (t *Keeper) Start() error {
	config := executors.GetConfig()
	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)

	defer stop()

	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to main database")
		return err
	}

	// Initialize read-only database
	if err := database.InitReadOnlyDB(); err != nil {
		logrus.WithError(err).Fatal("Failed to connect to read-only database")
		return err
	}

	eng, err := executors.BuildEngine()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to bootstrap engine")
		return err
	}

	logrus.WithFields(map[string]interface{}{
		"owner":       config.OwnerID,
		"loop_period": config.LoopPeriod,
	}).Info("Starting keeper loop")

	if err := executors.StartLoop(ctx, eng); err != nil {
		logrus.WithError(err).Error("Failed to run keeper loop")
		return err
	}

	return nil
}
