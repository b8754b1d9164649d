package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	logger "github.com/sirupsen/logrus"

	"crosstrader/src/bridge"
	"crosstrader/src/database"
	"crosstrader/src/executors"
	"crosstrader/src/repository"
	"crosstrader/src/server"
)

var (
	PORT     = os.Getenv("SERVER_PORT")
	APP_NAME = os.Getenv("APP_NAME")
)

func SetupLogger() {
	levelStr := strings.ToLower(os.Getenv("LOG_LEVEL"))

	level, err := logger.ParseLevel(levelStr)
	if err != nil {
		level = logger.DebugLevel
	}

	logger.SetLevel(level)
	logger.SetFormatter(&logger.TextFormatter{
		FullTimestamp: true,
	})
}

func main() {
	SetupLogger()
	defer handlePanic()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	// Initialize main (read/write) database
	if err := database.InitMainDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	// Initialize read-only database
	if err := database.InitReadOnlyDB(); err != nil {
		logger.WithError(err).Fatal("Failed to connect to database")
	}

	eng, err := executors.BuildEngine()
	if err != nil {
		logger.WithError(err).Fatal("Failed to bootstrap engine")
	}

	dispatchRepo := repository.NewDispatchRepository()
	orderRepo := repository.NewOrderRepository().WithDB(database.ReadOnlyDB)

	config := executors.GetConfig()
	if config.EnableReceipts {
		listener := bridge.NewReceiptListener(
			bridge.GetConfig().ReceiptsURL,
			func(receipt bridge.Receipt) {
				eng.ConfirmDispatch(receipt.DispatchID, receipt.Delivered)
				if err := dispatchRepo.Settle(ctx, receipt.DispatchID, receipt.Delivered, receipt.Detail); err != nil {
					logger.WithError(err).
						WithField("dispatch_id", receipt.DispatchID).
						Error("Failed to persist receipt settlement")
				}
			},
		)
		go listener.Run(ctx)
	}

	go func() {
		if err := executors.StartLoop(ctx, eng); err != nil {
			logger.WithError(err).Error("Keeper loop exited")
			stop()
		}
	}()

	if PORT == "" {
		PORT = server.GetConfig().Port
	}

	server.StartServer(PORT, server.Deps{
		Engine:     eng,
		Funds:      eng.Funds(),
		Orders:     orderRepo,
		Dispatches: dispatchRepo,
	})
}

func handlePanic() {
	if r := recover(); r != nil {
		logger.WithError(fmt.Errorf("%+v", r)).Error(fmt.Sprintf("Application %s panic", APP_NAME))
	}
	//nolint
	time.Sleep(time.Second * 5)
}
