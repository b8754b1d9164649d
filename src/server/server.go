package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	logger "github.com/sirupsen/logrus"

	"crosstrader/src/engine"
	"crosstrader/src/handler"
	"crosstrader/src/repository"
	"crosstrader/src/treasury"
)

// Deps carries everything the HTTP surface needs. The engine serves live
// state and mutations, the repositories serve the persisted audit trail.
type Deps struct {
	Engine     *engine.Engine
	Funds      *treasury.Treasury
	Orders     *repository.OrderRepository
	Dispatches *repository.DispatchRepository
}

func newRouter(deps Deps) *chi.Mux {
	r := chi.NewRouter()

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error(" \"/health error")
		}
	})

	// Read-only routes
	r.Get("/v1/orders", handler.SearchOrdersHandler(deps.Orders))
	r.Get("/v1/orders/active", handler.ActiveOrdersHandler(deps.Engine))
	r.Get("/v1/orders/{orderID}", handler.GetOrderHandler(deps.Engine))
	r.Get("/v1/orders/{orderID}/dispatches", handler.DispatchLedgerHandler(deps.Dispatches))
	r.Get("/v1/orders/{orderID}/evaluate", handler.EvaluateOrderHandler(deps.Engine))
	r.Get("/v1/treasury/balance", handler.BalanceHandler(deps.Funds))
	r.Get("/v1/upkeep/runs", handler.UpkeepRunsHandler(deps.Dispatches))

	// Operator routes
	r.Group(func(r chi.Router) {
		r.Use(handler.RequireOperator(deps.Engine.Owner()))

		r.Post("/v1/orders/timed", handler.CreateTimedOrderHandler(deps.Engine))
		r.Post("/v1/orders/price", handler.CreatePriceOrderHandler(deps.Engine))
		r.Post("/v1/orders/balance", handler.CreateBalanceOrderHandler(deps.Engine))
		r.Post("/v1/orders/{orderID}/cancel", handler.CancelOrderHandler(deps.Engine))
		r.Post("/v1/orders/{orderID}/pause", handler.PauseOrderHandler(deps.Engine))

		r.Post("/v1/admin/chains", handler.SetChainAllowedHandler(deps.Engine))
		r.Post("/v1/admin/tokens", handler.SetTokenAllowedHandler(deps.Engine))
		r.Post("/v1/admin/feeds", handler.SetFeedAllowedHandler(deps.Engine))
		r.Post("/v1/admin/forwarder", handler.SetForwarderHandler(deps.Engine))
		r.Post("/v1/admin/max-price-age", handler.SetMaxPriceAgeHandler(deps.Engine))
		r.Post("/v1/admin/extra-data", handler.SetExtraDataHandler(deps.Engine))

		r.Post("/v1/treasury/deposit", handler.DepositHandler(deps.Funds))
		r.Post("/v1/treasury/withdraw", handler.WithdrawHandler(deps.Engine))
	})

	return r
}

func StartServer(port string, deps Deps) {
	r := newRouter(deps)

	// Graceful server
	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server crashed")
		}
	}()

	// Shutdown on SIGINT or SIGTERM
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down gracefully...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Shutdown error")
	}
}
