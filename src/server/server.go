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
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	logger "github.com/sirupsen/logrus"

	"ordergateway/src/connectors"
	"ordergateway/src/controller"
	"ordergateway/src/database"
	"ordergateway/src/gateway"
	"ordergateway/src/handler"
	"ordergateway/src/ledger"
	"ordergateway/src/model"
	"ordergateway/src/notifier"
	"ordergateway/src/repository"
	"ordergateway/src/tracker"
)

type statusSource interface {
	SubscribeOrderStatus(ctx context.Context) <-chan model.OrderStatusEvent
}

// StartServer wires the full execution pipeline and serves it until
// SIGINT or SIGTERM.
func StartServer(port string) {
	gatewayCfg := gateway.GetConfig()
	venueCfg := connectors.GetConfig()

	venue, events := venueFor(venueCfg)

	sinks := []ledger.TradeLedger{ledger.NewCSV(gatewayCfg.TradeLogFile)}
	if database.MainDB != nil {
		sinks = append(sinks, repository.NewTradeLogRepository())
	}
	tradeLedger := ledger.NewMulti(sinks...)

	orderTracker := tracker.New()

	manager := controller.NewBracketOrderManager(
		venue,
		orderTracker,
		tradeLedger,
		notifier.FromConfig(notifier.GetConfig()),
		controller.RiskFractionSafe(gatewayCfg.RiskPercent),
		decimal.NewFromFloat(gatewayCfg.AccountSize),
		venueCfg.VenueTimeout,
	)

	signalGateway := gateway.New(gatewayCfg)

	// The status listener runs for the lifetime of the process,
	// independent of per-request venue sessions.
	listenerCtx, stopListener := context.WithCancel(context.Background())
	defer stopListener()

	listener := controller.NewStatusListener(orderTracker, tradeLedger)
	go listener.Run(listenerCtx, events.SubscribeOrderStatus(listenerCtx))

	// Router with middleware
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(RequestLogger)

	// Public routes
	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			logger.WithError(err).Error("\"/healthcheck\" error")
		}
	})

	r.Post("/webhook", handler.WebhookHandler(signalGateway, manager))

	// Graceful server
	addr := ":" + port
	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		logger.Infof("Listening on %s (venue mode: %s)", addr, venueCfg.VenueMode)
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

// venueFor selects the execution venue implementation. Anything but
// "rest" falls back to the in-process paper venue, so a misconfigured
// box dry-runs instead of trading live.
func venueFor(cfg connectors.Config) (controller.ExecutionVenue, statusSource) {
	switch cfg.VenueMode {
	case "rest":
		c := connectors.NewVenueConnector(cfg)
		return c, c
	default:
		if cfg.VenueMode != "paper" {
			logger.WithField("venue_mode", cfg.VenueMode).
				Warn("unknown venue mode, using paper venue")
		}
		c := connectors.NewPaperConnector(cfg)
		return c, c
	}
}
