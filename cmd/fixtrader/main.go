package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/efreitasn/fixtrader/internal/config"
	"github.com/efreitasn/fixtrader/internal/engine"
	"github.com/efreitasn/fixtrader/internal/handler"
	"github.com/efreitasn/fixtrader/internal/protocol"
	"github.com/efreitasn/fixtrader/internal/service"
	"github.com/efreitasn/fixtrader/internal/sim"
	"github.com/efreitasn/fixtrader/internal/store"
)

// simSessionID names the session established with the in-process
// counterparty.
const simSessionID = "FIXTRADER->SIM"

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil {
			os.Exit(1)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// Load configuration. Malformed settings are fatal before any
	// loop starts.
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	// Stores shared between the inbound callback path and the
	// generation loops.
	book := store.NewOrderBook()
	ledger := store.NewTradeLedger()

	// Reconciliation pipeline: the dispatcher feeds fills through the
	// execution-report handler into the stores, then statistics are
	// recomputed and published to the log sink.
	stats := engine.NewStatisticsEngine()
	sink := service.NewStatsLogger(logger)
	execReports := engine.NewExecutionReportHandler(book, ledger, stats, sink)
	dispatcher := engine.NewMessageDispatcher(execReports, logger)

	// The protocol engine collaborator: a session manager fed by
	// lifecycle callbacks, addressing the simulated counterparty.
	sessions := protocol.NewSessionManager(logger)
	exchange := sim.NewExchange(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exchange.Start(ctx, dispatcher.Dispatch)
	sessions.SessionCreated(simSessionID)
	sessions.Logon(simSessionID, exchange)

	// Order flow.
	ids := engine.NewIDSequence()
	clock := engine.RealClock{}
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	generator := engine.NewOrderFlowGenerator(engine.GeneratorConfig{
		MaxOrders:   cfg.MaxOrders,
		TimeBudget:  cfg.OrderPhaseBudget,
		MinInterval: cfg.MinOrderInterval,
		MaxInterval: cfg.MaxOrderInterval,
	}, ids, book, sessions, rng, clock, logger)

	canceller := engine.NewOrderCanceller(engine.CancellerConfig{
		TimeBudget:  cfg.CancelPhaseBudget,
		MinInterval: cfg.MinOrderInterval,
		MaxInterval: cfg.MaxOrderInterval,
	}, ids, book, sessions, rand.New(rand.NewSource(time.Now().UnixNano()+1)), clock, logger)

	// Control surface.
	tradingSvc := service.NewTradingService(ids, book, ledger, stats, generator, sessions, clock)
	router := handler.NewRouter(tradingSvc, logger)

	// Phases: generate, then cancel, then hand over to the
	// interactive prompt.
	go func() {
		logger.Info("order generation phase starting",
			slog.Int("max_orders", cfg.MaxOrders),
			slog.Duration("budget", cfg.OrderPhaseBudget),
		)
		generator.Run(ctx)

		logger.Info("order cancellation phase starting",
			slog.Duration("budget", cfg.CancelPhaseBudget),
		)
		canceller.Run(ctx)

		logger.Info("interactive phase: 1 places an order, 2 exits")
	}()

	// Interactive trigger on stdin: "1" places one ad-hoc random
	// order, "2" terminates.
	quit := make(chan struct{})
	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			switch scanner.Text() {
			case "1":
				if _, err := tradingSvc.SubmitRandomOrder(); err != nil {
					logger.Error("manual order failed", slog.String("error", err.Error()))
				}
			case "2":
				close(quit)
				return
			default:
				logger.Info("valid input is 1 for order, 2 for exit")
			}
		}
	}()

	// Configure HTTP server.
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("control server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("control server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM or the interactive exit.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
	case <-quit:
		logger.Info("exit requested")
	}

	// Graceful shutdown: stop the HTTP server, cancel the context
	// (stops the sim delivery pump and any running phase).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("control server shutdown error", slog.String("error", err.Error()))
	}
	cancel()
	sessions.Logout(simSessionID)

	logger.Info("stopped")
}
