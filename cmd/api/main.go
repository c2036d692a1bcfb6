package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/punchamoorthee/ledgerbook/internal/analysis"
	"github.com/punchamoorthee/ledgerbook/internal/api"
	"github.com/punchamoorthee/ledgerbook/internal/config"
	"github.com/punchamoorthee/ledgerbook/internal/events"
	"github.com/punchamoorthee/ledgerbook/internal/logger"
	"github.com/punchamoorthee/ledgerbook/internal/service"
	"github.com/punchamoorthee/ledgerbook/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logg, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	if err := run(cfg, logg); err != nil {
		logg.Error("Server failed", zap.Error(err))
		logg.Sync()
		os.Exit(1)
	}
	logg.Sync()
}

// run owns every resource of the server, so its defers complete before main exits.
func run(cfg *config.Config, logg *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := store.NewStore(ctx, cfg.DBSource, cfg.DBMaxConns, logg)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}

	// Initialize Layers
	users := store.NewUserRepository(db)
	accounts := store.NewAccountRepository(db)
	txns := store.NewTransactionRepository(db)
	idem := store.NewIdempotencyRepository(db)
	analyses := store.NewAnalysisRepository(db)
	notes := store.NewNotificationRepository(db)

	notificationService := service.NewNotificationService(notes, logg)
	analyzer := analysis.NewAnalyzer(users, txns, analyses, events.NewLocalPublisher(notificationService, logg), logg)

	handler := api.NewHandler(api.Services{
		Ledger:        service.NewLedgerService(accounts, txns, idem, db, logg),
		Accounts:      service.NewAccountService(users, accounts, txns, logg),
		Users:         service.NewUserService(users, logg),
		Notifications: notificationService,
		Analyses:      analyzer,
		DB:            db,
	}, logg)

	var consumer *events.Consumer
	if cfg.RabbitMQ.URL != "" {
		consumer, err = events.NewConsumer(cfg.RabbitMQ, notificationService, logg)
		if err != nil {
			return fmt.Errorf("create RabbitMQ consumer: %w", err)
		}
		defer consumer.Close()
	} else {
		logg.Info("RABBITMQ_URL not set, analysis events are delivered in process")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}

	var (
		wg      sync.WaitGroup
		errOnce sync.Once
		runErr  error
	)
	fail := func(err error) {
		errOnce.Do(func() { runErr = err })
		cancel()
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		logg.Info("Server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fail(fmt.Errorf("http server: %w", err))
		}
	}()

	if consumer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := consumer.Start(ctx); err != nil {
				fail(fmt.Errorf("rabbitmq consumer: %w", err))
			}
		}()
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		logg.Info("Received signal, initiating shutdown", zap.String("signal", sig.String()))
	case <-ctx.Done():
		logg.Info("Context cancelled, initiating shutdown")
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Warn("HTTP server shutdown", zap.Error(err))
	}

	wg.Wait()
	if runErr != nil {
		return runErr
	}
	logg.Info("Server stopped gracefully")
	return nil
}
