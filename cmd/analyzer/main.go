package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/punchamoorthee/ledgerbook/internal/analysis"
	"github.com/punchamoorthee/ledgerbook/internal/config"
	"github.com/punchamoorthee/ledgerbook/internal/domain"
	"github.com/punchamoorthee/ledgerbook/internal/events"
	"github.com/punchamoorthee/ledgerbook/internal/logger"
	"github.com/punchamoorthee/ledgerbook/internal/service"
	"github.com/punchamoorthee/ledgerbook/internal/store"
)

var (
	period string
	every  time.Duration
)

func init() {
	flag.StringVar(&period, "period", "weekly", "Analysis period: weekly | monthly")
	flag.DurationVar(&every, "every", 0, "Repeat the run at this interval (0 runs once)")
}

func main() {
	flag.Parse()

	kind := domain.AnalysisType(strings.ToUpper(period))
	if !kind.Valid() {
		log.Fatalf("Unknown period %q, use weekly or monthly", period)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	logg, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	ok, err := run(cfg, logg, kind)
	if err != nil {
		logg.Error("Analyzer failed", zap.Error(err))
	}
	logg.Sync()
	if err != nil || !ok {
		os.Exit(1)
	}
}

// run reports whether the last analysis pass finished without per-user failures.
func run(cfg *config.Config, logg *zap.Logger, kind domain.AnalysisType) (bool, error) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.NewStore(ctx, cfg.DBSource, cfg.DBMaxConns, logg)
	if err != nil {
		return false, fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	var publisher analysis.Publisher
	if cfg.RabbitMQ.URL != "" {
		p, err := events.NewRabbitMQPublisher(cfg.RabbitMQ, logg)
		if err != nil {
			return false, fmt.Errorf("create RabbitMQ publisher: %w", err)
		}
		defer p.Close()
		publisher = p
	} else {
		notifications := service.NewNotificationService(store.NewNotificationRepository(db), logg)
		publisher = events.NewLocalPublisher(notifications, logg)
	}

	analyzer := analysis.NewAnalyzer(
		store.NewUserRepository(db),
		store.NewTransactionRepository(db),
		store.NewAnalysisRepository(db),
		publisher,
		logg,
	)

	pass := func() bool {
		report, err := analyzer.Run(ctx, kind)
		if err != nil {
			logg.Error("Analysis run failed", zap.Error(err))
			return false
		}
		return report.Failed == 0
	}

	if every <= 0 {
		return pass(), nil
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()
	pass()
	for {
		select {
		case <-ctx.Done():
			logg.Info("Analyzer stopped")
			return true, nil
		case <-ticker.C:
			pass()
		}
	}
}
