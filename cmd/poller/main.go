package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/connectors"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/engine"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/infra"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/repository/postgres"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/resilience"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/thresholds"
	"go.uber.org/zap"
)

// Планировщик: перечитывает отслеживаемые поиски и публикует уведомления об обновлениях.
// Можно запускать несколько копий, тик выполняет только одна.
func main() {
	cfg, err := infra.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := infra.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger.Named("poller")); err != nil {
		logger.Fatal("poller failed", zap.Error(err))
	}
}

func run(cfg *infra.Config, logger *zap.Logger) error {
	appCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Инфраструктура
	rdb, err := infra.NewRedisClient(appCtx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	var (
		searchRepo engine.SearchRepository
		thRepo     thresholds.Repository
	)
	if cfg.Database.URL != "" {
		store, err := postgres.NewStore(cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Ping(appCtx); err != nil {
			return fmt.Errorf("database unreachable: %w", err)
		}
		searchRepo, thRepo = store, store
	}

	reg := prometheus.NewRegistry()
	metrics := engine.NewMetrics(reg)

	// 2. Правила для текста сводки
	loc, err := resilience.LocaleFor(cfg.Engine.Locale)
	if err != nil {
		return err
	}
	rules := thresholds.NewStore(resilience.Thresholds{
		PartialCoverageMinPct: cfg.Engine.PartialCoverageMinPct,
		CacheStaleAfter:       cfg.Engine.CacheStaleAfter,
		MaxRecordsLimit:       cfg.Engine.MaxRecordsLimit,
	}, loc, thRepo, rdb, logger)
	if err := rules.Refresh(appCtx); err != nil {
		return err
	}
	go rules.StartListener(appCtx)

	// 3. Что опрашивать и куда складывать
	tracker := engine.NewTracker(rdb, searchRepo, cfg.Poller.TrackWindow, metrics, logger)
	if err := tracker.Init(appCtx); err != nil {
		return err
	}
	go tracker.StartListener(appCtx)

	notices := engine.NewNoticeBoard(rdb, metrics, logger)
	if err := notices.Init(appCtx); err != nil {
		return err
	}
	go notices.StartListener(appCtx)

	backend, err := connectors.FromConfig(cfg.Backend)
	if err != nil {
		return err
	}
	fetcher := engine.NewReliabilityWrapper(backend, engine.SettingsFromConfig(cfg.Backend), metrics, logger)

	// 4. Метрики планировщика
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle(cfg.Metrics.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Poller.MetricsPort), Handler: mux}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer srv.Close()
	}

	// 5. Цикл до SIGTERM
	clock := resilience.NewTickClock(cfg.Engine.ClockTick, nil)
	go clock.Run(appCtx)

	poller := engine.NewRefreshPoller(tracker, fetcher, notices, rules, clock, rdb, engine.PollerConfig{
		Interval:    cfg.Poller.Interval,
		Concurrency: cfg.Poller.Concurrency,
	}, metrics, logger)

	logger.Info("poller started", zap.Duration("interval", cfg.Poller.Interval))
	poller.Run(appCtx)
	logger.Info("poller exited properly")
	return nil
}
