package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/connectors"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/engine"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/gateway"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/infra"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/infra/auth"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/journal"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/repository/postgres"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/resilience"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/thresholds"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

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

	if err := run(cfg, logger); err != nil {
		logger.Fatal("gateway failed", zap.Error(err))
	}
}

func run(cfg *infra.Config, logger *zap.Logger) error {
	// Контекст жизненного цикла фоновых горутин; SIGTERM его отменяет
	appCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Инфраструктура
	rdb, err := infra.NewRedisClient(appCtx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	var store *postgres.Store
	if cfg.Database.URL != "" {
		store, err = postgres.NewStore(cfg.Database)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.Ping(appCtx); err != nil {
			return fmt.Errorf("database unreachable: %w", err)
		}
		if cfg.Database.AutoMigrate {
			if err := store.Migrate(appCtx); err != nil {
				return err
			}
		}
	} else {
		logger.Warn("database.url is empty: journal and runtime thresholds are disabled")
	}

	validator, err := auth.ValidatorFromConfig(cfg.Auth)
	if err != nil {
		return err
	}
	if cfg.Auth.Disabled {
		logger.Warn("auth is disabled, every request is accepted")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := engine.NewMetrics(reg)

	// 2. Правила: локаль + границы (конфиг, затем таблица и сигнал консоли)
	loc, err := resilience.LocaleFor(cfg.Engine.Locale)
	if err != nil {
		return err
	}
	defaults := resilience.Thresholds{
		PartialCoverageMinPct: cfg.Engine.PartialCoverageMinPct,
		CacheStaleAfter:       cfg.Engine.CacheStaleAfter,
		MaxRecordsLimit:       cfg.Engine.MaxRecordsLimit,
	}
	var thRepo thresholds.Repository
	if store != nil {
		thRepo = store
	}
	rules := thresholds.NewStore(defaults, loc, thRepo, rdb, logger)
	if err := rules.Refresh(appCtx); err != nil {
		return err
	}
	go rules.StartListener(appCtx)

	clock := resilience.NewTickClock(cfg.Engine.ClockTick, nil)
	go clock.Run(appCtx)

	// 3. Журнал резолюций
	var jl journal.Logger
	if store != nil {
		j := journal.New(store, journal.Options{
			BufferSize:    cfg.Engine.JournalBufferSize,
			BatchSize:     cfg.Engine.JournalBatchSize,
			FlushInterval: cfg.Engine.JournalFlushInterval,
			BufferFill:    metrics.JournalBufferFill,
		}, logger)
		j.Start()
		defer j.Stop()
		jl = j
	}

	// 4. Бэкенд через обертку надежности
	backend, err := connectors.FromConfig(cfg.Backend)
	if err != nil {
		return err
	}
	fetcher := engine.NewReliabilityWrapper(backend, engine.SettingsFromConfig(cfg.Backend), metrics, logger)

	// 5. Отслеживание поисков и уведомления планировщика
	var searchRepo engine.SearchRepository
	if store != nil {
		searchRepo = store
	}
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

	// 6. Ядро
	core := engine.NewCore(engine.CoreDeps{
		Rules:   rules,
		Journal: jl,
		Fetcher: fetcher,
		Tracker: tracker,
		Notices: notices,
		Clock:   clock,
		Metrics: metrics,
	}, logger)

	// 7. HTTP
	opts := gateway.Options{Validator: validator, Breaker: fetcher}
	if cfg.Metrics.Enabled {
		opts.Gatherer = reg
		opts.MetricsPath = cfg.Metrics.Path
	}
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      gateway.NewServer(core, opts, logger),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 2)
	go func() {
		logger.Info("gateway HTTP started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	// 8. gRPC
	var grpcSrv *grpc.Server
	if cfg.GRPC.Port > 0 {
		lis, err := net.Listen("tcp", fmt.Sprintf(":%d", cfg.GRPC.Port))
		if err != nil {
			return fmt.Errorf("grpc listen: %w", err)
		}
		grpcSrv = grpc.NewServer(grpc.UnaryInterceptor(engine.UnaryAuthInterceptor(validator, logger)))
		engine.RegisterStateResolverServer(grpcSrv, engine.NewGRPCStateServer(core))
		go func() {
			logger.Info("gateway gRPC started", zap.Int("port", cfg.GRPC.Port))
			if err := grpcSrv.Serve(lis); err != nil {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
	}

	// 9. Graceful Shutdown
	select {
	case <-appCtx.Done():
	case err := <-errCh:
		logger.Error("server failed, shutting down", zap.Error(err))
	}
	logger.Info("gateway stopping...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown failed", zap.Error(err))
	}
	if grpcSrv != nil {
		grpcSrv.GracefulStop()
	}
	logger.Info("gateway exited properly")
	return nil
}
