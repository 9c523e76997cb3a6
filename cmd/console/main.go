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
	"time"

	"github.com/tjsasakifln/PNCP-poc-sub007/internal/console/handler"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/console/server"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/console/service"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/infra"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/infra/auth"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/repository/postgres"
	"github.com/tjsasakifln/PNCP-poc-sub007/internal/resilience"
	"go.uber.org/zap"
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
		logger.Fatal("console failed", zap.Error(err))
	}
}

func run(cfg *infra.Config, logger *zap.Logger) error {
	appCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 1. Инициализация ресурсов: консоли без БД делать нечего
	if cfg.Database.URL == "" {
		return errors.New("database.url is required")
	}
	store, err := postgres.NewStore(cfg.Database)
	if err != nil {
		return err
	}
	defer store.Close()

	pingCtx, cancel := context.WithTimeout(appCtx, 5*time.Second)
	err = store.Ping(pingCtx)
	cancel()
	if err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := store.Migrate(appCtx); err != nil {
			return err
		}
	}

	rdb, err := infra.NewRedisClient(appCtx, cfg.Redis)
	if err != nil {
		return err
	}
	defer rdb.Close()

	validator, err := auth.ValidatorFromConfig(cfg.Auth)
	if err != nil {
		return err
	}

	// 2. Слои (Dependency Injection)
	defaults := resilience.Thresholds{
		PartialCoverageMinPct: cfg.Engine.PartialCoverageMinPct,
		CacheStaleAfter:       cfg.Engine.CacheStaleAfter,
		MaxRecordsLimit:       cfg.Engine.MaxRecordsLimit,
	}
	thresholdH := handler.NewThresholdHandler(service.NewThresholdService(store, rdb, defaults))
	journalH := handler.NewJournalHandler(service.NewJournalService(store))

	// 3. Запуск сервера
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.ConsolePort),
		Handler:      server.NewConsoleServer(logger, validator, thresholdH, journalH),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("console API started", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-appCtx.Done():
	case err := <-errCh:
		return fmt.Errorf("http: %w", err)
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	return srv.Shutdown(shutdownCtx)
}
