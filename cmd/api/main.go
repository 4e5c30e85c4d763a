package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kortovik/internal/api"
	"kortovik/internal/config"
	"kortovik/internal/database"
	"kortovik/internal/domain"
	"kortovik/internal/events"
	"kortovik/internal/export"
	"kortovik/internal/logging"
	"kortovik/internal/metrics"
	"kortovik/internal/models"
	"kortovik/internal/repository"
	"kortovik/internal/service"
	"kortovik/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, logger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	courts, err := loadCourts(logger)
	if err != nil {
		return err
	}

	db, err := initDatabase(cfg, courts, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	loc, err := time.LoadLocation(cfg.Booking.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Booking.Timezone, err)
	}

	redisClient := initRedis(cfg, logger)
	defer repository.Close(redisClient)

	cacheTTL := models.DaySlotsCacheTTL * time.Second
	memCache := repository.NewMemorySlotCache(cacheTTL)
	var slotCache domain.SlotCache = memCache
	if redisClient != nil {
		slotCache = repository.NewFailoverSlotCache(
			repository.NewRedisSlotCache(redisClient, cacheTTL),
			memCache,
			logger,
		)
	}

	eventBus := events.NewEventBus()

	policy := service.NewPolicy(loc, cfg.Booking.CancellationNoticeHours)
	allocator := service.NewAllocator(db, policy, cfg.Booking.DepositRate)

	registerWriter := export.NewRegisterWriter(logger)
	reportWorker := worker.NewReportWorker(db, registerWriter, redisClient, worker.RetryPolicy{}, cfg.Exports.Path, logger)

	bookingService := service.NewBookingService(db, allocator, policy, eventBus, reportWorker, slotCache, logger)
	courtService := service.NewCourtService(db, slotCache, eventBus, loc, logger)

	reportWorker.SetSweeper(bookingService)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go reportWorker.Start(ctx)

	if cfg.Backup.Enabled {
		backupService := database.NewBackupService(cfg.Database.Path, cfg.Backup, logger)
		go backupService.Start(ctx)
	}

	startMetrics(ctx, cfg, logger)

	httpServer := api.NewHTTPServer(cfg.API, bookingService, courtService, db, slotCache, logger)
	return serve(ctx, httpServer, cfg, logger)
}

func loadConfigAndLogger() (*config.Config, *zerolog.Logger, io.Closer, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	baseLogger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}
	logger := baseLogger.With().Str("component", "api-main").Logger()

	return cfg, &logger, closer, nil
}

// loadCourts читает каталог площадок. Каталог статичен на время работы
// процесса, изменения подхватываются перезапуском.
func loadCourts(logger *zerolog.Logger) ([]models.Court, error) {
	courtsPath := os.Getenv("COURTS_PATH")
	if courtsPath == "" {
		courtsPath = "configs/courts.yaml"
	}
	data, err := os.ReadFile(courtsPath)
	if err != nil {
		logger.Error().Err(err).Str("courts_path", courtsPath).Msg("read courts")
		return nil, err
	}

	var courtsConfig struct {
		Courts []models.Court `yaml:"courts"`
	}
	if err := yaml.Unmarshal(data, &courtsConfig); err != nil {
		logger.Error().Err(err).Str("courts_path", courtsPath).Msg("parse courts")
		return nil, err
	}

	if err := config.ValidateCourts(courtsConfig.Courts); err != nil {
		return nil, fmt.Errorf("validate courts: %w", err)
	}

	return courtsConfig.Courts, nil
}

func initRedis(cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(context.Background(), redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing without redis")
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initDatabase(cfg *config.Config, courts []models.Court, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	db.SetCourts(courts)
	logger.Info().Int("courts", len(courts)).Msg("court catalog loaded")
	return db, nil
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	port := cfg.Monitoring.PrometheusPort
	if port == 0 {
		port = 9090
	}
	go startMetricsServer(ctx, port, logger)
}

func serve(ctx context.Context, httpServer *api.HTTPServer, cfg *config.Config, logger *zerolog.Logger) error {
	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Msg("booking API started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("booking API stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux}
	go func() {
		<-ctx.Done()
		ctxShutdown, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctxShutdown)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error().Err(err).Msg("metrics server error")
	}
}
