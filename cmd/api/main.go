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

	"payandpark/internal/api"
	"payandpark/internal/config"
	"payandpark/internal/database"
	"payandpark/internal/domain"
	"payandpark/internal/events"
	"payandpark/internal/logging"
	"payandpark/internal/metrics"
	"payandpark/internal/models"
	"payandpark/internal/repository"
	"payandpark/internal/service"
	"payandpark/internal/worker"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v2"
)

type seedFile struct {
	ParkingSlots []models.ParkingSlot `yaml:"parking_slots"`
	Charges      []models.Charge      `yaml:"charges"`
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	cfg, baseLogger, closer, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	if closer != nil {
		defer (func() { _ = closer.Close() })()
	}
	logger := logging.Component(baseLogger, "api-main")

	seed, err := loadSeed(logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := initDatabase(ctx, cfg, seed, logging.Component(baseLogger, "database"))
	if err != nil {
		return err
	}
	defer db.Close()

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer (func() { _ = repository.Close(redisClient) })()
	}
	locker := initLocker(cfg, redisClient, logging.Component(baseLogger, "locker"))

	eventsLogger := logging.Component(baseLogger, "events")
	bus := events.NewEventBus(eventsLogger)
	subscribeEventLog(bus, eventsLogger)

	slotService := service.NewParkingSlotService(db, logging.Component(baseLogger, "slots"))
	chargingService := service.NewChargingService(db)
	bookingService := service.NewBookingService(
		db,
		slotService,
		chargingService,
		locker,
		bus,
		cfg.Billing.MinBookingMinutes,
		logging.Component(baseLogger, "bookings"),
	)

	grpcServer, err := api.NewGRPCServer(&cfg.API, logging.Component(baseLogger, "grpc"))
	if err != nil {
		logger.Error().Err(err).Msg("create grpc server")
		return err
	}

	httpServer := api.NewHTTPServer(&cfg.API, bookingService, slotService, db, logging.Component(baseLogger, "http"))

	startMetrics(ctx, cfg, logger)

	job := startOccupancy(ctx, cfg, slotService, db, grpcServer, logging.Component(baseLogger, "occupancy"))
	if job != nil {
		defer job.Stop()
	}

	return startServers(ctx, grpcServer, httpServer, cfg, logger)
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

	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("init logger: %w", err)
	}

	return cfg, logger, closer, nil
}

func loadSeed(logger *zerolog.Logger) (*seedFile, error) {
	seedPath := os.Getenv("SEED_PATH")
	if seedPath == "" {
		seedPath = "configs/seed.yaml"
	}
	data, err := os.ReadFile(seedPath)
	if err != nil {
		if os.IsNotExist(err) {
			logger.Warn().Str("seed_path", seedPath).Msg("seed file not found, starting with existing data")
			return &seedFile{}, nil
		}
		logger.Error().Err(err).Str("seed_path", seedPath).Msg("read seed")
		return nil, err
	}

	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		logger.Error().Err(err).Str("seed_path", seedPath).Msg("parse seed")
		return nil, err
	}
	return &seed, nil
}

func initDatabase(ctx context.Context, cfg *config.Config, seed *seedFile, logger *zerolog.Logger) (*database.DB, error) {
	db, err := database.NewDB(cfg.Database.Path, logger)
	if err != nil {
		logger.Error().Err(err).Str("db_path", cfg.Database.Path).Msg("init database")
		return nil, err
	}

	if err := db.SyncSeed(ctx, seed.ParkingSlots, seed.Charges); err != nil {
		_ = db.Close()
		logger.Error().Err(err).Msg("sync seed")
		return nil, err
	}
	return db, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("redis connection failed, continuing with in-process slot locks")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("redis connected")
	return redisClient
}

func initLocker(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.SlotLocker {
	wait := time.Duration(cfg.Locking.WaitMillis) * time.Millisecond
	memory := repository.NewMemorySlotLocker(wait)
	if redisClient == nil {
		return memory
	}

	ttl := time.Duration(cfg.Locking.TTLSeconds) * time.Second
	return repository.NewFailoverSlotLocker(repository.NewRedisSlotLocker(redisClient, ttl, wait), memory, logger)
}

func subscribeEventLog(bus *events.EventBus, logger *zerolog.Logger) {
	handler := func(event *events.Event) error {
		logger.Info().
			Str("event", event.Type).
			RawJSON("payload", event.Payload).
			Msg("booking event")
		return nil
	}
	bus.Subscribe(events.EventBookingCreated, handler)
	bus.Subscribe(events.EventBookingEnded, handler)
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

func startOccupancy(
	ctx context.Context,
	cfg *config.Config,
	counter worker.SlotCounter,
	db *database.DB,
	grpcServer *api.GRPCServer,
	logger *zerolog.Logger,
) *worker.OccupancyJob {
	if !cfg.Occupancy.Enabled {
		grpcServer.SetHealthy(db.PingContext(ctx) == nil)
		return nil
	}

	job := worker.NewOccupancyJob(counter, db, cfg.Occupancy.Schedule, logger)
	job.OnHealth(grpcServer.SetHealthy)
	if err := job.Start(ctx); err != nil {
		logger.Error().Err(err).Str("schedule", cfg.Occupancy.Schedule).Msg("occupancy job not started")
		grpcServer.SetHealthy(db.PingContext(ctx) == nil)
		return nil
	}
	return job
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	go func() {
		if !cfg.API.GRPC.Enabled {
			return
		}
		if err := grpcServer.Serve(); err != nil {
			logger.Error().Err(err).Msg("grpc server stopped")
		}
	}()

	go func() {
		if !cfg.API.HTTP.Enabled {
			return
		}
		if err := httpServer.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	logger.Info().Str("grpc_addr", grpcServer.Addr()).Int("http_port", cfg.API.HTTP.Port).Msg("API server started")

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	grpcServer.Shutdown(shutdownCtx)
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return nil
}

func startMetricsServer(ctx context.Context, port int, logger *zerolog.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{Addr: fmt.Sprintf(":%d", port), Handler: mux, ReadHeaderTimeout: 5 * time.Second}
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
