package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"playcafe/internal/api"
	"playcafe/internal/auth"
	"playcafe/internal/config"
	"playcafe/internal/database"
	"playcafe/internal/domain"
	"playcafe/internal/events"
	"playcafe/internal/google"
	"playcafe/internal/live"
	"playcafe/internal/logging"
	"playcafe/internal/metrics"
	"playcafe/internal/notify"
	"playcafe/internal/repository"
	"playcafe/internal/service"
	"playcafe/internal/storage"
	"playcafe/internal/timefmt"
	"playcafe/internal/worker"

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
		defer (func() { _ = closer.Close() })()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database, logging.Component(logger, "database"))
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Database.Driver).Msg("Init database")
		return err
	}
	defer db.Close()

	loc := cfg.App.Location()
	var clock timefmt.Clock = func() time.Time { return time.Now().In(loc) }

	redisClient := initRedis(ctx, cfg, logger)
	if redisClient != nil {
		defer repository.Close(redisClient)
	}

	sessions := initSessions(cfg, redisClient, logger)
	manager := auth.NewManager(
		auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, cfg.Auth.Issuer),
		sessions,
		logging.Component(logger, "auth"),
	)

	bus := events.NewEventBus()
	hub := events.NewHub(bus, logging.Component(logger, "hub"))
	if forwarder := initAMQP(cfg, logger); forwarder != nil {
		forwarder.Attach(bus)
		defer forwarder.Close()
	}
	if syncWorker := initSheetsSync(ctx, cfg, db, redisClient, logger); syncWorker != nil {
		syncWorker.Attach(bus)
		go syncWorker.Start(ctx)
	}

	objects, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		logger.Error().Err(err).Str("driver", cfg.Storage.Driver).Msg("Init object storage")
		return err
	}

	sweeper := worker.NewSweeper(db, hub, cfg.Sweep.Interval, clock, logging.Component(logger, "sweeper"))
	if cfg.Sweep.Enabled {
		go sweeper.Run(ctx)
	}
	if cfg.Backup.Enabled && cfg.Database.Driver == config.DriverSQLite {
		backup := database.NewBackupService(db, cfg.Backup, logging.Component(logger, "backup"))
		go backup.Start(ctx)
	}

	views := live.NewRegistry(ctx, db, hub, live.Options{
		RefreshInterval: cfg.Live.RefreshInterval,
		LookbackDays:    cfg.Live.LookbackDays,
		IdleTimeout:     cfg.Live.IdleTimeout,
		Clock:           clock,
	}, logging.Component(logger, "live"))

	owners := service.NewOwnerService(db, manager, logging.Component(logger, "owners"))
	if err := seedOwners(ctx, cfg, owners, logger); err != nil {
		return err
	}

	svc := api.Services{
		Owners:      owners,
		Cafes:       service.NewCafeService(db, objects, logging.Component(logger, "cafes")),
		Bookings:    service.NewBookingService(db, hub, initNotifier(cfg, logger), clock, logging.Component(logger, "bookings")),
		Pricing:     service.NewPricingService(db, logging.Component(logger, "pricing")),
		Memberships: service.NewMembershipService(db, logging.Component(logger, "memberships")),
		Dashboard:   service.NewDashboardService(db, views, sweeper, clock, logging.Component(logger, "dashboard")),
		Hub:         hub,
		Health:      db,
	}
	if local, ok := objects.(*storage.LocalStore); ok {
		svc.UploadsDir = local.Dir()
	}
	httpServer := api.NewHTTPServer(cfg.API, svc, logger)

	var grpcServer *api.GRPCServer
	if cfg.API.GRPC.Enabled {
		if grpcServer, err = api.NewGRPCServer(&cfg.API, db, logger); err != nil {
			logger.Error().Err(err).Msg("Create grpc server")
			return err
		}
		go grpcServer.Watch(ctx)
	}

	startMetrics(ctx, cfg, logger)

	err = startServers(ctx, grpcServer, httpServer, cfg, logger)
	// a server failure leaves ctx live; the views stop only when it ends
	stop()
	views.Wait()
	return err
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
	return cfg, baseLogger, closer, nil
}

func initRedis(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) *redis.Client {
	if cfg.Redis.Address == "" {
		return nil
	}

	redisClient := repository.NewRedisClient(cfg.Redis)
	if err := repository.Ping(ctx, redisClient); err != nil {
		logger.Warn().Err(err).Msg("Redis connection failed, continuing without redis")
		_ = redisClient.Close()
		return nil
	}

	logger.Info().Str("addr", cfg.Redis.Address).Msg("Redis connected")
	return redisClient
}

// initSessions prefers Redis and falls back to process memory while it is down.
func initSessions(cfg *config.Config, redisClient *redis.Client, logger *zerolog.Logger) domain.SessionRepository {
	memory := repository.NewMemorySessionRepository(cfg.Auth.SessionTTL)
	if redisClient == nil {
		logger.Warn().Msg("Sessions are kept in memory and will not survive a restart")
		return memory
	}
	primary := repository.NewRedisSessionRepository(redisClient, cfg.Auth.SessionTTL)
	return repository.NewFailoverSessionRepository(primary, memory, logging.Component(logger, "sessions"))
}

func initAMQP(cfg *config.Config, logger *zerolog.Logger) *events.AMQPForwarder {
	if cfg.AMQP.URL == "" {
		return nil
	}
	forwarder, err := events.NewAMQPForwarder(cfg.AMQP.URL, cfg.AMQP.Exchange, logging.Component(logger, "amqp"))
	if err != nil {
		logger.Warn().Err(err).Msg("Amqp init failed, continuing without event forwarding")
		return nil
	}
	logger.Info().Str("exchange", cfg.AMQP.Exchange).Msg("Amqp connected")
	return forwarder
}

func initSheetsSync(ctx context.Context, cfg *config.Config, db *database.DB, redisClient *redis.Client, logger *zerolog.Logger) *worker.SyncWorker {
	if cfg.Google.GoogleCredentialsFile == "" || cfg.Google.BookingSpreadSheetID == "" {
		return nil
	}

	sheetsLogger := logging.Component(logger, "sheets")
	sheetsService, err := google.NewSheetsService(ctx, cfg.Google.GoogleCredentialsFile, cfg.Google.BookingSpreadSheetID, sheetsLogger)
	if err != nil {
		logger.Warn().Err(err).Msg("Google sheets init failed, continuing without sheets")
		return nil
	}
	if err := sheetsService.TestConnection(ctx); err != nil {
		logger.Warn().Err(err).Msg("Google sheets unreachable, continuing without sheets")
		return nil
	}
	go sheetsService.RunCacheRefresh(ctx, 30*time.Minute)

	logger.Info().Msg("Google sheets connected")
	return worker.NewSyncWorker(db, sheetsService, redisClient, worker.RetryPolicy{}, logging.Component(logger, "sync"))
}

func initNotifier(cfg *config.Config, logger *zerolog.Logger) domain.Notifier {
	if cfg.Telegram.BotToken == "" {
		return nil
	}
	notifier, err := notify.NewTelegramNotifier(cfg.Telegram, logging.Component(logger, "telegram"))
	if err != nil {
		logger.Warn().Err(err).Msg("Telegram init failed, continuing without notifications")
		return nil
	}
	return notifier
}

// seedOwners applies the owner accounts listed in the seed file, if any.
func seedOwners(ctx context.Context, cfg *config.Config, owners *service.OwnerService, logger *zerolog.Logger) error {
	path := cfg.Seed.OwnersFile
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Warn().Str("owners_file", path).Msg("Owner seed file not found")
			return nil
		}
		return fmt.Errorf("read owners file: %w", err)
	}

	var seed struct {
		Owners []service.SeedOwner `yaml:"owners"`
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &seed); err != nil {
		logger.Error().Err(err).Str("owners_file", path).Msg("Parse owners")
		return err
	}
	return owners.SeedOwners(ctx, seed.Owners)
}

func startMetrics(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) {
	if !cfg.Monitoring.PrometheusEnabled {
		return
	}

	metrics.Register()
	go startMetricsServer(ctx, cfg.Monitoring.PrometheusPort, logger)
}

func startServers(
	ctx context.Context,
	grpcServer *api.GRPCServer,
	httpServer *api.HTTPServer,
	cfg *config.Config,
	logger *zerolog.Logger,
) error {
	errCh := make(chan error, 2)

	if grpcServer != nil {
		go func() {
			if err := grpcServer.Serve(); err != nil {
				errCh <- fmt.Errorf("grpc server: %w", err)
			}
		}()
	}

	if cfg.API.HTTP.Enabled {
		go func() {
			if err := httpServer.Start(); err != nil {
				errCh <- fmt.Errorf("http server: %w", err)
			}
		}()
	}

	logger.Info().Int("http_port", cfg.API.HTTP.Port).Bool("grpc", grpcServer != nil).Msg("API server started")

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info().Msg("Shutdown signal received")
	case runErr = <-errCh:
		logger.Error().Err(runErr).Msg("Server stopped unexpectedly")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if grpcServer != nil {
		grpcServer.Shutdown(shutdownCtx)
	}
	_ = httpServer.Shutdown(shutdownCtx)

	logger.Info().Msg("API server stopped")
	return runErr
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
		logger.Error().Err(err).Msg("Metrics server error")
	}
}
