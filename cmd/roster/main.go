package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	pkgvalidator "github.com/johnquangdev/meeting-roster/pkg/validator"

	"github.com/johnquangdev/meeting-roster/internal/adapter/handler"
	"github.com/johnquangdev/meeting-roster/internal/adapter/repository"
	"github.com/johnquangdev/meeting-roster/internal/domain/repositories"
	"github.com/johnquangdev/meeting-roster/internal/infrastructure/cache"
	"github.com/johnquangdev/meeting-roster/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-roster/internal/infrastructure/events"
	"github.com/johnquangdev/meeting-roster/internal/infrastructure/external/livekit"
	"github.com/johnquangdev/meeting-roster/internal/infrastructure/external/zoomapp"
	"github.com/johnquangdev/meeting-roster/internal/infrastructure/notify"
	"github.com/johnquangdev/meeting-roster/internal/infrastructure/storage"
	"github.com/johnquangdev/meeting-roster/internal/usecase/roster"
	"github.com/johnquangdev/meeting-roster/pkg/config"
	"github.com/johnquangdev/meeting-roster/pkg/jwt"
)

// @title           Meeting Roster API
// @version         1.0
// @description     Live participant roster, change log and attendance report of one tracked meeting

// @BasePath  /v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the Zoom App push token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	hostPolicy, err := roster.ParseHostPolicy(cfg.Roster.ZeroHostPolicy)
	if err != nil {
		log.Fatalf("Invalid ZERO_HOST_POLICY: %v", err)
	}

	// Initialize Echo instance
	e := echo.New()

	// Register validator for request validation
	e.Validator = pkgvalidator.New()

	// Configure Echo
	e.HideBanner = true
	e.HidePort = false

	// Custom logger format
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "${time_rfc3339} | ${status} | ${method} ${uri} | ${latency_human}\n",
	}))

	// Recover from panics
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	// CORS middleware
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.Server.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))

	// Initialize dependencies
	log.Println("🔧 Initializing dependencies...")
	startCtx, cancelStart := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelStart()

	deps := roster.Dependencies{
		Clock:  clock.New(),
		Logger: logger,
	}
	sinks := notify.FanOut{notify.NewLogSink(logger)}

	// Initialize Database
	var eventRepo repositories.ParticipantEventRepository
	if cfg.Database.Enabled {
		log.Println("📦 Connecting to database...")
		db, err := database.NewPostgresDB(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.CloseDB(db)

		// Production deployments run scripts/migrate.go instead
		if cfg.Database.AutoMigrate {
			if cfg.IsProduction() {
				log.Fatalf("AutoMigrate is enabled in production. Disable DB_AUTO_MIGRATE and run the migration script.")
			}
			if _, err := database.Migrate(db, database.MigrationsDir); err != nil {
				log.Fatalf("Failed to run migrations: %v", err)
			}
		}

		eventRepo = repository.NewParticipantEventRepository(db)
		sinks = append(sinks, notify.NewRepositorySink(eventRepo))
	} else {
		log.Println("⏭️  Database disabled; join/leave history is not persisted")
	}

	// Change events: Redis pub/sub when several instances share webhooks,
	// in-process otherwise
	broadcaster := events.NewBroadcaster()
	defer broadcaster.Close()
	deps.Events = broadcaster
	publish := func(ctx context.Context, reason string) {
		broadcaster.Publish()
	}

	if cfg.Redis.Enabled {
		log.Println("📦 Connecting to Redis...")
		redisClient, err := cache.NewRedisClient(cfg)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer redisClient.Close()

		redisEvents := cache.NewRedisEventSource(redisClient, cfg.Redis.EventChannel, logger)
		deps.Events = redisEvents
		publish = func(ctx context.Context, reason string) {
			if err := redisEvents.Publish(ctx, reason); err != nil {
				logger.Warn("roster.change.publish_failed", zap.String("reason", reason), zap.Error(err))
			}
		}
		sinks = append(sinks, cache.NewRedisSink(redisClient, cfg.Redis.SinkChannel))
	}
	deps.Sink = sinks

	// Initialize report storage
	if cfg.Storage.Enabled {
		log.Println("🗄️  Connecting to object storage...")
		minioClient, err := storage.NewMinIOClient(startCtx, &cfg.Storage)
		if err != nil {
			log.Fatalf("Failed to initialize storage: %v", err)
		}
		deps.Reports = minioClient
	}

	// Initialize the roster source
	var (
		pushTokens     *jwt.Manager
		snapshots      *zoomapp.SnapshotStore
		webhookHandler *handler.WebhookHandler
		zoomAppHandler *handler.ZoomAppHandler
		seen           *cache.MemoryStore
	)
	switch cfg.Roster.Source {
	case config.SourceLiveKit:
		log.Println("🎥 Initializing LiveKit client...")
		livekitClient := livekit.NewClient(
			cfg.LiveKit.URL,
			cfg.LiveKit.APIKey,
			cfg.LiveKit.APISecret,
			cfg.LiveKit.UseMock,
		)
		if cfg.LiveKit.UseMock {
			log.Println("⚠️  LiveKit running in MOCK mode (no real server needed)")
		} else {
			log.Printf("✅ LiveKit connected to: %s", cfg.LiveKit.URL)
		}

		provider := livekit.NewRosterProvider(livekitClient, cfg.Roster.MeetingID, logger)
		deps.Provider = provider
		deps.Initializer = provider

		seen = cache.NewMemoryStore(deps.Clock)
		defer seen.Close()
		webhookHandler = handler.NewWebhookHandler(
			cfg.Roster.MeetingID,
			cfg.LiveKit.APIKey,
			cfg.LiveKit.APISecret,
			cfg.LiveKit.UseMock,
			seen,
			publish,
			logger,
		)

	case config.SourceZoomApp:
		log.Println("📱 Waiting for Zoom App snapshots...")
		snapshots = zoomapp.NewSnapshotStore(cfg.ZoomApp.SnapshotMaxAge, deps.Clock)
		deps.Provider = snapshots
		pushTokens = jwt.NewManager(cfg.ZoomApp.PushSecret, cfg.ZoomApp.TokenExpiry)
		zoomAppHandler = handler.NewZoomAppHandler(snapshots, publish, logger)
	}

	// Initialize roster session
	log.Println("👥 Initializing roster session...")
	session := roster.NewSession(roster.Options{
		MeetingID:     cfg.Roster.MeetingID,
		PollInterval:  cfg.Roster.PollInterval,
		SpeakingTick:  cfg.Roster.SpeakingTick,
		FetchTimeout:  cfg.Roster.FetchTimeout,
		ChangeLogSize: cfg.Roster.ChangeLogSize,
		SinkQueueSize: cfg.Roster.SinkQueueSize,
		HostPolicy:    hostPolicy,
	}, deps)

	// A failed session keeps serving its status and ChangeLog
	if err := session.Start(startCtx); err != nil {
		log.Printf("❌ Roster session failed to start: %v", err)
	} else {
		log.Printf("✅ Tracking meeting %s (source: %s)", cfg.Roster.MeetingID, cfg.Roster.Source)
	}

	var pushes handler.PushClock
	if snapshots != nil {
		pushes = snapshots
	}
	rosterHandler := handler.NewRosterHandler(session, cfg.Roster.MeetingID, cfg.Roster.Source, eventRepo, pushes, logger)

	// Setup router with handlers
	log.Println("🛣️  Setting up routes...")
	router := handler.NewRouter(cfg, rosterHandler, webhookHandler, zoomAppHandler, pushTokens)
	router.Setup(e)

	// Start server
	go func() {
		addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
		log.Printf("🚀 Starting server on %s", addr)
		log.Printf("📝 Environment: %s", cfg.Server.Environment)
		log.Printf("🔗 Health check: http://%s/health", addr)

		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Printf("❌ Server forced to shutdown: %v", err)
	}

	if err := session.Stop(ctx); err != nil {
		log.Printf("⚠️  Roster session stop: %v", err)
	}

	log.Println("✅ Server stopped gracefully")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}
