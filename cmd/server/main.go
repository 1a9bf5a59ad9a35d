package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"

	"busticket/internal/app"
	"busticket/internal/config"
	"busticket/internal/handler"
	internalRedis "busticket/internal/redis"
	"busticket/internal/repository/postgres"
	"busticket/internal/service"
)

func main() {
	configPath := pflag.String("config", "", "path to a YAML config file (defaults to $BUSTICKET_CONFIG)")
	migrate := pflag.Bool("migrate", false, "apply the database schema and exit")
	promoteAdmin := pflag.String("promote-admin", "", "grant the admin role to the given username and exit")
	pflag.Parse()

	// Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", slog.Any("error", err))
		os.Exit(1)
	}
	logger := app.NewLogger(cfg.Log)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize New Relic FIRST (before database so we can instrument DB).
	var nrApp *newrelic.Application
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
			newrelic.ConfigAppLogForwardingEnabled(true),
		)
		if err != nil {
			logger.Warn("failed to initialize New Relic", slog.Any("error", err))
			nrApp = nil
		} else {
			logger.Info("New Relic enabled", slog.String("app", cfg.NewRelic.AppName))
		}
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp, logger)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer db.Close()

	if *migrate {
		if err := postgres.Migrate(ctx, db); err != nil {
			logger.Error("migration failed", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("schema applied")
		return
	}

	if *promoteAdmin != "" {
		auth := service.NewAuthService(postgres.NewUserRepository(db), postgres.NewSessionRepository(db), nil, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, logger)
		if err := auth.PromoteAdmin(ctx, *promoteAdmin); err != nil {
			logger.Error("promote admin failed", slog.String("username", *promoteAdmin), slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("user promoted to admin", slog.String("username", *promoteAdmin))
		return
	}

	redisClient, err := app.NewRedisClient(ctx, cfg.Redis, nrApp, logger)
	if err != nil {
		logger.Error("failed to connect to redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer redisClient.Close()

	// Wire dependencies.
	server := wireServer(db, redisClient, nrApp, cfg, logger)

	// Start server in goroutine.
	go func() {
		logger.Info("starting server", slog.String("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", slog.Any("error", err))
	}
	if nrApp != nil {
		nrApp.Shutdown(5 * time.Second)
	}

	logger.Info("server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config, logger *slog.Logger) *http.Server {
	// Initialize Redis stores.
	lockStore := internalRedis.NewLockStore(redisClient)
	cacheStore := internalRedis.NewCacheStore(redisClient, cfg.Booking.AvailabilityCacheTTL)
	sessionStore := internalRedis.NewSessionStore(redisClient)

	// Initialize repositories.
	transactor := postgres.NewTransactor(db)
	locationRepo := postgres.NewLocationRepository(db)
	routeRepo := postgres.NewRouteRepository(db)
	busRepo := postgres.NewBusRepository(db)
	seatRepo := postgres.NewSeatRepository(db)
	tripRepo := postgres.NewTripRepository(db)
	bookingRepo := postgres.NewBookingRepository(db)
	ticketRepo := postgres.NewTicketRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	walletRepo := postgres.NewWalletRepository(db)
	userRepo := postgres.NewUserRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)

	// Initialize services.
	notificationService := service.NewNotificationService(logger)
	documentService := service.NewTicketDocumentService("BusTicket")
	catalogService := service.NewCatalogService(locationRepo, routeRepo, busRepo, seatRepo, transactor)
	tripService := service.NewTripService(transactor, tripRepo, seatRepo, ticketRepo, cacheStore, logger)
	bookingService := service.NewBookingService(
		transactor, bookingRepo, ticketRepo, paymentRepo,
		lockStore, cacheStore, notificationService, documentService,
		cfg.Booking.SeatLockTTL, logger,
	)
	paymentService := service.NewPaymentService(transactor, paymentRepo, bookingRepo, service.NewMockPSP(), notificationService)
	walletService := service.NewWalletService(transactor, walletRepo, userRepo, notificationService)
	authService := service.NewAuthService(userRepo, sessionRepo, sessionStore, cfg.Auth.JWTSecret, cfg.Auth.SessionTTL, logger)

	// Create router.
	router := app.NewRouter(app.RouterDeps{
		CatalogHandler: handler.NewCatalogHandler(catalogService),
		TripHandler:    handler.NewTripHandler(tripService),
		BookingHandler: handler.NewBookingHandler(bookingService),
		PaymentHandler: handler.NewPaymentHandler(paymentService),
		WalletHandler:  handler.NewWalletHandler(walletService),
		UserHandler:    handler.NewUserHandler(authService),
		Authenticator:  authService,
		RedisClient:    redisClient,
		NewRelicApp:    nrApp,
		Logger:         logger,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	})

	// Create HTTP server.
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
