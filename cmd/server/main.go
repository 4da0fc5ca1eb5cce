package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/thirstee-app/thirstee/internal/config"
	"github.com/thirstee-app/thirstee/internal/database"
	"github.com/thirstee-app/thirstee/internal/geocode"
	"github.com/thirstee-app/thirstee/internal/handlers"
	"github.com/thirstee-app/thirstee/internal/logging"
	"github.com/thirstee-app/thirstee/internal/middleware"
	"github.com/thirstee-app/thirstee/internal/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	logger := logging.New()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("Starting Thirstee server...")

	// Connect to PostgreSQL
	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()
	logger.Info("Connected to PostgreSQL")

	// Run migrations
	logger.Info("Running database migrations...")
	migrator, err := database.NewMigrator(cfg.Database.DSN(), "migrations")
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	if err := migrator.Up(); err != nil {
		_ = migrator.Close()
		return fmt.Errorf("running migrations: %w", err)
	}
	_ = migrator.Close()
	logger.Info("Migrations completed")

	// Connect to Redis
	logger.Info("Connecting to Redis", map[string]interface{}{
		"addr": cfg.Redis.Addr(),
	})
	redisDB, err := database.NewRedisDB(cfg.Redis.Addr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer func() { _ = redisDB.Close() }()
	logger.Info("Connected to Redis")

	// Initialize services
	dbAdapter := services.NewPoolAdapter(db.Pool)
	redisAdapter := services.NewRedisAdapter(redisDB.Client)

	userService := services.NewUserService(dbAdapter)
	authService := services.NewAuthService(dbAdapter, redisAdapter)
	emailService := services.NewEmailService(&cfg.Email, dbAdapter)
	notificationService := services.NewNotificationService(dbAdapter, emailService)
	eventService := services.NewEventService(dbAdapter)
	eventService.SetNotificationService(notificationService)
	invitationService := services.NewInvitationService(dbAdapter)
	invitationService.SetNotificationService(notificationService)
	crewService := services.NewCrewService(dbAdapter)
	crewService.SetNotificationService(notificationService)

	var geocodeClient geocode.Client
	if cfg.Geocode.Stub || cfg.Geocode.APIKey == "" {
		logger.Info("Using stubbed place lookups")
		geocodeClient = geocode.StubClient{}
	} else {
		geocodeClient = geocode.NewHTTPClient(cfg.Geocode.APIKey, cfg.Geocode.BaseURL)
	}
	geocodeService := geocode.NewService(geocodeClient, geocode.Options{})
	defer geocodeService.Close()

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, redisDB)
	authHandler := handlers.NewAuthHandler(userService, authService, cfg.Server.Secure)
	eventHandler := handlers.NewEventHandler(eventService, invitationService, notificationService)
	crewHandler := handlers.NewCrewHandler(crewService, notificationService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	emailHandler := handlers.NewEmailHandler(emailService)
	placeHandler := handlers.NewPlaceHandler(geocodeService)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)
	securityHeaders := middleware.NewSecurityHeaders(cfg.Server.Secure)
	cacheControl := middleware.NewCacheControl()
	requestLogger := middleware.NewRequestLogger(logger)
	cors := middleware.NewCORS()

	authLimiter := middleware.NewAuthRateLimiter(redisDB.Client)
	apiLimiter := middleware.NewAPIRateLimiter(redisDB.Client)
	emailLimiter := middleware.NewEmailRateLimiter(redisDB.Client)

	requireAuth := func(h http.HandlerFunc) http.Handler {
		return authMiddleware.RequireAuth(h)
	}

	// Set up router
	mux := http.NewServeMux()

	// Health endpoints (no auth, no rate limit)
	mux.HandleFunc("GET /health", healthHandler.Health)
	mux.HandleFunc("GET /ready", healthHandler.Ready)
	mux.HandleFunc("GET /live", healthHandler.Live)

	// Auth endpoints
	mux.Handle("POST /api/auth/register", authLimiter.Middleware(http.HandlerFunc(authHandler.Register)))
	mux.Handle("POST /api/auth/login", authLimiter.Middleware(http.HandlerFunc(authHandler.Login)))
	mux.HandleFunc("POST /api/auth/logout", authHandler.Logout)
	mux.Handle("GET /api/auth/me", requireAuth(authHandler.Me))

	// Event endpoints
	mux.Handle("POST /api/events", requireAuth(eventHandler.Create))
	mux.Handle("GET /api/events", requireAuth(eventHandler.List))
	mux.Handle("GET /api/events/{id}", requireAuth(eventHandler.Get))
	mux.Handle("GET /api/events/{id}/invitations", requireAuth(eventHandler.Invitations))
	mux.Handle("POST /api/events/{id}/invitations", requireAuth(eventHandler.InviteUsers))
	mux.Handle("DELETE /api/events/{id}/invitations/{userID}", requireAuth(eventHandler.RemoveInvitation))
	mux.Handle("POST /api/events/{id}/crews/{crewID}/invite", requireAuth(eventHandler.InviteCrew))
	mux.Handle("POST /api/events/respond", requireAuth(eventHandler.Respond))

	// Share link endpoints; viewing needs no account, RSVP does
	mux.HandleFunc("GET /api/events/shared/{token}", eventHandler.GetShared)
	mux.Handle("POST /api/events/shared/{token}/rsvp", requireAuth(eventHandler.SharedRSVP))

	// Crew endpoints
	mux.Handle("POST /api/crews", requireAuth(crewHandler.Create))
	mux.Handle("GET /api/crews", requireAuth(crewHandler.List))
	mux.Handle("GET /api/crews/{id}", requireAuth(crewHandler.Get))
	mux.Handle("POST /api/crews/{id}/invitations", requireAuth(crewHandler.Invite))
	mux.Handle("POST /api/crews/respond", requireAuth(crewHandler.Respond))
	mux.Handle("DELETE /api/crews/{id}/members/{userID}", requireAuth(crewHandler.RemoveMember))

	// Notification endpoints
	mux.Handle("GET /api/notifications", requireAuth(notificationHandler.List))
	mux.Handle("GET /api/notifications/unread-count", requireAuth(notificationHandler.UnreadCount))
	mux.Handle("POST /api/notifications/{id}/read", requireAuth(notificationHandler.MarkRead))
	mux.Handle("POST /api/notifications/read-all", requireAuth(notificationHandler.MarkAllRead))

	// Place lookup endpoints
	mux.Handle("GET /api/places/autocomplete", requireAuth(placeHandler.Autocomplete))
	mux.Handle("GET /api/places/{id}", requireAuth(placeHandler.Details))

	// Transactional email endpoint, CORS-enabled for browser clients
	emailChain := cors.Apply(emailLimiter.Middleware(http.HandlerFunc(emailHandler.Send)))
	mux.Handle("POST /api/email/send", emailChain)
	mux.Handle("OPTIONS /api/email/send", cors.Apply(http.NotFoundHandler()))

	// Build middleware chain (order matters: outermost first)
	var handler http.Handler = mux
	handler = authMiddleware.Authenticate(handler)
	handler = apiLimiter.Middleware(handler)
	handler = cacheControl.Apply(handler)
	handler = securityHeaders.Apply(handler)
	handler = requestLogger.Apply(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan bool, 1)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		logger.Info("Server is shutting down...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		server.SetKeepAlivesEnabled(false)
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Could not gracefully shutdown the server", map[string]interface{}{
				"error": err.Error(),
			})
		}
		close(done)
	}()

	logger.Info("Server listening", map[string]interface{}{
		"addr": addr,
	})
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server error: %w", err)
	}

	<-done
	logger.Info("Server stopped")
	return nil
}
