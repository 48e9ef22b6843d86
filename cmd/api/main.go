package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/trailhead/tours/internal/domain"
	"github.com/trailhead/tours/internal/http/handlers"
	authmw "github.com/trailhead/tours/internal/http/middleware"
	"github.com/trailhead/tours/internal/mailer"
	"github.com/trailhead/tours/internal/repo/postgres"
	"github.com/trailhead/tours/internal/service"
	"github.com/trailhead/tours/pkg/config"
	"github.com/trailhead/tours/pkg/database"
	"github.com/trailhead/tours/pkg/events"
	"github.com/trailhead/tours/pkg/logger"
	mw "github.com/trailhead/tours/pkg/middleware"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	// Connect to database
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	// Connect to event bus
	eventBus, err := events.NewNATSEventBus(cfg.NATS.URL)
	if err != nil {
		logger.Error("Failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer eventBus.Close()

	// Connect to Redis (rate limiting)
	redisOpts, err := redis.ParseURL(cfg.Redis.URL)
	if err != nil {
		logger.Error("Failed to parse Redis URL", "error", err)
		os.Exit(1)
	}
	if cfg.Redis.Password != "" {
		redisOpts.Password = cfg.Redis.Password
	}
	redisOpts.DB = cfg.Redis.DB
	redisClient := redis.NewClient(redisOpts)
	defer redisClient.Close()

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	tourRepo := postgres.NewTourRepository(pool)

	// Initialize services
	credentials := service.NewCredentialManager(cfg.Auth.ResetTokenTTL)
	ratingService := service.NewRatingService(reviewRepo, tourRepo)
	reviewService := service.NewReviewService(reviewRepo, ratingService, eventBus)
	authService := service.NewAuthService(userRepo, credentials, selectMailer(cfg), eventBus, cfg)

	// Initialize handlers and route middleware
	h := handlers.New(authService, reviewService, cfg)
	authenticator := authmw.NewAuthenticator(cfg.Auth.JWTSecret, userRepo, credentials)
	authLimiter := authmw.NewRateLimiter(redisClient, 10, 15*time.Minute, "auth")

	// Setup router
	r := chi.NewRouter()

	r.Use(mw.RequestID)
	r.Use(mw.Logging)
	r.Use(mw.Health)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Route("/auth", func(r chi.Router) {
		r.With(authLimiter.Middleware).Post("/signup", h.Signup)
		r.With(authLimiter.Middleware).Post("/login", h.Login)
		r.With(authLimiter.Middleware).Post("/forgot-password", h.ForgotPassword)
		r.Patch("/reset-password", h.ResetPassword)

		r.Group(func(r chi.Router) {
			r.Use(authenticator.RequireAuth)
			r.Get("/me", h.Me)
			r.Delete("/me", h.DeactivateMe)
			r.Patch("/update-password", h.UpdatePassword)
		})
	})

	r.Route("/tours/{tourID}/reviews", func(r chi.Router) {
		r.Get("/", h.ListReviews)
		r.With(authenticator.RequireAuth, authmw.RequireRole(domain.RoleUser)).Post("/", h.CreateReview)
	})

	r.Route("/reviews/{id}", func(r chi.Router) {
		r.Get("/", h.GetReview)
		r.Group(func(r chi.Router) {
			r.Use(authenticator.RequireAuth)
			r.Use(authmw.RequireRole(domain.RoleUser, domain.RoleAdmin))
			r.Patch("/", h.UpdateReview)
			r.Delete("/", h.DeleteReview)
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		logger.Info("Shutting down tours API...")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Tours API listening", "port", cfg.Server.Port)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}

func selectMailer(cfg *config.Config) mailer.Service {
	if cfg.Email.DevMode {
		return mailer.NewDevMailer()
	}
	if cfg.Email.MailerSendKey != "" {
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.SMTPFrom)
	}
	return mailer.NewSMTPMailer(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPFrom,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPass,
		cfg.Email.SMTPUseTLS,
	)
}
