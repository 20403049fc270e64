package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"eventcalendar/config"
	_ "eventcalendar/docs"
	"eventcalendar/internal/adapters/auth"
	"eventcalendar/internal/adapters/email"
	"eventcalendar/internal/adapters/storage"
	deliveryhttp "eventcalendar/internal/delivery/http"
	"eventcalendar/internal/delivery/http/controllers"
	"eventcalendar/internal/delivery/http/middleware"
	"eventcalendar/internal/repository/postgres"
	"eventcalendar/internal/services"
)

// @title Event Calendar API
// @version 1.0
// @description Event listing and registration API.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}
	logger := config.NewLogger()

	db, err := sql.Open("postgres", cfg.DBUrl)
	if err != nil {
		logger.Error("failed to open database", "err", err)
		os.Exit(1)
	}
	defer db.Close()
	db.SetMaxOpenConns(20)
	db.SetMaxIdleConns(10)
	if err := db.Ping(); err != nil {
		logger.Error("failed to ping database", "err", err)
		os.Exit(1)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Warn("redis unreachable, response cache disabled", "addr", cfg.RedisAddr, "err", err)
			rdb = nil
		}
	}

	eventRepo := postgres.NewEventRepository(db)
	attendeeRepo := postgres.NewAttendeeRepository(db)
	userRepo := postgres.NewUserRepository(db)

	jwtCodec := auth.NewJWTCodec(cfg.JWTSecret, cfg.JWTExpiry)
	hasher := auth.NewBcryptHasher(12)

	mailer, err := email.NewMailer(email.MailerConfig{
		Provider:    cfg.EmailProvider,
		FromAddress: cfg.EmailFromAddress,
		FromName:    cfg.EmailFromName,
		SES: email.SESConfig{
			Region:          cfg.AWSRegion,
			AccessKeyID:     cfg.AWSAccessKeyID,
			SecretAccessKey: cfg.AWSSecretAccessKey,
		},
	})
	if err != nil {
		logger.Error("failed to initialize mailer", "err", err)
		os.Exit(1)
	}
	emailService := services.NewEmailService(mailer, email.NewTemplateRenderer(), logger)

	imageStore, err := storage.NewImageStore(storage.S3Config{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Bucket:          cfg.S3Bucket,
	})
	if err != nil {
		logger.Error("failed to initialize image store", "err", err)
		os.Exit(1)
	}

	eventService := services.NewEventService(eventRepo, attendeeRepo, imageStore, cfg.S3PublicBaseURL, logger)
	registrationService := services.NewRegistrationService(eventRepo, attendeeRepo, emailService, logger)
	authService := services.NewAuthService(userRepo, hasher, jwtCodec)

	eventController := controllers.NewEventController(logger, eventService)
	registrationController := controllers.NewRegistrationController(logger, registrationService)
	authController := controllers.NewAuthController(logger, authService)

	mux := deliveryhttp.NewRouter(logger, jwtCodec, eventController, registrationController, authController)

	var handler http.Handler = mux
	if rdb != nil {
		handler = middleware.ResponseCache(rdb, cfg.CacheTTL, logger, handler)
	}
	handler = middleware.LoggingMiddleware(logger, handler)
	handler = middleware.CORS(cfg.AllowedOrigins, handler)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server listening", "port", cfg.Port, "env", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
}
