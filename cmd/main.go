/**
 * @description
 * This is the main entry point for the merchant service. It loads
 * configuration, establishes the database pool, wires the optional RabbitMQ
 * producer and Redis rate limiter, constructs the auth and catalog layers,
 * and runs the HTTP server with graceful shutdown.
 *
 * @dependencies
 * - github.com/jackc/pgx/v5/pgxpool: PostgreSQL connection pooling.
 * - github.com/joho/godotenv: For loading .env files during local development.
 * - github.com/redis/go-redis/v9: Optional distributed rate limiting.
 * - The service's internal packages for config, API handling, storage,
 *   tokens, notification, and RabbitMQ integration.
 */

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/productr/merchant-service/internal/api"
	"github.com/productr/merchant-service/internal/app"
	"github.com/productr/merchant-service/internal/config"
	"github.com/productr/merchant-service/internal/notifier"
	"github.com/productr/merchant-service/internal/store"
	"github.com/productr/merchant-service/internal/token"
	"github.com/productr/merchant-service/pkg/rabbitmq"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    email TEXT NOT NULL UNIQUE,
    phone TEXT,
    password_hash TEXT NOT NULL,
    verified BOOLEAN NOT NULL DEFAULT FALSE,
    pending_otp TEXT,
    pending_otp_expires_at TIMESTAMPTZ,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE TABLE IF NOT EXISTS products (
    id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
    user_id UUID NOT NULL REFERENCES users(id),
    product_name TEXT NOT NULL,
    product_type TEXT NOT NULL,
    quantity_stock INTEGER NOT NULL DEFAULT 0,
    mrp DOUBLE PRECISION NOT NULL DEFAULT 0,
    selling_price DOUBLE PRECISION NOT NULL DEFAULT 0,
    brand_name TEXT NOT NULL DEFAULT '',
    images TEXT[] NOT NULL DEFAULT '{}',
    exchange_return TEXT NOT NULL DEFAULT 'Yes',
    status TEXT NOT NULL DEFAULT 'unpublished',
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
`

func main() {
	// Load .env file for local development. In production, env vars are set directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("cannot load config: %v", err)
	}

	// Establish database connection pool.
	dbConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to parse database URL: %v\n", err)
	}
	dbConfig.MaxConns = 10
	dbConfig.MinConns = 2
	dbConfig.MaxConnLifetime = 30 * time.Minute
	dbConfig.MaxConnIdleTime = 5 * time.Minute

	dbpool, err := pgxpool.NewWithConfig(context.Background(), dbConfig)
	if err != nil {
		log.Fatalf("Unable to connect to database: %v\n", err)
	}
	defer dbpool.Close()
	log.Println("Database connection established")

	// Ensure required tables exist (idempotent).
	if _, err := dbpool.Exec(context.Background(), schema); err != nil {
		log.Printf("Warning: failed ensuring tables (may already exist): %v", err)
	}

	// Set up RabbitMQ producer; allow nil on failure so the broker being down
	// never blocks authentication.
	var producer rabbitmq.Publisher
	if cfg.RabbitMQURL != "" {
		if p, err := rabbitmq.NewEventProducer(cfg.RabbitMQURL); err != nil {
			log.Printf("WARNING: Failed to connect to RabbitMQ at startup: %v. Continuing without MQ.", err)
		} else {
			producer = p
			defer p.Close()
			log.Println("RabbitMQ producer connected")
		}
	}

	// Optional Redis-backed rate limiting on the auth endpoints.
	var limiter app.AuthRateLimiter
	if cfg.RedisURL != "" && cfg.AuthRateLimitPerMinute > 0 {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Printf("WARNING: Invalid REDIS_URL: %v. Continuing without rate limiting.", err)
		} else {
			limiter = app.NewRedisAuthRateLimiter(redis.NewClient(opts), cfg.RedisRateLimitPrefix)
			log.Println("Auth rate limiting enabled")
		}
	}

	// The OTP bypass is only reachable in development mode.
	policy := app.StrictOTPPolicy()
	if cfg.IsDevelopment() {
		policy = app.DevBypassOTPPolicy(cfg.OTPBypassCode)
		log.Printf("WARNING: development mode active; OTP bypass code enabled")
	}

	issuer := token.NewIssuer([]byte(cfg.JWTSecret), time.Duration(cfg.SessionTTLHours)*time.Hour)

	otpNotifier := notifier.New(notifier.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})

	userRepo := store.NewPostgresUserRepository(dbpool)
	productRepo := store.NewPostgresProductRepository(dbpool)

	authService := app.NewAuthService(
		userRepo,
		otpNotifier,
		issuer,
		producer,
		policy,
		time.Duration(cfg.OTPTTLMinutes)*time.Minute,
		cfg.OTPDigits,
	)

	authHandlers := api.NewAuthHandlers(authService, limiter, cfg.AuthRateLimitPerMinute, cfg.IsDevelopment(), cfg.OTPBypassCode)
	productHandlers := api.NewProductHandlers(productRepo)
	uploadHandlers, err := api.NewUploadHandlers(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Unable to prepare upload directory: %v", err)
	}

	router := api.NewRouter(authHandlers, productHandlers, uploadHandlers, issuer, cfg.UploadDir)

	server := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Could not start server: %s\n", err)
		}
	}()

	// Graceful shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown failed: %v", err)
	}

	log.Println("Server gracefully stopped")
}
