package main // Entry point package

import (
	"context" // context bounds the schema bootstrap
	"log"     // Logging library
	"time"    // durations for OTP TTLs

	"github.com/joho/godotenv"    // loads .env files in development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/auth"       // tokens, OTP store, password hashing
	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/config"     // internal config loader
	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/database"   // MySQL pool + schema bootstrap
	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/handler"    // HTTP handlers
	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/middleware" // rate limit + cache middleware
	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/queue"      // OTP mail consumer
	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/repository" // DB repositories
	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/router"     // route registration
	"github.com/KartikAkbari/QSL-SERVICES-REPORT/internal/storage"    // report file store
)

func main() {
	// .env is optional; real deployments set variables in the environment.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.EnsureSchema(ctx, db); err != nil {
		cancel()
		log.Fatalf("schema: %v", err)
	}
	cancel()

	// Redis backs the OTP store, the rate limiter and the response cache.
	// A nil client disables the latter two; the OTP flow fails closed.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable: rate limiting and caching disabled, OTP login will fail")
	}
	otpStore := auth.NewOTPStore(rdb,
		time.Duration(cfg.OTPTTLMin)*time.Minute,
		time.Duration(cfg.OTPCooldownSec)*time.Second)

	files, err := storage.NewFileStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("file store: %v", err)
	}

	// The admin password is hashed once at startup; login attempts then
	// pay a constant bcrypt comparison.
	adminHash, err := auth.HashPassword(cfg.AdminPassword, cfg.BcryptCost)
	if err != nil {
		log.Fatalf("admin password hash: %v", err)
	}

	clients := repository.NewClientRepo(db)
	projects := repository.NewProjectRepo(db)
	reports := repository.NewReportRepo(db)
	comments := repository.NewCommentRepo(db)
	tokens := repository.NewTokenRepo(db)

	authH := handler.NewAuthHandler(cfg, adminHash, clients, tokens, otpStore)
	adminH := handler.NewAdminHandler(clients)
	projectH := handler.NewProjectHandler(clients, projects, reports, files)
	commentH := handler.NewCommentHandler(comments, reports)

	// The OTP mail consumer runs for the life of the process and
	// reconnects to the broker on its own.
	go func() {
		if err := queue.StartOTPMailConsumer(queue.MailSettings{
			Host:   cfg.SMTPHost,
			Port:   cfg.SMTPPort,
			User:   cfg.SMTPUser,
			Pass:   cfg.SMTPPass,
			Sender: cfg.SMTPSender,
		}); err != nil {
			log.Printf("otp consumer stopped: %v", err)
		}
	}()

	e := echo.New() // Create Echo instance
	limit := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)
	cache := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	router.RegisterRoutes(e)                                     // health check
	router.RegisterAuth(e, authH, cfg.JWTSecret, limit)          // login flows + session endpoints
	router.RegisterAdmin(e, adminH, projectH, cfg.JWTSecret)     // client registry + project creation
	router.RegisterPortal(e, projectH, commentH, cfg.JWTSecret, cache) // shared dashboard surface

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}
