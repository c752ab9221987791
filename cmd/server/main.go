package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Maxito7/gallery_backend/internal/application"
	"github.com/Maxito7/gallery_backend/internal/config"
	"github.com/Maxito7/gallery_backend/internal/domain"
	"github.com/Maxito7/gallery_backend/internal/email"
	"github.com/Maxito7/gallery_backend/internal/infrastructure/repository"
	handlers "github.com/Maxito7/gallery_backend/internal/interfaces/http"
	"github.com/Maxito7/gallery_backend/internal/scheduler"
	services "github.com/Maxito7/gallery_backend/internal/service"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/lib/pq"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	db, err := sql.Open("postgres", cfg.GetDBConnString())
	if err != nil {
		log.Fatalf("Error connecting to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Error pinging database: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Image provider
	var provider domain.ImageProvider = repository.NewGalleryRepository(db)
	if cfg.S3BucketName != "" {
		s3Service, err := services.NewS3Service(ctx, cfg.S3BucketName, cfg.S3Region)
		if err != nil {
			log.Printf("Warning: S3 cleanup disabled: %v", err)
		} else {
			provider = application.NewCleanupProvider(provider, s3Service)
		}
	}

	// Alerts
	var reporter application.FailureReporter
	if cfg.AlertsEnabled() {
		emailClient, err := email.NewClient(
			cfg.SMTPHost,
			cfg.SMTPPort,
			cfg.SMTPUser,
			cfg.SMTPPassword,
			cfg.SMTPFromName,
			cfg.SMTPFromEmail,
		)
		if err != nil {
			log.Printf("Warning: Email client initialization failed: %v", err)
		} else {
			reporter = email.NewSyncAlerter(emailClient, cfg.AlertEmail)
		}
	}

	// Sessions
	sessions := application.NewSessionStore(cfg.SessionTTL, cfg.SessionTTL/2)
	defer sessions.Stop()
	galleryService := application.NewGalleryService(provider, sessions, reporter)
	galleryHandler := handlers.NewGalleryHandler(galleryService)
	limiter := application.NewRateLimiter(cfg.RateWindow, cfg.RateLimit)

	resync := scheduler.NewSyncScheduler(galleryService, cfg.ResyncInterval)
	resync.Start(ctx)
	defer resync.Stop()

	app := fiber.New()
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,If-None-Match",
		AllowCredentials: true,
		ExposeHeaders:    "Content-Length,ETag,X-RateLimit-Remaining",
		MaxAge:           86400,
	}))

	api := app.Group("/api")
	handlers.RegisterGalleryRoutes(api, galleryHandler, limiter)

	go func() {
		<-ctx.Done()
		stop()
		log.Println("Shutting down server")
		galleryHandler.Close()
		if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
	}()

	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}
