package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Novice130/At-tayyibun/internal/config"
	"github.com/Novice130/At-tayyibun/internal/db"
	"github.com/Novice130/At-tayyibun/internal/email"
	"github.com/Novice130/At-tayyibun/internal/jobs"
	"github.com/Novice130/At-tayyibun/internal/locks"
	"github.com/Novice130/At-tayyibun/internal/metrics"
	"github.com/Novice130/At-tayyibun/internal/requests"
	"github.com/Novice130/At-tayyibun/internal/server"
	"github.com/Novice130/At-tayyibun/internal/storage"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()

	yamlCfg, err := config.LoadYAMLConfig()
	if err != nil {
		log.Fatalf("Failed to load config file: %v", err)
	}

	// Initialize database
	database, err := db.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close()

	// Run migrations
	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	// Request lock store (Redis)
	lockStore, err := locks.New(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}
	defer lockStore.Close()

	// Photo object storage
	photoStore, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize object storage: %v", err)
	}

	metrics.Init()

	// Email notifications
	emailService := email.NewService(cfg)
	var notifier requests.Notifier
	if emailService.IsEnabled() {
		templates := email.NewTemplates(cfg.SiteTitle, cfg.BaseURL, cfg.TokenTTL)
		notifier = email.NewNotifier(emailService, templates)
	}

	// Workflow engine
	requestService := requests.NewService(database, lockStore, photoStore, notifier, requests.Options{
		ExpiryWindow: cfg.RequestExpiryWindow,
		TokenTTL:     cfg.TokenTTL,
		SignedURLTTL: cfg.SignedURLTTL,
		Cooldown:     cfg.RequestCooldown,
	})

	// Background jobs
	expiryJob := jobs.NewRequestExpiry(database, lockStore, cfg.SweepInterval)
	cleanupJob := jobs.NewTokenCleanup(database, cfg.SweepInterval)
	go expiryJob.Start(ctx)
	go cleanupJob.Start(ctx)

	// HTTP server
	srv := server.New(cfg)
	if err := srv.RegisterRoutes(ctx, server.Deps{
		DB:       database,
		Requests: requestService,
		Photos:   photoStore,
		Expiry:   expiryJob,
		Cleanup:  cleanupJob,
		YAML:     yamlCfg,
	}); err != nil {
		log.Fatalf("Failed to register routes: %v", err)
	}

	go func() {
		if err := srv.Start(); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("Server started on %s", cfg.ServerAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	cancel()
	if err := srv.Shutdown(); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
