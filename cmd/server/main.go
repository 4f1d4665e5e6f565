package main

import (
	"context"
	"log"

	"firebase.google.com/go/v4/auth"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/ahmedembaby/chat/internal/live"
	"github.com/ahmedembaby/chat/internal/repositories"
	"github.com/ahmedembaby/chat/internal/router"
	"github.com/ahmedembaby/chat/pkg/config"
	"github.com/ahmedembaby/chat/pkg/firebase"
	"github.com/ahmedembaby/chat/validators"
)

func main() {
	// Load configuration
	cfg := config.Load()

	logger, err := newLogger(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx := context.Background()

	// Initialize the backing stores
	repos, cleanup, err := newManager(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to initialize stores", zap.Error(err))
	}
	defer cleanup()

	// Firebase is an optional identity provider; without credentials the
	// local email/password flow still works.
	var firebaseAuth *auth.Client
	if cfg.FirebaseCredentialsPath != "" {
		firebaseApp, err := firebase.InitFirebase(ctx, cfg.FirebaseCredentialsPath)
		if err != nil {
			logger.Warn("firebase disabled", zap.Error(err))
		} else {
			firebaseAuth = firebaseApp.AuthClient
		}
	}

	bus := live.NewBus()

	// Create Echo instance
	e := echo.New()

	// Setup global middleware
	router.SetupMiddleware(e)

	// Setup routes and dependencies
	svcs := router.SetupRoutes(e, repos, firebaseAuth, bus, logger, cfg)

	// Validator
	e.Validator = validators.NewValidator()

	// Background story expiry sweep
	svcs.Stories.StartSweeper(ctx, cfg.StorySweepInterval)
	defer svcs.Stories.StopSweeper()

	// Start server
	e.Logger.Fatal(e.Start(":" + cfg.Port))
}

func newLogger(env string) (*zap.Logger, error) {
	if env == "production" {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func newManager(ctx context.Context, cfg *config.Config) (repositories.Manager, func(), error) {
	if cfg.Store == "memory" {
		return repositories.NewMemoryManager(), func() {}, nil
	}

	db, err := config.InitDB(cfg)
	if err != nil {
		return nil, nil, err
	}

	repos, err := repositories.NewStoreManager(ctx, db.Postgres, db.Mongo.Database(cfg.MongoDatabase))
	if err != nil {
		db.CloseDB()
		return nil, nil, err
	}
	return repos, db.CloseDB, nil
}
