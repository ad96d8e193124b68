package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/jotter-dev/jotter/db"
	"github.com/jotter-dev/jotter/internal/auth"
	"github.com/jotter-dev/jotter/internal/cache"
	"github.com/jotter-dev/jotter/internal/config"
	"github.com/jotter-dev/jotter/internal/router"
	"github.com/jotter-dev/jotter/internal/tasks"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	cfg, err := config.Load()

	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	database, err := db.Connect(cfg.DatabaseURL)

	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := db.Migrate(database); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	store, err := cache.New(cfg.RedisURL)

	if err != nil {
		log.Fatalf("Failed to configure cache: %v", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := store.Ping(pingCtx); err != nil {
		log.Fatalf("Failed to connect to cache: %v", err)
	}

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL, cfg.RotateRefreshTokens, store)

	initializer := tasks.NewInitializer(database, store)
	initializer.Start(2)
	defer initializer.Stop()

	r := router.New(cfg, database, store, tokens, initializer)

	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
