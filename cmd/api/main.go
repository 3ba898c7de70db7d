package main

import (
	"log"

	"essentia-system/config"
	"essentia-system/internal/database"
	"essentia-system/internal/server"
	"essentia-system/internal/utils"
)

func main() {
	cfg := config.LoadConfig()

	if err := utils.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer utils.SyncLogger()

	if cfg.Auth.JWTSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	utils.JwtSecret = []byte(cfg.Auth.JWTSecret)

	db, err := database.NewConnection(cfg.DB.DSN())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	rdb := config.NewRedisClient(cfg.Redis)

	r := server.New(db, rdb, server.Options{
		RateLimit: cfg.Server.RateLimit,
		TokenTTL:  cfg.Auth.TokenTTL,
	})

	log.Printf("Starting server on port %s", cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
