package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/orbitlabs/commune/backend/internal/database"
	"github.com/orbitlabs/commune/backend/internal/logger"
	"go.uber.org/zap"
)

// Standalone migration runner for deploy pipelines that migrate
// before rolling the server.
func main() {
	_ = godotenv.Load()

	if err := logger.Initialize(os.Getenv("LOG_LEVEL"), ""); err != nil {
		panic(err)
	}
	defer logger.Close()

	if err := database.Initialize(); err != nil {
		logger.Log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.Log.Fatal("Migration failed", zap.Error(err))
	}

	logger.Log.Info("Migrations complete")
}
