package main

import (
	"os"

	"github.com/sirupsen/logrus"

	"github.com/ethiocampground/booking-backend/internal/config"
	"github.com/ethiocampground/booking-backend/internal/database"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	logger.Infof("Applying %d schema statements...", len(database.Schema))
	for i, stmt := range database.Schema {
		if _, err := db.Exec(stmt); err != nil {
			logger.Fatalf("Schema statement %d failed: %v", i+1, err)
		}
	}
	logger.Info("Schema applied successfully")
}
