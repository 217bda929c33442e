package main

import (
	"canteen_system/internal/archive" // Archive schema
	"canteen_system/internal/config"  // Configuration

	"github.com/sirupsen/logrus" // Logging
)

// Main entry point for migration
func main() {
	cfg := config.LoadConfig() // Load configuration
	if !cfg.ArchiveEnabled() {
		logrus.Fatal("DB_HOST is not set, nothing to migrate")
	}

	db, err := archive.Open(cfg.DSN())
	if err != nil {
		logrus.Fatalf("failed to connect database: %v", err)
	}
	if err := archive.Migrate(db); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
	logrus.Info("Migration completed.")
}
