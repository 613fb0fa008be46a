package main

import (
	"etuition/internal/config" // Custom import path (Config)
	"etuition/internal/db"     // Custom import path (Database)

	"github.com/sirupsen/logrus"
)

// Main entry point for migration
func main() {
	cfg, err := config.LoadConfig() // Load configuration
	if err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}
	if err := db.Migrate(cfg.DSN()); err != nil {
		logrus.Fatalf("migration failed: %v", err)
	}
}
