package db

import (
	"etuition/internal/store" // Connection setup and models

	"github.com/sirupsen/logrus" // Structured logging
)

// Migrate creates or updates the schema: users, tuitions, applied_tuitions and payments
func Migrate(dsn string) error {
	db, err := store.Open(dsn) // Open a connection to the database
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()
	// AutoMigrate creates tables, unique indexes and the application -> post cascade
	if err := db.AutoMigrate(store.Models()...); err != nil {
		return err
	}
	logrus.Info("Migration completed.") // Log successful migration
	return nil
}
