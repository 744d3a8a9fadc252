package main

import (
	"log"
	"os"

	"github.com/johnquangdev/meeting-roster/internal/infrastructure/database"
	"github.com/johnquangdev/meeting-roster/pkg/config"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize database using GORM
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB(db)

	dir := database.MigrationsDir
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	n, err := database.Migrate(db, dir)
	if err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}

	log.Printf("✅ Successfully applied %d migration(s)!\n", n)
}
