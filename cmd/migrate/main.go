package main

import (
	"log"

	"knowai-backend/config"
	"knowai-backend/db"
)

func main() {
	cfg := config.Load()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to apply migrations: %v", err)
	}
	log.Println("✓ Database migrations applied")
}
