// cmd/migrate applies the embedded catalog schema and exits. The API
// server also applies it at startup; this command exists for deployments
// that migrate as a separate release step.
package main

import (
	"context"
	"log"
	"time"

	"github.com/haqnow/archive/internal/catalog"
	"github.com/haqnow/archive/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := catalog.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to Postgres:", err)
	}
	defer store.Close()

	if err := store.Migrate(ctx); err != nil {
		log.Fatal("Migration failed:", err)
	}
	log.Println("Schema applied")
}
