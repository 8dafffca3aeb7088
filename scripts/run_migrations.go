package main

import (
	"context"
	"database/sql"
	"log"
	"os"

	"github.com/safar/aurora-commerce/internal/config"
	"github.com/safar/aurora-commerce/internal/database"
	"github.com/safar/aurora-commerce/internal/store"
	"github.com/shopspring/decimal"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run scripts/run_migrations.go [up|down|seed]")
	}

	direction := os.Args[1]
	if direction != "up" && direction != "down" && direction != "seed" {
		log.Fatal("Direction must be 'up', 'down' or 'seed'")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Load config: %v", err)
	}

	ctx := context.Background()

	db, err := database.NewConnection(ctx, &cfg.Database)
	if err != nil {
		log.Fatalf("Connect to database: %v", err)
	}
	defer db.Close()

	if direction == "seed" {
		seedCatalog(ctx, db)
		return
	}

	applied, err := database.Migrate(ctx, db, "migrations", direction)
	if err != nil {
		log.Fatalf("Migrate: %v", err)
	}
	for _, name := range applied {
		log.Printf("Ran migration: %s", name)
	}

	log.Printf("Successfully ran %d migration(s) %s", len(applied), direction)
}

var demoCatalog = []store.CreateProductRequest{
	{
		Name:        "Clarifying Tea Tree Serum",
		Description: "Lightweight serum for breakout-prone skin.",
		Category:    "serum",
		Price:       decimal.RequireFromString("24.00"),
		SuitableFor: []string{"oily", "combination", "acne"},
		Targets:     []string{"acne", "acne skin"},
	},
	{
		Name:        "Calming Centella Cream",
		Description: "Barrier cream that soothes visible redness.",
		Category:    "moisturizer",
		Price:       decimal.RequireFromString("29.50"),
		SuitableFor: []string{"sensitive", "dry", "redness"},
		Targets:     []string{"rosacea", "redness"},
	},
	{
		Name:        "Smoothing Lactic Body Lotion",
		Description: "Gentle AHA lotion for rough, bumpy texture.",
		Category:    "body",
		Price:       decimal.RequireFromString("18.75"),
		SuitableFor: []string{"normal", "dry"},
		Targets:     []string{"keratosis_pilaris", "hair follicles"},
	},
	{
		Name:        "Daily Mineral Sunscreen SPF 30",
		Description: "Non-comedogenic daily protection.",
		Category:    "sunscreen",
		Price:       decimal.RequireFromString("21.00"),
		SuitableFor: []string{"oily", "dry", "normal", "sensitive", "combination"},
		Targets:     []string{"redness"},
	},
}

func seedCatalog(ctx context.Context, db *sql.DB) {
	for _, req := range demoCatalog {
		product, err := store.CreateProduct(ctx, db, req)
		if err != nil {
			log.Fatalf("Seed product %q: %v", req.Name, err)
		}
		log.Printf("Seeded product %d: %s", product.ID, product.Name)
	}
}
