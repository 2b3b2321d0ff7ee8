package main

import (
	"context"
	"fmt"
	"time"

	catalogdb "ms-storefront/internal/catalog/db"
	"ms-storefront/internal/config"
	"ms-storefront/internal/database"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/models"

	"github.com/joho/godotenv"
)

func main() {
	log := logger.NewLogger("seed")
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()
	ctx := context.Background()

	db, err := database.OpenPG(ctx, cfg.Database.DSN)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer db.Close()

	catalog := catalogdb.New(db)
	start := time.Now().UTC().Truncate(24 * time.Hour)

	events := []catalogdb.SeedEvent{
		{
			Title:   "Summer Jazz Night",
			City:    "Moscow",
			Date:    start.AddDate(0, 0, 14).Add(19 * time.Hour),
			Tags:    []string{"jazz", "music"},
			Tickets: map[string]int64{"Standard": 250000, "VIP": 750000},
		},
		{
			Title:   "Indie Rock Fest",
			City:    "Saint Petersburg",
			Date:    start.AddDate(0, 0, 30).Add(17 * time.Hour),
			Tags:    []string{"rock", "music", "festival"},
			Tickets: map[string]int64{"Day pass": 400000, "Weekend pass": 900000},
		},
		{
			Title:   "Go Meetup",
			City:    "Kazan",
			Date:    start.AddDate(0, 0, 7).Add(18 * time.Hour),
			Tags:    []string{"tech"},
			Tickets: map[string]int64{"Free": 0, "Supporter": 100000},
		},
	}
	for _, in := range events {
		e, err := catalog.InsertEvent(ctx, in)
		if err != nil {
			log.Fatal("SEED", fmt.Sprintf("Failed to insert %q: %v", in.Title, err))
		}
		log.LogDatabase("INSERT", "events", fmt.Sprintf("%s (/events/%s)", e.Title, e.Slug))
	}

	promos := []struct {
		code  string
		kind  models.DiscountType
		value int64
	}{
		{"SUMMER20", models.DiscountPercent, 20},
		{"MINUS500", models.DiscountFlat, 50000},
	}
	for _, p := range promos {
		if _, err := catalog.InsertPromo(ctx, p.code, p.kind, p.value); err != nil {
			log.Fatal("SEED", fmt.Sprintf("Failed to insert promo %s: %v", p.code, err))
		}
		log.LogDatabase("INSERT", "promo_codes", p.code)
	}

	log.Info("SEED", "Done")
}
