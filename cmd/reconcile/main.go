package main

import (
	"context"
	"fmt"

	"ms-storefront/internal/config"
	"ms-storefront/internal/database"
	"ms-storefront/internal/kafka"
	"ms-storefront/internal/logger"
	orderdb "ms-storefront/internal/order/db"
	"ms-storefront/internal/order/reconcile"

	"github.com/joho/godotenv"
)

// One reconciliation pass, for cron jobs outside the server process.
func main() {
	log := logger.NewLogger("reconcile")
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

	var events reconcile.EventPublisher = kafka.LogPublisher{Logger: log}
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics, log)
		defer producer.Close()
		events = producer
	}

	sweeper := reconcile.NewSweeper(&orderdb.DB{Bun: db}, events, nil, cfg.Reconcile.StaleAfter, log)
	n, err := sweeper.Sweep(ctx)
	if err != nil {
		log.Fatal("RECONCILE", err.Error())
	}
	log.Info("RECONCILE", fmt.Sprintf("Cancelled %d stale orders", n))
}
