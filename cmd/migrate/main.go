package main

import (
	"context"
	"database/sql"
	"flag"
	"fmt"

	"ms-storefront/internal/config"
	"ms-storefront/internal/database/migrations"
	"ms-storefront/internal/logger"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

func main() {
	down := flag.Bool("down", false, "roll back every migration instead of applying them")
	dir := flag.String("dir", "./migrations", "directory containing migration files")
	flag.Parse()

	log := logger.NewLogger("migrate")
	defer log.Close()

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
	}
	if err := db.PingContext(context.Background()); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
	}

	runner := migrations.NewRunner(db, migrations.MigrateOptions{MigrationsDir: *dir}, log)
	defer runner.Close()

	if *down {
		log.Info("MIGRATE", "Rolling back all migrations")
		err = runner.MigrateDown()
	} else {
		log.Info("MIGRATE", "Applying pending migrations")
		err = runner.MigrateUp()
	}
	if err != nil {
		log.Fatal("MIGRATE", err.Error())
	}
	log.Info("MIGRATE", "Done")
}
