package main

import (
	"context"
	"database/sql"
	"flag"
	"time"

	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/cache"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/migration"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/config"
)

func setupLogger() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	logrus.Info("Starting migration script...")
}

// refreshReferenceCache drops cached code lists so running imports see the
// seeded codes without waiting for the TTL.
func refreshReferenceCache(ctx context.Context, cfg config.Redis) {
	redisClient, err := cache.NewRedisClient(cfg)
	if err != nil {
		logrus.WithError(err).Warn("Redis unavailable, cached reference codes expire on their TTL")
		return
	}
	defer redisClient.Close()

	if err := cache.NewReferenceCache(redisClient, nil).Refresh(ctx); err != nil {
		logrus.WithError(err).Warn("Failed to drop cached reference codes")
	}
}

func main() {
	stores := flag.String("stores", "", `store codes to seed, "CODE:Name,CODE2:Name"`)
	salespersons := flag.String("salespersons", "", `salesperson codes to seed, "CODE:Name,CODE2:Name"`)
	flag.Parse()

	setupLogger()

	storeCodes, err := migration.ParseReferenceCodes(*stores)
	if err != nil {
		logrus.WithError(err).Fatal("Invalid -stores value")
	}
	salespersonCodes, err := migration.ParseReferenceCodes(*salespersons)
	if err != nil {
		logrus.WithError(err).Fatal("Invalid -salespersons value")
	}

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Error loading configuration")
	}

	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Error connecting to the database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		logrus.WithError(err).Fatal("Error pinging the database")
	}
	logrus.Info("Database connection established")

	if err := migration.Apply(ctx, db); err != nil {
		logrus.WithError(err).Fatal("Migration failed")
	}

	if _, err := migration.SeedStores(ctx, db, storeCodes); err != nil {
		logrus.WithError(err).Fatal("Store seed failed")
	}
	if _, err := migration.SeedSalespersons(ctx, db, salespersonCodes); err != nil {
		logrus.WithError(err).Fatal("Salesperson seed failed")
	}

	refreshReferenceCache(ctx, cfg.Redis)

	logrus.Info("Migration completed")
}
