package main

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/cache"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/database/postgres"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/infrastructure/repository"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/api"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/api/handler"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/config"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/scheduler"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/usecases/clients"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/usecases/importing"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/usecases/inventory"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/log"
)

func main() {
	configureLogger()

	cfg, err := config.NewConfig()
	if err != nil {
		logrus.Fatal(err)
	}

	log.SetLevel(cfg.App.LogLevel)
	logrus.Infof("Log level set to: %s", logrus.GetLevel())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pgConn := pgconn(ctx, cfg.Database)
	defer pgConn.Close()

	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		logrus.WithError(err).Fatal("Error connecting to Redis")
	}
	defer redisClient.Close()

	clientRepo := repository.NewClientRepository(pgConn)
	saleRepo := repository.NewSaleRepository(pgConn)
	inventoryRepo := repository.NewInventoryRepository(pgConn)
	statusChangeRepo := repository.NewStatusChangeRepository(pgConn)
	referenceRepo := repository.NewReferenceRepository(pgConn)
	transactions := repository.NewTransactionManager(pgConn)

	clientCache := cache.NewClientCache(redisClient, clientRepo)
	referenceCache := cache.NewReferenceCache(redisClient, referenceRepo)

	tierPolicy, err := importing.NewTierPolicy(cfg.VIPPolicy)
	if err != nil {
		logrus.WithError(err).Fatal("Invalid VIP policy configuration")
	}

	aggregator := importing.NewClientStatsAggregator(transactions, tierPolicy, clientCache)
	importer := importing.NewService(transactions, referenceCache, aggregator, cfg.Import)
	clientService := clients.NewService(clientCache, saleRepo, aggregator)
	inventoryService := inventory.NewService(inventoryRepo, statusChangeRepo)

	statsRefreshService := scheduler.NewClientStatsRefreshService(clientRepo, aggregator, cfg)
	if err := statsRefreshService.Start(ctx); err != nil {
		logrus.WithError(err).Error("Error starting the client stats refresh scheduler")
	} else {
		logrus.Info("Client stats refresh scheduler started")
	}

	server, err := api.New(cfg, api.Services{
		DB:        pgConn,
		Importer:  importer,
		Clients:   clientService,
		Inventory: inventoryService,
		CronJobs: handler.CronJobServices{
			handler.CronJobTypeClientStats: statsRefreshService,
		},
	})
	if err != nil {
		logrus.Fatal(err)
	}

	if err := server.Run(ctx); err != nil {
		logrus.Error(err)
	}
}

func configureLogger() {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
}

func pgconn(ctx context.Context, dbConfig config.Database) *postgres.Connection {
	conn, err := postgres.NewConnection(ctx, dbConfig)
	if err != nil {
		logrus.WithError(err).Fatal("Error connecting to PostgreSQL")
	}

	if err := conn.Ping(ctx); err != nil {
		logrus.WithError(err).Fatal("Error pinging PostgreSQL")
	}

	logrus.Info("PostgreSQL connection established")
	return conn
}
