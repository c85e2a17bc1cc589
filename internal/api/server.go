package api

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/justinas/alice"
	"github.com/sirupsen/logrus"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/api/handler"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/api/handler/router"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/config"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/usecases/clients"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/usecases/importing"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/usecases/inventory"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/apiErrors"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/middleware"
)

type Server struct {
	httpServer *http.Server
}

// Services groups what the HTTP layer exposes.
type Services struct {
	DB        handler.Pinger
	Importer  importing.SalesImporter
	Clients   clients.ClientService
	Inventory inventory.InventoryService
	CronJobs  handler.CronJobServices
}

func New(cfg *config.Config, services Services) (*Server, error) {
	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
			Handler:           NewHandler(cfg, services),
			ReadHeaderTimeout: 2 * time.Second,
		},
	}, nil
}

// NewHandler builds the routed handler with the global middleware chain.
func NewHandler(cfg *config.Config, services Services) http.Handler {
	rt := router.New(
		router.WithRoutes(handler.Healthcheck(services.DB)...),
		router.WithRoutes(handler.SalesImport(services.Importer)...),
		router.WithRoutes(handler.Clients(services.Clients)...),
		router.WithRoutes(handler.Inventory(services.Inventory)...),
		router.WithRoutes(handler.CronJobs(services.CronJobs)...),
		router.WithNotFound(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiErrors.WriteError(w, apiErrors.ErrResourceNotFound, "route not found", nil)
		})),
	)

	middlewares := []alice.Constructor{
		middleware.LogPanicMiddleware(),
		middleware.LoggingMiddleware(),
		middleware.Cors(cfg.CORS.AllowedOrigins),
	}

	return alice.New(middlewares...).Then(rt)
}

func (s Server) Run(ctx context.Context) error {
	go func() {
		logrus.WithFields(logrus.Fields{
			"address": s.httpServer.Addr,
		}).Info("Server starting")

		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Error("Server stopped with error")
		}
	}()

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
		logrus.Info("Interrupt signal received")
	case <-ctx.Done():
		logrus.Info("Application context cancelled")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logrus.WithFields(logrus.Fields{
		"timeout": "15s",
	}).Info("Shutting down server")

	if err := s.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Error("Error during server shutdown")
		return err
	}

	logrus.Info("Server stopped")
	return nil
}

func (s Server) Shutdown(ctx context.Context) error {
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}

	logrus.Info("HTTP server shut down")
	return nil
}
