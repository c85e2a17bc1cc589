package handler

import (
	"net/http"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/api/handler/router"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/usecases/clients"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/usecases/importing"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/usecases/inventory"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/middleware"
)

func Healthcheck(db Pinger) []router.Route {
	return []router.Route{
		{
			Path:    "/healthcheck",
			Method:  http.MethodGet,
			Handler: HealthcheckHandler(db),
		},
	}
}

func SalesImport(importer importing.SalesImporter) []router.Route {
	return []router.Route{
		{
			Path:        "/v1/sales/import",
			Method:      http.MethodPost,
			Handler:     ImportSalesCSV(importer),
			Middlewares: []func(http.Handler) http.Handler{middleware.LimitBody(MaxImportBodyBytes)},
		},
		{
			Path:        "/v1/sales/import/records",
			Method:      http.MethodPost,
			Handler:     ImportSalesRecords(importer),
			Middlewares: []func(http.Handler) http.Handler{middleware.LimitBody(MaxImportBodyBytes)},
		},
	}
}

func Clients(service clients.ClientService) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/clients/:id",
			Method:  http.MethodGet,
			Handler: GetClient(service),
		},
		{
			Path:    "/v1/clients/:id/sales",
			Method:  http.MethodGet,
			Handler: ListClientSales(service),
		},
		{
			Path:    "/v1/clients/:id/stats/recalculate",
			Method:  http.MethodPost,
			Handler: RecalculateClientStats(service),
		},
	}
}

func Inventory(service inventory.InventoryService) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/inventory/:serial",
			Method:  http.MethodGet,
			Handler: GetInventoryItem(service),
		},
		{
			Path:    "/v1/inventory/:serial/history",
			Method:  http.MethodGet,
			Handler: GetInventoryHistory(service),
		},
	}
}

func CronJobs(services CronJobServices) []router.Route {
	return []router.Route{
		{
			Path:    "/v1/cron/:type/run",
			Method:  http.MethodPost,
			Handler: RunCronJob(services),
		},
		{
			Path:    "/v1/cron",
			Method:  http.MethodGet,
			Handler: GetCronStatus(services),
		},
	}
}
