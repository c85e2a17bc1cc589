package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/usecases/clients"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/apiErrors"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/log"
)

func GetClient(service clients.ClientService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := httprouter.ParamsFromContext(r.Context()).ByName("id")

		client, err := service.GetClient(r.Context(), id)
		if err != nil {
			writeError(w, err, apiErrors.ErrInternalServer)
			return
		}

		writeJSON(w, http.StatusOK, client)
	})
}

func ListClientSales(service clients.ClientService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := httprouter.ParamsFromContext(r.Context()).ByName("id")

		sales, err := service.ListSales(r.Context(), id)
		if err != nil {
			writeError(w, err, apiErrors.ErrInternalServer)
			return
		}

		writeJSON(w, http.StatusOK, sales)
	})
}

func RecalculateClientStats(service clients.ClientService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := httprouter.ParamsFromContext(r.Context()).ByName("id")
		log.ForContext(r.Context()).WithField("client_id", id).Info("INIT - RecalculateClientStats")

		client, err := service.RecalculateStats(r.Context(), id)
		if err != nil {
			writeError(w, err, apiErrors.ErrInternalServer)
			return
		}

		writeJSON(w, http.StatusOK, client)
	})
}
