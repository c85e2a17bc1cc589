package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/usecases/inventory"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/apiErrors"
)

func GetInventoryItem(service inventory.InventoryService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serial := httprouter.ParamsFromContext(r.Context()).ByName("serial")

		item, err := service.GetItem(r.Context(), serial)
		if err != nil {
			writeError(w, err, apiErrors.ErrInternalServer)
			return
		}

		writeJSON(w, http.StatusOK, item)
	})
}

func GetInventoryHistory(service inventory.InventoryService) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		serial := httprouter.ParamsFromContext(r.Context()).ByName("serial")

		history, err := service.History(r.Context(), serial)
		if err != nil {
			writeError(w, err, apiErrors.ErrInternalServer)
			return
		}

		writeJSON(w, http.StatusOK, history)
	})
}
