package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/sirupsen/logrus"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/apiErrors"
)

const (
	CronJobTypeClientStats = "client-stats"
	CronJobTypeAll         = "all"
)

// CronJob is a background job that can be triggered by hand.
type CronJob interface {
	TriggerManualSync() bool
	GetStatus() map[string]any
}

// CronJobServices maps job type to job. A nil entry means the job is not wired.
type CronJobServices map[string]CronJob

func RunCronJob(services CronJobServices) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logrus.Info("INIT - RunCronJob")

		cronType := httprouter.ParamsFromContext(r.Context()).ByName("type")
		if cronType == "" {
			apiErrors.WriteError(w, apiErrors.ErrMissingRequiredData, "cron job type not specified", nil)
			return
		}

		started := make(map[string]bool)

		if cronType == CronJobTypeAll {
			for name, job := range services {
				if job != nil {
					started[name] = job.TriggerManualSync()
				}
			}
		} else {
			job, ok := services[cronType]
			if !ok {
				apiErrors.WriteError(w, apiErrors.ErrInvalidRequest, "unknown cron job type", map[string]any{"accepted": acceptedCronTypes(services)})
				return
			}
			if job == nil {
				apiErrors.WriteError(w, apiErrors.ErrInternalServer, "cron job not available", nil)
				return
			}
			started[cronType] = job.TriggerManualSync()
		}

		writeJSON(w, http.StatusAccepted, map[string]any{
			"message": "cron job triggered",
			"type":    cronType,
			"started": started,
		})
	})
}

func GetCronStatus(services CronJobServices) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := make(map[string]any, len(services))
		for name, job := range services {
			if job != nil {
				status[name] = job.GetStatus()
			}
		}

		writeJSON(w, http.StatusOK, status)
	})
}

func acceptedCronTypes(services CronJobServices) []string {
	types := make([]string, 0, len(services)+1)
	for name := range services {
		types = append(types, name)
	}
	return append(types, CronJobTypeAll)
}
