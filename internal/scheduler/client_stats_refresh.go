// Package scheduler runs the background jobs of the reconciliation engine.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/config"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/internal/domain"
	"github.com/NitchBekker23/Vault-CRM-V1-sub004/pkg/log"
)

// ClientLister lists every client id to refresh.
type ClientLister interface {
	ListIDs(ctx context.Context) ([]string, error)
}

type StatsRecomputer interface {
	Recompute(ctx context.Context, clientID string) (*domain.ClientStats, error)
}

type ClientStatsRefreshConfig struct {
	CronSchedule      string
	MaxConcurrentJobs int
	SyncEnabled       bool
}

// RefreshResult summarizes one full pass.
type RefreshResult struct {
	Total     int      `json:"total"`
	Refreshed int      `json:"refreshed"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failed_ids,omitempty"`
}

// ClientStatsRefreshService periodically recomputes the statistics of every
// client. Import keeps stats current on its own; this pass repairs clients
// left stale by a failed recompute.
type ClientStatsRefreshService struct {
	scheduler           *gocron.Scheduler
	clients             ClientLister
	aggregator          StatsRecomputer
	config              ClientStatsRefreshConfig
	syncRunning         bool
	syncMutex           sync.Mutex
	lastSyncStartedAt   time.Time
	lastSyncCompletedAt time.Time
	lastResult          *RefreshResult
}

func NewClientStatsRefreshService(
	clients ClientLister,
	aggregator StatsRecomputer,
	cfg *config.Config,
) *ClientStatsRefreshService {
	refreshConfig := ClientStatsRefreshConfig{
		CronSchedule:      cfg.StatsRefresh.CronSchedule,
		MaxConcurrentJobs: cfg.StatsRefresh.MaxConcurrentJobs,
		SyncEnabled:       cfg.StatsRefresh.Enabled,
	}
	if refreshConfig.MaxConcurrentJobs < 1 {
		refreshConfig.MaxConcurrentJobs = 1
	}

	logrus.WithFields(logrus.Fields{
		"cron_schedule":       refreshConfig.CronSchedule,
		"max_concurrent_jobs": refreshConfig.MaxConcurrentJobs,
		"sync_enabled":        refreshConfig.SyncEnabled,
	}).Info("Client stats refresh scheduler configured")

	return &ClientStatsRefreshService{
		scheduler:  gocron.NewScheduler(time.Local),
		clients:    clients,
		aggregator: aggregator,
		config:     refreshConfig,
	}
}

func (s *ClientStatsRefreshService) Start(ctx context.Context) error {
	if !s.config.SyncEnabled {
		logrus.Info("Client stats refresh disabled by configuration")
		return nil
	}

	logrus.WithField("cron", s.config.CronSchedule).Info("Starting client stats refresh cron")

	_, err := s.scheduler.Cron(s.config.CronSchedule).Do(func() {
		if _, err := s.RefreshAll(ctx); err != nil {
			logrus.WithError(err).Error("Client stats refresh failed")
		}
	})
	if err != nil {
		return fmt.Errorf("schedule client stats refresh: %w", err)
	}

	s.scheduler.StartAsync()

	go func() {
		<-ctx.Done()
		logrus.Info("Stopping client stats refresh cron")
		s.scheduler.Stop()
	}()

	return nil
}

// RefreshAll recomputes every client. A failing client is counted and logged
// but does not stop the pass. Returns nil, nil when a pass is already running.
func (s *ClientStatsRefreshService) RefreshAll(ctx context.Context) (*RefreshResult, error) {
	s.syncMutex.Lock()
	if s.syncRunning {
		s.syncMutex.Unlock()
		logrus.Warn("Client stats refresh already running")
		return nil, nil
	}
	s.syncRunning = true
	s.lastSyncStartedAt = time.Now()
	s.syncMutex.Unlock()

	var result *RefreshResult
	defer func() {
		s.syncMutex.Lock()
		s.syncRunning = false
		s.lastSyncCompletedAt = time.Now()
		if result != nil {
			s.lastResult = result
		}
		s.syncMutex.Unlock()
	}()

	ctx = log.ContextWithCorrelationID(ctx, uuid.NewString())
	logger := log.ForContext(ctx).WithField("job", "client-stats")

	ids, err := s.clients.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}

	logger.Infof("Refreshing stats for %d clients", len(ids))

	result = s.refresh(ctx, ids)

	logger.WithFields(log.Fields{
		"client_total":     result.Total,
		"client_refreshed": result.Refreshed,
		"client_failed":    result.Failed,
	}).Info("Client stats refresh finished")

	return result, nil
}

func (s *ClientStatsRefreshService) refresh(ctx context.Context, ids []string) *RefreshResult {
	semaphore := make(chan struct{}, s.config.MaxConcurrentJobs)
	var wg sync.WaitGroup
	var refreshed int64
	var failedMu sync.Mutex
	failed := make([]string, 0)

	for _, id := range ids {
		if ctx.Err() != nil {
			failedMu.Lock()
			failed = append(failed, id)
			failedMu.Unlock()
			continue
		}

		wg.Add(1)
		semaphore <- struct{}{}

		go func(clientID string) {
			defer func() {
				<-semaphore
				wg.Done()
			}()

			if _, err := s.aggregator.Recompute(ctx, clientID); err != nil {
				log.ForContext(ctx).WithField("client_id", clientID).WithError(err).Error("Failed to refresh client stats")
				failedMu.Lock()
				failed = append(failed, clientID)
				failedMu.Unlock()
				return
			}
			atomic.AddInt64(&refreshed, 1)
		}(id)
	}

	wg.Wait()

	result := &RefreshResult{
		Total:     len(ids),
		Refreshed: int(refreshed),
		Failed:    len(failed),
	}
	if len(failed) > 0 {
		result.FailedIDs = failed
	}
	return result
}

// TriggerManualSync starts a pass in the background unless one is running.
func (s *ClientStatsRefreshService) TriggerManualSync() bool {
	s.syncMutex.Lock()
	running := s.syncRunning
	s.syncMutex.Unlock()

	if running {
		logrus.Info("Client stats refresh already running, ignoring manual trigger")
		return false
	}

	logrus.Info("Starting manual client stats refresh")
	go func() {
		if _, err := s.RefreshAll(context.Background()); err != nil {
			logrus.WithError(err).Error("Manual client stats refresh failed")
		}
	}()
	return true
}

func (s *ClientStatsRefreshService) GetStatus() map[string]any {
	s.syncMutex.Lock()
	defer s.syncMutex.Unlock()

	return map[string]any{
		"sync_enabled":           s.config.SyncEnabled,
		"sync_cron":              s.config.CronSchedule,
		"sync_max_concurrent":    s.config.MaxConcurrentJobs,
		"sync_running":           s.syncRunning,
		"last_sync_started_at":   s.lastSyncStartedAt,
		"last_sync_completed_at": s.lastSyncCompletedAt,
		"last_result":            s.lastResult,
	}
}
