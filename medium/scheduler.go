package medium

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/utils"
)

// Scheduler runs periodic feed syncs on a cron expression.
type Scheduler struct {
	cron      *cron.Cron
	syncer    *Syncer
	sourceURL string
}

// NewScheduler creates a scheduler for the given feed.
func NewScheduler(syncer *Syncer, sourceURL string) *Scheduler {
	return &Scheduler{cron: cron.New(), syncer: syncer, sourceURL: sourceURL}
}

// Start registers the cron entry and launches the scheduler. An empty spec
// disables periodic runs; initialSync additionally kicks off one sync right
// away in the background.
func (s *Scheduler) Start(spec string, initialSync bool) error {
	if s.sourceURL == "" {
		utils.Sugar.Info("feed sync scheduler disabled: no feed url configured")
		return nil
	}

	if spec != "" {
		if _, err := s.cron.AddFunc(spec, s.runOnce); err != nil {
			return err
		}
		s.cron.Start()
		utils.Sugar.Infof("feed sync scheduled with cron %q", spec)
	}

	if initialSync {
		go s.runOnce()
	}
	return nil
}

// Stop halts future runs. An in-flight sync finishes on its own.
func (s *Scheduler) Stop() {
	s.cron.Stop()
}

func (s *Scheduler) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	result, err := s.syncer.Sync(ctx, s.sourceURL, false)
	if err == ErrSyncInProgress {
		utils.Sugar.Info("scheduled sync skipped: another sync is running")
		return
	}
	if err != nil {
		utils.Sugar.Warnf("scheduled sync failed to start: %v", err)
		return
	}
	if result.Failed {
		utils.Sugar.Warnf("scheduled sync failed: %s", result.Message)
		return
	}
	utils.Sugar.Infof("scheduled sync finished: %d synced, %d skipped, %d errors",
		result.Synced, result.Skipped, result.Errors)
}
