package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/medium"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/utils"
)

// SyncController exposes the feed synchronization engine over HTTP.
type SyncController struct {
	syncer  *medium.Syncer
	feedURL string
}

// NewSyncController creates a new SyncController bound to the configured
// feed URL.
func NewSyncController(syncer *medium.Syncer, feedURL string) *SyncController {
	return &SyncController{syncer: syncer, feedURL: feedURL}
}

// TriggerSync runs a feed sync. A plain trigger while one is already running
// is rejected with 409; ?force=true cancels the running sync and starts over.
func (s *SyncController) TriggerSync(ctx *gin.Context) {
	if s.feedURL == "" {
		utils.Error(ctx, http.StatusBadRequest, 40050, "feed url not configured")
		return
	}

	force := ctx.Query("force") == "true"
	result, err := s.syncer.Sync(ctx.Request.Context(), s.feedURL, force)
	if err == medium.ErrSyncInProgress {
		utils.Error(ctx, http.StatusConflict, 40910, "a sync is already in progress")
		return
	}
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50050, "sync failed to start")
		return
	}

	// A completed run that failed mid-flight still reports its partial
	// counters; the Failed flag tells the caller what happened.
	utils.Success(ctx, gin.H{"result": result})
}

// SyncStatus reports whether a sync is running and the outcome of the most
// recent run.
func (s *SyncController) SyncStatus(ctx *gin.Context) {
	utils.Success(ctx, gin.H{
		"running":     s.feedURL != "" && s.syncer.Running(s.feedURL),
		"feed_url":    s.feedURL,
		"last_result": s.syncer.LastResult(s.feedURL),
	})
}
