package medium

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/models"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/utils"
)

const (
	lockTTL           = 10 * time.Minute
	heartbeatInterval = 30 * time.Second
	maxReportedErrors = 20
)

// ErrSyncInProgress is returned when a sync for the same feed is already
// running, either in this process or (via the Redis lock) in another one.
var ErrSyncInProgress = errors.New("sync already in progress")

// Result summarizes one sync run.
type Result struct {
	RunID         string    `json:"run_id"`
	SourceURL     string    `json:"source_url"`
	StartedAt     time.Time `json:"started_at"`
	FinishedAt    time.Time `json:"finished_at"`
	Synced        int       `json:"synced"`
	Skipped       int       `json:"skipped"`
	Errors        int       `json:"errors"`
	ErrorMessages []string  `json:"error_messages,omitempty"`
	Failed        bool      `json:"failed"`
	Message       string    `json:"message,omitempty"`
}

type run struct {
	id     string
	cancel context.CancelFunc
	done   chan struct{}
}

// Syncer reconciles feed entries into the posts table. At most one run per
// source URL is active at a time; a forced sync cancels the active run and
// waits for it to unwind before starting over.
type Syncer struct {
	db     *gorm.DB
	client *Client
	stale  time.Duration

	mu      sync.Mutex
	runs    map[string]*run
	lastRes map[string]*Result
}

// NewSyncer builds a Syncer. stale is how long a record may go without a
// refresh before the next run rewrites it even without a newer publish date.
func NewSyncer(db *gorm.DB, client *Client, stale time.Duration) *Syncer {
	if stale <= 0 {
		stale = 24 * time.Hour
	}
	return &Syncer{
		db:      db,
		client:  client,
		stale:   stale,
		runs:    make(map[string]*run),
		lastRes: make(map[string]*Result),
	}
}

// Running reports whether a sync for sourceURL is active in this process.
func (s *Syncer) Running(sourceURL string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.runs[sourceURL]
	return ok
}

// LastResult returns the most recent completed run for sourceURL, or nil.
func (s *Syncer) LastResult(sourceURL string) *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRes[sourceURL]
}

// Sync runs a full fetch-and-reconcile pass for sourceURL.
//
// If a run for the same URL is already active, Sync returns
// ErrSyncInProgress unless force is set, in which case the active run is
// cancelled and Sync waits for it to finish tearing down before claiming the
// slot itself. A lock held by another process always wins, even over force.
func (s *Syncer) Sync(ctx context.Context, sourceURL string, force bool) (*Result, error) {
	for {
		s.mu.Lock()
		if active, ok := s.runs[sourceURL]; ok {
			s.mu.Unlock()
			if !force {
				return nil, ErrSyncInProgress
			}
			active.cancel()
			select {
			case <-active.done:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			continue
		}

		runID := uuid.NewString()
		runCtx, cancel := context.WithCancel(context.Background())
		r := &run{id: runID, cancel: cancel, done: make(chan struct{})}
		s.runs[sourceURL] = r
		s.mu.Unlock()

		if !s.acquireLock(runCtx, sourceURL, runID) {
			s.mu.Lock()
			delete(s.runs, sourceURL)
			s.mu.Unlock()
			cancel()
			close(r.done)
			return nil, ErrSyncInProgress
		}

		hbStop := make(chan struct{})
		go s.heartbeat(sourceURL, runID, hbStop)

		res := s.execute(runCtx, sourceURL, runID)

		close(hbStop)
		s.releaseLock(sourceURL, runID)

		s.mu.Lock()
		delete(s.runs, sourceURL)
		s.lastRes[sourceURL] = res
		s.mu.Unlock()

		cancel()
		close(r.done)
		return res, nil
	}
}

func (s *Syncer) execute(ctx context.Context, sourceURL, runID string) *Result {
	res := &Result{RunID: runID, SourceURL: sourceURL, StartedAt: time.Now()}
	utils.Sugar.Infow("feed sync started", "run_id", runID, "source", sourceURL)

	items, err := s.client.Fetch(ctx, sourceURL)
	if err != nil {
		res.Failed = true
		res.Message = err.Error()
		res.FinishedAt = time.Now()
		utils.Sugar.Errorw("feed sync failed", "run_id", runID, "source", sourceURL, "error", err)
		return res
	}

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			res.Failed = true
			res.Message = "cancelled: " + err.Error()
			break
		}
		post, ok := Normalize(item)
		if !ok {
			res.Skipped++
			utils.Sugar.Warnw("feed entry skipped", "run_id", runID, "guid", item.GUID, "title", item.Title)
			continue
		}
		if err := s.reconcile(&post); err != nil {
			res.Errors++
			if len(res.ErrorMessages) < maxReportedErrors {
				res.ErrorMessages = append(res.ErrorMessages, post.ExternalID+": "+err.Error())
			}
			s.markFailed(post.ExternalID)
			continue
		}
		res.Synced++
	}

	res.FinishedAt = time.Now()
	if res.Synced > 0 {
		utils.InvalidateByPrefix("cache:posts:")
	}
	utils.Sugar.Infow("feed sync finished",
		"run_id", runID,
		"synced", res.Synced,
		"skipped", res.Skipped,
		"errors", res.Errors,
		"failed", res.Failed,
		"duration", res.FinishedAt.Sub(res.StartedAt).String(),
	)
	return res
}

// reconcile inserts a normalized entry or refreshes the stored copy.
// Views, likes, featured, slug and status are owned locally and survive
// refreshes untouched.
func (s *Syncer) reconcile(incoming *models.Post) error {
	now := time.Now()
	var existing models.Post
	err := s.db.Where("external_id = ?", incoming.ExternalID).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		incoming.Slug = s.uniqueSlug(incoming.Title, incoming.ExternalID)
		incoming.Status = models.PostStatusPublished
		incoming.SyncStatus = models.SyncStatusSynced
		incoming.LastSyncedAt = &now
		return s.db.Create(incoming).Error
	}
	if err != nil {
		return err
	}
	if !s.needsRefresh(&existing, incoming, now) {
		return nil
	}
	updates := map[string]interface{}{
		"title":          incoming.Title,
		"description":    incoming.Description,
		"content":        incoming.Content,
		"excerpt":        incoming.Excerpt,
		"author":         incoming.Author,
		"source_url":     incoming.SourceURL,
		"image_url":      incoming.ImageURL,
		"tags":           incoming.Tags,
		"categories":     incoming.Categories,
		"reading_time":   incoming.ReadingTime,
		"published_at":   incoming.PublishedAt,
		"last_synced_at": now,
		"sync_status":    models.SyncStatusSynced,
	}
	return s.db.Model(&models.Post{}).Where("id = ?", existing.ID).Updates(updates).Error
}

// needsRefresh decides whether a stored post must be rewritten from the feed:
// a previous failure, a newer publish date, or a record gone stale.
func (s *Syncer) needsRefresh(existing, incoming *models.Post, now time.Time) bool {
	if existing.SyncStatus == models.SyncStatusFailed {
		return true
	}
	if incoming.PublishedAt.After(existing.PublishedAt) {
		return true
	}
	if existing.LastSyncedAt == nil || now.Sub(*existing.LastSyncedAt) > s.stale {
		return true
	}
	return false
}

func (s *Syncer) uniqueSlug(title, externalID string) string {
	slug := utils.Slugify(title)
	if slug == "" {
		slug = externalID
	}
	var count int64
	s.db.Model(&models.Post{}).Where("slug = ?", slug).Count(&count)
	if count > 0 {
		suffix := externalID
		if len(suffix) > 6 {
			suffix = suffix[:6]
		}
		slug = slug + "-" + suffix
	}
	return slug
}

func (s *Syncer) markFailed(externalID string) {
	err := s.db.Model(&models.Post{}).
		Where("external_id = ?", externalID).
		Update("sync_status", models.SyncStatusFailed).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		utils.Sugar.Warnf("mark sync failure for %s: %v", externalID, err)
	}
}

// Redis lock. The value is the run id so only the owner can refresh or
// release it. Redis being down must never stop syncs, so every operation
// fails open.

func lockKey(sourceURL string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	return "sync:lock:" + hex.EncodeToString(sum[:8])
}

var refreshLockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0`)

var releaseLockScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

func (s *Syncer) acquireLock(ctx context.Context, sourceURL, runID string) bool {
	cli := utils.GetRedis()
	ctx2, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	ok, err := cli.SetNX(ctx2, lockKey(sourceURL), runID, lockTTL).Result()
	if err != nil {
		utils.Sugar.Warnf("sync lock unavailable, proceeding without it: %v", err)
		return true
	}
	if !ok {
		utils.Sugar.Infow("sync lock held elsewhere", "source", sourceURL)
	}
	return ok
}

func (s *Syncer) heartbeat(sourceURL, runID string, stop <-chan struct{}) {
	cli := utils.GetRedis()
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			n, err := refreshLockScript.Run(ctx, cli, []string{lockKey(sourceURL)}, runID, lockTTL.Milliseconds()).Int()
			cancel()
			if err != nil {
				utils.Sugar.Warnf("sync lock heartbeat failed: %v", err)
			} else if n == 0 {
				utils.Sugar.Warnw("sync lock lost", "source", sourceURL, "run_id", runID)
			}
		}
	}
}

func (s *Syncer) releaseLock(sourceURL, runID string) {
	cli := utils.GetRedis()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := releaseLockScript.Run(ctx, cli, []string{lockKey(sourceURL)}, runID).Err(); err != nil && !errors.Is(err, redis.Nil) {
		utils.Sugar.Warnf("sync lock release failed: %v", err)
	}
}
