package medium

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/models"
)

func TestMain(m *testing.M) {
	// Config is loaded once per process and requires a JWT secret.
	os.Setenv("JWT_SECRET", "test-secret")
	os.Exit(m.Run())
}

func syncTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := "file:" + name + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Post{}))
	return db
}

type feedItem struct {
	guid    string
	title   string
	link    string
	pubDate time.Time
	content string
	tags    []string
}

func (fi feedItem) xml() string {
	var b strings.Builder
	b.WriteString("<item>")
	if fi.title != "" {
		b.WriteString("<title><![CDATA[" + fi.title + "]]></title>")
	}
	if fi.guid != "" {
		b.WriteString(`<guid isPermaLink="false">` + fi.guid + "</guid>")
	}
	if fi.link != "" {
		b.WriteString("<link>" + fi.link + "</link>")
	}
	if !fi.pubDate.IsZero() {
		b.WriteString("<pubDate>" + fi.pubDate.Format(time.RFC1123Z) + "</pubDate>")
	}
	for _, tag := range fi.tags {
		b.WriteString("<category><![CDATA[" + tag + "]]></category>")
	}
	if fi.content != "" {
		b.WriteString("<content:encoded><![CDATA[" + fi.content + "]]></content:encoded>")
	}
	b.WriteString("</item>")
	return b.String()
}

func feedXML(items ...feedItem) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<rss version="2.0" xmlns:content="http://purl.org/rss/1.0/modules/content/">`)
	b.WriteString("<channel><title>@mukesh on Medium</title><link>https://medium.com/@mukesh</link>")
	for _, it := range items {
		b.WriteString(it.xml())
	}
	b.WriteString("</channel></rss>")
	return b.String()
}

// feedServer serves a mutable RSS document, optionally delaying the first
// request so cancellation paths can be exercised.
type feedServer struct {
	srv *httptest.Server

	mu         sync.Mutex
	body       string
	status     int
	firstDelay time.Duration
	hits       int
}

func newFeedServer(items ...feedItem) *feedServer {
	fs := &feedServer{body: feedXML(items...), status: http.StatusOK}
	fs.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fs.mu.Lock()
		fs.hits++
		delay := time.Duration(0)
		if fs.hits == 1 {
			delay = fs.firstDelay
		}
		body, status := fs.body, fs.status
		fs.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	return fs
}

func (fs *feedServer) setItems(items ...feedItem) {
	fs.mu.Lock()
	fs.body = feedXML(items...)
	fs.mu.Unlock()
}

func (fs *feedServer) Close() { fs.srv.Close() }
func (fs *feedServer) URL() string {
	return fs.srv.URL + "/feed/@mukesh"
}

var basePub = time.Date(2025, 2, 1, 8, 0, 0, 0, time.UTC)

func storyItem(id, title string, pub time.Time) feedItem {
	return feedItem{
		guid:    "https://medium.com/p/" + id,
		title:   title,
		link:    "https://medium.com/@mukesh/" + id,
		pubDate: pub,
		content: "<p>" + strings.TrimSpace(strings.Repeat(title+" body text ", 30)) + "</p>",
		tags:    []string{"go", "web"},
	}
}

func TestSyncInsertsNewPosts(t *testing.T) {
	db := syncTestDB(t, "sync_insert")
	fs := newFeedServer(
		storyItem("aa11bb22cc33", "First Post", basePub),
		storyItem("dd44ee55ff66", "Second Post", basePub.Add(time.Hour)),
	)
	defer fs.Close()

	s := NewSyncer(db, NewClient(), 24*time.Hour)
	res, err := s.Sync(context.Background(), fs.URL(), false)
	require.NoError(t, err)

	assert.False(t, res.Failed)
	assert.Equal(t, 2, res.Synced)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, 0, res.Errors)
	assert.NotEmpty(t, res.RunID)

	var posts []models.Post
	require.NoError(t, db.Order("published_at ASC").Find(&posts).Error)
	require.Len(t, posts, 2)

	first := posts[0]
	assert.Equal(t, "aa11bb22cc33", first.ExternalID)
	assert.Equal(t, "first-post", first.Slug)
	assert.Equal(t, models.PostStatusPublished, first.Status)
	assert.Equal(t, models.SyncStatusSynced, first.SyncStatus)
	assert.NotNil(t, first.LastSyncedAt)
	assert.GreaterOrEqual(t, first.ReadingTime, 1)
	assert.Equal(t, models.StringList{"go", "web"}, first.Tags)
}

func TestSyncIsIdempotent(t *testing.T) {
	db := syncTestDB(t, "sync_idempotent")
	fs := newFeedServer(storyItem("0a1b2c3d4e5f", "Stable Post", basePub))
	defer fs.Close()

	s := NewSyncer(db, NewClient(), 24*time.Hour)
	_, err := s.Sync(context.Background(), fs.URL(), false)
	require.NoError(t, err)

	// Locally owned fields set between runs must survive the second pass.
	require.NoError(t, db.Model(&models.Post{}).
		Where("external_id = ?", "0a1b2c3d4e5f").
		Updates(map[string]interface{}{"views": 7, "likes": 3, "featured": true}).Error)

	res, err := s.Sync(context.Background(), fs.URL(), false)
	require.NoError(t, err)
	assert.False(t, res.Failed)

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(1), count, "re-running a sync must not duplicate posts")

	var post models.Post
	require.NoError(t, db.Where("external_id = ?", "0a1b2c3d4e5f").First(&post).Error)
	assert.Equal(t, int64(7), post.Views)
	assert.Equal(t, int64(3), post.Likes)
	assert.True(t, post.Featured)
	assert.Equal(t, "stable-post", post.Slug)
}

func TestSyncSkipsEntriesWithoutIdentity(t *testing.T) {
	db := syncTestDB(t, "sync_skip")
	fs := newFeedServer(
		feedItem{title: "Orphan entry", pubDate: basePub},
		storyItem("1234abcd5678", "Valid Post", basePub),
	)
	defer fs.Close()

	s := NewSyncer(db, NewClient(), 24*time.Hour)
	res, err := s.Sync(context.Background(), fs.URL(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Synced)
	assert.Equal(t, 1, res.Skipped)

	var count int64
	require.NoError(t, db.Model(&models.Post{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestSyncRefreshesNewerEntries(t *testing.T) {
	db := syncTestDB(t, "sync_refresh")
	fs := newFeedServer(storyItem("abcd1234abcd", "Original Title", basePub))
	defer fs.Close()

	s := NewSyncer(db, NewClient(), 24*time.Hour)
	_, err := s.Sync(context.Background(), fs.URL(), false)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Post{}).
		Where("external_id = ?", "abcd1234abcd").
		Updates(map[string]interface{}{"views": 11, "status": models.PostStatusDraft}).Error)

	fs.setItems(storyItem("abcd1234abcd", "Revised Title", basePub.Add(2*time.Hour)))
	_, err = s.Sync(context.Background(), fs.URL(), false)
	require.NoError(t, err)

	var post models.Post
	require.NoError(t, db.Where("external_id = ?", "abcd1234abcd").First(&post).Error)
	assert.Equal(t, "Revised Title", post.Title)
	assert.Equal(t, "original-title", post.Slug, "slug is assigned once and never rewritten")
	assert.Equal(t, int64(11), post.Views)
	assert.Equal(t, models.PostStatusDraft, post.Status, "status is owned locally")
}

func TestSyncIgnoresUnchangedEntries(t *testing.T) {
	db := syncTestDB(t, "sync_noop")
	fs := newFeedServer(storyItem("eeee1111ffff", "Settled Title", basePub))
	defer fs.Close()

	s := NewSyncer(db, NewClient(), 24*time.Hour)
	_, err := s.Sync(context.Background(), fs.URL(), false)
	require.NoError(t, err)

	// Same publish date: the changed title must not be written back.
	fs.setItems(storyItem("eeee1111ffff", "Rewritten Elsewhere", basePub))
	_, err = s.Sync(context.Background(), fs.URL(), false)
	require.NoError(t, err)

	var post models.Post
	require.NoError(t, db.Where("external_id = ?", "eeee1111ffff").First(&post).Error)
	assert.Equal(t, "Settled Title", post.Title)
}

func TestSyncRefreshesStaleRecords(t *testing.T) {
	db := syncTestDB(t, "sync_stale")
	fs := newFeedServer(storyItem("9999aaaa0000", "Stale Post", basePub))
	defer fs.Close()

	s := NewSyncer(db, NewClient(), time.Millisecond)
	_, err := s.Sync(context.Background(), fs.URL(), false)
	require.NoError(t, err)

	time.Sleep(10 * time.Millisecond)
	fs.setItems(storyItem("9999aaaa0000", "Freshened Post", basePub))
	_, err = s.Sync(context.Background(), fs.URL(), false)
	require.NoError(t, err)

	var post models.Post
	require.NoError(t, db.Where("external_id = ?", "9999aaaa0000").First(&post).Error)
	assert.Equal(t, "Freshened Post", post.Title)
}

func TestSyncRefreshesFailedRecords(t *testing.T) {
	db := syncTestDB(t, "sync_failed_refresh")
	fs := newFeedServer(storyItem("5555bbbb6666", "Recovering Post", basePub))
	defer fs.Close()

	s := NewSyncer(db, NewClient(), 24*time.Hour)
	_, err := s.Sync(context.Background(), fs.URL(), false)
	require.NoError(t, err)

	require.NoError(t, db.Model(&models.Post{}).
		Where("external_id = ?", "5555bbbb6666").
		Update("sync_status", models.SyncStatusFailed).Error)

	_, err = s.Sync(context.Background(), fs.URL(), false)
	require.NoError(t, err)

	var post models.Post
	require.NoError(t, db.Where("external_id = ?", "5555bbbb6666").First(&post).Error)
	assert.Equal(t, models.SyncStatusSynced, post.SyncStatus)
}

func TestSyncSlugCollision(t *testing.T) {
	db := syncTestDB(t, "sync_slug_collision")
	fs := newFeedServer(
		storyItem("a1b2c3000001", "Duplicate Title", basePub),
		storyItem("f6e5d4000002", "Duplicate Title", basePub.Add(time.Minute)),
	)
	defer fs.Close()

	s := NewSyncer(db, NewClient(), 24*time.Hour)
	res, err := s.Sync(context.Background(), fs.URL(), false)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Synced)
	assert.Equal(t, 0, res.Errors)

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	require.Len(t, posts, 2)
	assert.NotEqual(t, posts[0].Slug, posts[1].Slug)
	for _, p := range posts {
		assert.True(t, strings.HasPrefix(p.Slug, "duplicate-title"))
	}
}

func TestSyncReportsFetchFailure(t *testing.T) {
	db := syncTestDB(t, "sync_fetch_failure")
	fs := newFeedServer()
	fs.mu.Lock()
	fs.status = http.StatusInternalServerError
	fs.mu.Unlock()
	defer fs.Close()

	s := NewSyncer(db, NewClient(), 24*time.Hour)
	res, err := s.Sync(context.Background(), fs.URL(), false)
	require.NoError(t, err, "a failed run still reports a result")

	assert.True(t, res.Failed)
	assert.NotEmpty(t, res.Message)
	assert.Same(t, res, s.LastResult(fs.URL()))
}

func TestSyncRejectsConcurrentRuns(t *testing.T) {
	db := syncTestDB(t, "sync_concurrent")
	fs := newFeedServer(storyItem("1111cccc2222", "Slow Post", basePub))
	fs.mu.Lock()
	fs.firstDelay = 200 * time.Millisecond
	fs.mu.Unlock()
	defer fs.Close()

	s := NewSyncer(db, NewClient(), 24*time.Hour)

	var (
		firstRes *Result
		firstErr error
		done     = make(chan struct{})
	)
	go func() {
		firstRes, firstErr = s.Sync(context.Background(), fs.URL(), false)
		close(done)
	}()

	require.Eventually(t, func() bool { return s.Running(fs.URL()) },
		time.Second, 5*time.Millisecond)

	_, err := s.Sync(context.Background(), fs.URL(), false)
	assert.ErrorIs(t, err, ErrSyncInProgress)

	<-done
	require.NoError(t, firstErr)
	assert.False(t, firstRes.Failed)
	assert.Equal(t, 1, firstRes.Synced)
	assert.False(t, s.Running(fs.URL()))
}

func TestForceSyncCancelsRunningSync(t *testing.T) {
	db := syncTestDB(t, "sync_force")
	fs := newFeedServer(storyItem("3333dddd4444", "Forced Post", basePub))
	fs.mu.Lock()
	fs.firstDelay = 2 * time.Second
	fs.mu.Unlock()
	defer fs.Close()

	s := NewSyncer(db, NewClient(), 24*time.Hour)

	var (
		firstRes *Result
		firstErr error
		done     = make(chan struct{})
	)
	go func() {
		firstRes, firstErr = s.Sync(context.Background(), fs.URL(), false)
		close(done)
	}()

	require.Eventually(t, func() bool { return s.Running(fs.URL()) },
		time.Second, 5*time.Millisecond)

	forcedRes, err := s.Sync(context.Background(), fs.URL(), true)
	require.NoError(t, err)
	assert.False(t, forcedRes.Failed)
	assert.Equal(t, 1, forcedRes.Synced)

	<-done
	require.NoError(t, firstErr)
	assert.True(t, firstRes.Failed, "the cancelled run reports failure")

	assert.False(t, s.Running(fs.URL()))
	assert.Same(t, forcedRes, s.LastResult(fs.URL()))
}
