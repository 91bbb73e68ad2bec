package models

import "time"

// Post lifecycle status values. Anonymous callers only ever see published posts.
const (
	PostStatusPublished = "published"
	PostStatusDraft     = "draft"
	PostStatusArchived  = "archived"
)

// Sync status values for posts ingested from the external feed.
const (
	SyncStatusSynced  = "synced"
	SyncStatusPending = "pending"
	SyncStatusFailed  = "failed"
)

// Post represents a blog post, either ingested from the Medium feed or
// authored locally. Views, Likes, Featured, Slug and Status are owned locally
// and are never overwritten by a feed sync.
type Post struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	ExternalID   string     `gorm:"size:64;uniqueIndex;not null" json:"external_id"`
	Slug         string     `gorm:"size:255;uniqueIndex;not null" json:"slug"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Description  string     `gorm:"size:512" json:"description"`
	Content      string     `gorm:"type:longtext" json:"content"`
	Excerpt      string     `gorm:"size:255" json:"excerpt"`
	Author       string     `gorm:"size:128" json:"author"`
	SourceURL    string     `gorm:"size:512" json:"source_url"`
	ImageURL     string     `gorm:"size:512" json:"image_url"`
	Tags         StringList `gorm:"type:text" json:"tags"`
	Categories   StringList `gorm:"type:text" json:"categories"`
	Status       string     `gorm:"size:16;default:'published';index" json:"status"`
	Featured     bool       `gorm:"default:false" json:"featured"`
	Views        int64      `gorm:"default:0" json:"views"`
	Likes        int64      `gorm:"default:0" json:"likes"`
	ReadingTime  int        `gorm:"default:0" json:"reading_time"`
	PublishedAt  time.Time  `gorm:"index" json:"published_at"`
	LastSyncedAt *time.Time `json:"last_synced_at"`
	SyncStatus   string     `gorm:"size:16;default:'synced'" json:"sync_status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ValidPostStatus reports whether s is a recognized lifecycle status.
func ValidPostStatus(s string) bool {
	switch s {
	case PostStatusPublished, PostStatusDraft, PostStatusArchived:
		return true
	}
	return false
}
