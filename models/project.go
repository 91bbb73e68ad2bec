package models

import "time"

// Project lifecycle status values. Anonymous callers only ever see active projects.
const (
	ProjectStatusActive   = "active"
	ProjectStatusDraft    = "draft"
	ProjectStatusArchived = "archived"
)

// Project represents a portfolio project entry.
type Project struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Title        string     `gorm:"size:255;not null" json:"title"`
	Description  string     `gorm:"type:text" json:"description"`
	ImageURL     string     `gorm:"size:512" json:"image_url"`
	Technologies StringList `gorm:"type:text" json:"technologies"`
	RepoURL      string     `gorm:"size:512" json:"repo_url"`
	DemoURL      string     `gorm:"size:512" json:"demo_url"`
	Featured     bool       `gorm:"default:false" json:"featured"`
	SortOrder    int        `gorm:"default:0;index" json:"sort_order"`
	Status       string     `gorm:"size:16;default:'active';index" json:"status"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// ValidProjectStatus reports whether s is a recognized lifecycle status.
func ValidProjectStatus(s string) bool {
	switch s {
	case ProjectStatusActive, ProjectStatusDraft, ProjectStatusArchived:
		return true
	}
	return false
}
