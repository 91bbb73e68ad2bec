package models

import "time"

// SiteVisit stores aggregated visit counts per day and public content path.
// It feeds the public site statistics endpoint.
type SiteVisit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Date      time.Time `gorm:"index:idx_visit_date_path,unique;not null" json:"date"`
	Path      string    `gorm:"index:idx_visit_date_path,unique;size:255;not null" json:"path"`
	Count     int64     `gorm:"not null;default:0" json:"count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
