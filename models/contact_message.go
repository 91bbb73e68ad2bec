package models

import "time"

// Contact message workflow status values.
const (
	ContactStatusNew      = "new"
	ContactStatusRead     = "read"
	ContactStatusReplied  = "replied"
	ContactStatusArchived = "archived"
)

// ContactMessage is a message submitted through the public contact form.
// Origin metadata (IP, user agent, country) is captured best-effort for
// moderation.
type ContactMessage struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	Name       string     `gorm:"size:128;not null" json:"name"`
	Email      string     `gorm:"size:255;not null" json:"email"`
	Message    string     `gorm:"type:text;not null" json:"message"`
	Status     string     `gorm:"size:16;default:'new';index" json:"status"`
	Replied    bool       `gorm:"default:false" json:"replied"`
	RepliedAt  *time.Time `json:"replied_at"`
	AdminNotes string     `gorm:"size:1024" json:"admin_notes"`
	IPAddress  string     `gorm:"size:45" json:"ip_address"`
	UserAgent  string     `gorm:"size:512" json:"user_agent"`
	Country    string     `gorm:"size:64" json:"country"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// ValidContactStatus reports whether s is a recognized workflow status.
func ValidContactStatus(s string) bool {
	switch s {
	case ContactStatusNew, ContactStatusRead, ContactStatusReplied, ContactStatusArchived:
		return true
	}
	return false
}
