package utils

import (
	"time"

	"gorm.io/gorm"

	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/config"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/models"
)

// StartContactJanitor launches a background goroutine that periodically hard
// deletes archived contact messages older than the configured retention.
// Messages carry personal data (name, email, IP), so they should not outlive
// their usefulness. Retention of zero disables the janitor pass.
func StartContactJanitor(db *gorm.DB, interval time.Duration) {
	if interval <= 0 {
		interval = 6 * time.Hour
	}
	go func() {
		for {
			// Sleep first to avoid racing immediately at startup.
			time.Sleep(interval)

			days := config.Get().ContactRetentionDays
			if days <= 0 || db == nil {
				continue
			}

			cutoff := time.Now().AddDate(0, 0, -days)
			res := db.Where("status = ? AND updated_at <= ?", models.ContactStatusArchived, cutoff).
				Delete(&models.ContactMessage{})
			if res.Error != nil {
				Sugar.Warnf("contact janitor delete failed: %v", res.Error)
				continue
			}
			if res.RowsAffected > 0 {
				Sugar.Infow("contact janitor purged archived messages",
					"purged", res.RowsAffected,
					"older_than_days", days,
				)
			}
		}
	}()
}
