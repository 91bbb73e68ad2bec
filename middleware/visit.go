package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/models"
)

// SiteVisitRecorder aggregates successful reads of public content into daily
// per-path counters. Only GET requests against posts and projects are
// recorded; stats, sync and admin traffic would skew the numbers.
func SiteVisitRecorder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != "GET" {
			return
		}
		status := c.Writer.Status()
		if status < 200 || status >= 400 {
			return
		}

		path := c.Request.URL.Path
		if !strings.HasPrefix(path, "/api/v1/posts") && !strings.HasPrefix(path, "/api/v1/projects") {
			return
		}
		if strings.Contains(path, "/stats") || strings.Contains(path, "/sync") {
			return
		}

		// Local midnight keys the day bucket.
		now := time.Now().In(time.Local)
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

		// Atomic upsert to avoid duplicate key errors under concurrency.
		_ = db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}, {Name: "path"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"count": gorm.Expr("count + 1"), "updated_at": time.Now()}),
		}).Create(&models.SiteVisit{Date: day, Path: path, Count: 1}).Error
	}
}
