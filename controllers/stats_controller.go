package controllers

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/models"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/utils"
)

// StatsController provides the public site-wide statistics snapshot.
type StatsController struct {
	db *gorm.DB
}

// NewStatsController creates a new StatsController instance.
func NewStatsController(db *gorm.DB) *StatsController {
	return &StatsController{db: db}
}

// GetSiteStats returns aggregate statistics over the public content. Every
// figure falls back to 0 instead of failing the whole endpoint.
func (s *StatsController) GetSiteStats(ctx *gin.Context) {
	var postCount int64
	if err := s.db.Model(&models.Post{}).
		Where("status = ?", models.PostStatusPublished).
		Count(&postCount).Error; err != nil {
		postCount = 0
	}

	var projectCount int64
	if err := s.db.Model(&models.Project{}).
		Where("status = ?", models.ProjectStatusActive).
		Count(&projectCount).Error; err != nil {
		projectCount = 0
	}

	var totals struct {
		Views int64
		Likes int64
	}
	if err := s.db.Model(&models.Post{}).
		Select("COALESCE(SUM(views),0) AS views, COALESCE(SUM(likes),0) AS likes").
		Scan(&totals).Error; err != nil {
		totals.Views, totals.Likes = 0, 0
	}

	// Today's visits: sum across all paths for the current local day bucket.
	now := time.Now().In(time.Local)
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	var visitsToday int64
	if err := s.db.Model(&models.SiteVisit{}).
		Where("date >= ? AND date < ?", dayStart, dayStart.Add(24*time.Hour)).
		Select("COALESCE(SUM(count),0)").
		Scan(&visitsToday).Error; err != nil {
		visitsToday = 0
	}

	utils.Success(ctx, gin.H{
		"post_count":    postCount,
		"project_count": projectCount,
		"total_views":   totals.Views,
		"total_likes":   totals.Likes,
		"visits_today":  visitsToday,
	})
}
