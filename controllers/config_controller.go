package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/config"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/utils"
)

// ConfigController serves environment-driven site metadata for the frontend.
type ConfigController struct{}

func NewConfigController() *ConfigController { return &ConfigController{} }

// GetSite returns the public site identity block.
func (c *ConfigController) GetSite(ctx *gin.Context) {
	cfg := config.Get()
	utils.Success(ctx, gin.H{
		"owner":        cfg.SiteOwner,
		"title":        cfg.SiteTitle,
		"email":        cfg.SiteEmail,
		"github_url":   cfg.SiteGitHubURL,
		"linkedin_url": cfg.SiteLinkedInURL,
		"resume_url":   cfg.SiteResumeURL,
	})
}
