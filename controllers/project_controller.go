package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/models"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/utils"
)

const maxProjectTechnologies = 20

var projectSortFields = map[string]string{
	"sort_order": "sort_order",
	"created_at": "created_at",
	"updated_at": "updated_at",
	"title":      "title",
}

// ProjectController manages portfolio project entries.
type ProjectController struct {
	db *gorm.DB
}

// NewProjectController creates a new ProjectController instance.
func NewProjectController(db *gorm.DB) *ProjectController {
	return &ProjectController{db: db}
}

// ListProjects returns paginated projects. Anonymous callers are pinned to
// the active status; admins may filter by any status.
func (p *ProjectController) ListProjects(ctx *gin.Context) {
	page, limit := parsePagination(ctx.Query("page"), ctx.Query("limit"))
	search := strings.TrimSpace(ctx.Query("search"))
	technology := strings.TrimSpace(ctx.Query("technology"))
	featured := strings.TrimSpace(ctx.Query("featured"))
	status := strings.TrimSpace(ctx.Query("status"))
	admin := callerIsAdmin(ctx)

	if !admin {
		status = models.ProjectStatusActive
	} else if status != "" && !models.ValidProjectStatus(status) {
		utils.Error(ctx, http.StatusBadRequest, 40030, "invalid status filter")
		return
	}

	order := "sort_order ASC, created_at DESC"
	if sortParam := strings.TrimSpace(ctx.Query("sort")); sortParam != "" {
		order = sortColumn(projectSortFields, sortParam, ctx.Query("order"), order)
	}

	cacheable := !admin && search == ""
	cacheKey := fmt.Sprintf("cache:projects:list:tech=%s:feat=%s:sort=%s:page=%d:limit=%d",
		technology, featured, order, page, limit)
	if cacheable {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	query := p.db.Model(&models.Project{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if technology != "" {
		query = query.Where("technologies LIKE ?", labelPattern(technology))
	}
	if featured != "" {
		query = query.Where("featured = ?", featured == "true")
	}
	if search != "" {
		like := "%" + utils.EscapeLike(search) + "%"
		query = query.Where("title LIKE ? OR description LIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50030, "failed to count projects")
		return
	}

	var projects []models.Project
	if err := query.Order(order).Offset((page - 1) * limit).Limit(limit).Find(&projects).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50031, "failed to list projects")
		return
	}

	payload := gin.H{
		"items":      projects,
		"pagination": paginationMeta(page, limit, total),
	}
	if cacheable {
		utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	}
	utils.Success(ctx, payload)
}

// GetProject returns a single project by ID. Anonymous callers only see
// active projects.
func (p *ProjectController) GetProject(ctx *gin.Context) {
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param("id")), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "project not found")
		return
	}

	query := p.db
	if !callerIsAdmin(ctx) {
		query = query.Where("status = ?", models.ProjectStatusActive)
	}

	var project models.Project
	if err := query.Where("id = ?", uint(id)).First(&project).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40402, "project not found")
		} else {
			utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load project")
		}
		return
	}

	utils.Success(ctx, gin.H{"project": project})
}

// CreateProject creates a new project entry.
func (p *ProjectController) CreateProject(ctx *gin.Context) {
	var req struct {
		Title        string   `json:"title" binding:"required,min=1"`
		Description  string   `json:"description"`
		ImageURL     string   `json:"image_url"`
		Technologies []string `json:"technologies"`
		RepoURL      string   `json:"repo_url"`
		DemoURL      string   `json:"demo_url"`
		Featured     bool     `json:"featured"`
		SortOrder    int      `json:"sort_order"`
		Status       string   `json:"status"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40031, "invalid request payload")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40032, "title cannot be empty")
		return
	}

	status := req.Status
	if status == "" {
		status = models.ProjectStatusActive
	}
	if !models.ValidProjectStatus(status) {
		utils.Error(ctx, http.StatusBadRequest, 40033, "invalid status")
		return
	}

	project := models.Project{
		Title:        title,
		Description:  strings.TrimSpace(req.Description),
		ImageURL:     strings.TrimSpace(req.ImageURL),
		Technologies: models.StringList(capLabels(req.Technologies, maxProjectTechnologies)),
		RepoURL:      strings.TrimSpace(req.RepoURL),
		DemoURL:      strings.TrimSpace(req.DemoURL),
		Featured:     req.Featured,
		SortOrder:    req.SortOrder,
		Status:       status,
	}

	if err := p.db.Create(&project).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50033, "failed to create project")
		return
	}

	utils.InvalidateByPrefix("cache:projects:")
	utils.Success(ctx, gin.H{"project": project})
}

// UpdateProject overwrites fields of an existing project.
func (p *ProjectController) UpdateProject(ctx *gin.Context) {
	var req struct {
		Title        string   `json:"title" binding:"required,min=1"`
		Description  *string  `json:"description"`
		ImageURL     *string  `json:"image_url"`
		Technologies []string `json:"technologies"`
		RepoURL      *string  `json:"repo_url"`
		DemoURL      *string  `json:"demo_url"`
		Featured     *bool    `json:"featured"`
		SortOrder    *int     `json:"sort_order"`
		Status       *string  `json:"status"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40034, "invalid request payload")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40032, "title cannot be empty")
		return
	}

	project, ok := p.loadProjectByID(ctx)
	if !ok {
		return
	}

	updates := map[string]interface{}{"title": title}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*req.ImageURL)
	}
	if req.Technologies != nil {
		updates["technologies"] = models.StringList(capLabels(req.Technologies, maxProjectTechnologies))
	}
	if req.RepoURL != nil {
		updates["repo_url"] = strings.TrimSpace(*req.RepoURL)
	}
	if req.DemoURL != nil {
		updates["demo_url"] = strings.TrimSpace(*req.DemoURL)
	}
	if req.Featured != nil {
		updates["featured"] = *req.Featured
	}
	if req.SortOrder != nil {
		updates["sort_order"] = *req.SortOrder
	}
	if req.Status != nil {
		if !models.ValidProjectStatus(*req.Status) {
			utils.Error(ctx, http.StatusBadRequest, 40033, "invalid status")
			return
		}
		updates["status"] = *req.Status
	}

	if err := p.db.Model(&models.Project{}).Where("id = ?", project.ID).Updates(updates).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50034, "failed to update project")
		return
	}

	var updated models.Project
	if err := p.db.First(&updated, project.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load project")
		return
	}

	utils.InvalidateByPrefix("cache:projects:")
	utils.Success(ctx, gin.H{"project": updated})
}

// DeleteProject hard-deletes a project.
func (p *ProjectController) DeleteProject(ctx *gin.Context) {
	project, ok := p.loadProjectByID(ctx)
	if !ok {
		return
	}

	if err := p.db.Delete(&models.Project{}, project.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50035, "failed to delete project")
		return
	}

	utils.InvalidateByPrefix("cache:projects:")
	utils.Success(ctx, gin.H{"message": "project deleted"})
}

// ProjectStats returns count-based aggregates over all projects.
func (p *ProjectController) ProjectStats(ctx *gin.Context) {
	var total int64
	if err := p.db.Model(&models.Project{}).Count(&total).Error; err != nil {
		total = 0
	}

	byStatus := gin.H{
		models.ProjectStatusActive:   int64(0),
		models.ProjectStatusDraft:    int64(0),
		models.ProjectStatusArchived: int64(0),
	}
	var statusRows []struct {
		Status string
		Count  int64
	}
	if err := p.db.Model(&models.Project{}).Select("status, COUNT(*) AS count").
		Group("status").Scan(&statusRows).Error; err == nil {
		for _, row := range statusRows {
			byStatus[row.Status] = row.Count
		}
	}

	var featured int64
	if err := p.db.Model(&models.Project{}).Where("featured = ?", true).Count(&featured).Error; err != nil {
		featured = 0
	}

	utils.Success(ctx, gin.H{
		"total":            total,
		"by_status":        byStatus,
		"featured":         featured,
		"top_technologies": p.topTechnologies(5),
	})
}

// topTechnologies tallies technology frequency across all projects.
func (p *ProjectController) topTechnologies(n int) []gin.H {
	var rows []models.Project
	if err := p.db.Select("technologies").Find(&rows).Error; err != nil {
		utils.Sugar.Warnf("top technologies query failed: %v", err)
		return []gin.H{}
	}

	counts := map[string]int64{}
	display := map[string]string{}
	for _, row := range rows {
		for _, tech := range row.Technologies {
			key := strings.ToLower(tech)
			if _, seen := display[key]; !seen {
				display[key] = tech
			}
			counts[key]++
		}
	}

	type techCount struct {
		key   string
		count int64
	}
	ranked := make([]techCount, 0, len(counts))
	for key, count := range counts {
		ranked = append(ranked, techCount{key: key, count: count})
	}
	for i := 0; i < len(ranked); i++ {
		for j := i + 1; j < len(ranked); j++ {
			if ranked[j].count > ranked[i].count ||
				(ranked[j].count == ranked[i].count && ranked[j].key < ranked[i].key) {
				ranked[i], ranked[j] = ranked[j], ranked[i]
			}
		}
	}

	if len(ranked) > n {
		ranked = ranked[:n]
	}
	top := make([]gin.H, 0, len(ranked))
	for _, tc := range ranked {
		top = append(top, gin.H{"technology": display[tc.key], "count": tc.count})
	}
	return top
}

func (p *ProjectController) loadProjectByID(ctx *gin.Context) (*models.Project, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param("id")), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40402, "project not found")
		return nil, false
	}

	var project models.Project
	if err := p.db.First(&project, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40402, "project not found")
		} else {
			utils.Error(ctx, http.StatusInternalServerError, 50032, "failed to load project")
		}
		return nil, false
	}
	return &project, true
}
