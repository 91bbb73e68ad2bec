package controllers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/medium"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/middleware"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/models"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/utils"
)

const (
	maxRelatedPosts     = 3
	maxPostTags         = 10
	maxPostCategories   = 5
	descriptionMaxRunes = 300
	excerptMaxRunes     = 150
)

// postSortFields whitelists caller-selectable sort columns.
var postSortFields = map[string]string{
	"published_at": "published_at",
	"created_at":   "created_at",
	"updated_at":   "updated_at",
	"views":        "views",
	"likes":        "likes",
	"reading_time": "reading_time",
	"title":        "title",
}

// PostController manages blog posts: public reads with filters and counters,
// admin CRUD and aggregate statistics.
type PostController struct {
	db *gorm.DB
}

// NewPostController creates a new PostController instance.
func NewPostController(db *gorm.DB) *PostController {
	return &PostController{db: db}
}

// ListPosts returns paginated posts. Anonymous callers are pinned to the
// published status; admins may filter by any status.
func (p *PostController) ListPosts(ctx *gin.Context) {
	page, limit := parsePagination(ctx.Query("page"), ctx.Query("limit"))
	search := strings.TrimSpace(ctx.Query("search"))
	tag := strings.TrimSpace(ctx.Query("tag"))
	category := strings.TrimSpace(ctx.Query("category"))
	featured := strings.TrimSpace(ctx.Query("featured"))
	status := strings.TrimSpace(ctx.Query("status"))
	admin := callerIsAdmin(ctx)

	if !admin {
		status = models.PostStatusPublished
	} else if status != "" && !models.ValidPostStatus(status) {
		utils.Error(ctx, http.StatusBadRequest, 40020, "invalid status filter")
		return
	}

	order := sortColumn(postSortFields, ctx.Query("sort"), ctx.Query("order"), "published_at DESC")

	// Cache anonymous list pages without a search term to avoid key explosion.
	cacheable := !admin && search == ""
	cacheKey := fmt.Sprintf("cache:posts:list:tag=%s:cat=%s:feat=%s:sort=%s:page=%d:limit=%d",
		tag, category, featured, order, page, limit)
	if cacheable {
		if b, ok := utils.CacheGetBytes(cacheKey); ok {
			ctx.Data(http.StatusOK, "application/json", b)
			return
		}
	}

	query := p.db.Model(&models.Post{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if tag != "" {
		query = query.Where("tags LIKE ?", labelPattern(tag))
	}
	if category != "" {
		query = query.Where("categories LIKE ?", labelPattern(category))
	}
	if featured != "" {
		query = query.Where("featured = ?", featured == "true")
	}
	if search != "" {
		like := "%" + utils.EscapeLike(search) + "%"
		query = query.Where("title LIKE ? OR description LIKE ? OR content LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50020, "failed to count posts")
		return
	}

	var posts []models.Post
	if err := query.Order(order).Offset((page - 1) * limit).Limit(limit).Find(&posts).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50021, "failed to list posts")
		return
	}

	payload := gin.H{
		"items":      posts,
		"pagination": paginationMeta(page, limit, total),
	}
	if cacheable {
		utils.CacheSetJSON(cacheKey, utils.JSONResponse{Code: 0, Message: "success", Data: payload}, time.Hour)
	}
	utils.Success(ctx, payload)
}

// GetPost returns a single post by numeric ID or slug, increments its view
// counter and attaches up to three related published posts.
func (p *PostController) GetPost(ctx *gin.Context) {
	post, ok := p.lookupPost(ctx)
	if !ok {
		return
	}

	// The view counter is incremented atomically; the response reflects it
	// without a re-read.
	if err := p.db.Model(&models.Post{}).Where("id = ?", post.ID).
		UpdateColumn("views", gorm.Expr("views + 1")).Error; err != nil {
		utils.Sugar.Warnf("view counter increment failed for post %d: %v", post.ID, err)
	} else {
		post.Views++
	}

	utils.Success(ctx, gin.H{
		"post":    post,
		"related": p.relatedPosts(post),
	})
}

// LikePost increments the like counter of a post and returns the new value.
func (p *PostController) LikePost(ctx *gin.Context) {
	post, ok := p.lookupPost(ctx)
	if !ok {
		return
	}

	if err := p.db.Model(&models.Post{}).Where("id = ?", post.ID).
		UpdateColumn("likes", gorm.Expr("likes + 1")).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50022, "failed to record like")
		return
	}

	var likes int64
	if err := p.db.Model(&models.Post{}).Select("likes").Where("id = ?", post.ID).Scan(&likes).Error; err != nil {
		likes = post.Likes + 1
	}
	utils.Success(ctx, gin.H{"id": post.ID, "likes": likes})
}

// CreatePost creates a locally authored post. Slug, summary fields, image and
// reading time are derived from the content when absent.
func (p *PostController) CreatePost(ctx *gin.Context) {
	var req struct {
		Title       string     `json:"title" binding:"required,min=1"`
		Content     string     `json:"content" binding:"required"`
		Description string     `json:"description"`
		Excerpt     string     `json:"excerpt"`
		Author      string     `json:"author"`
		SourceURL   string     `json:"source_url"`
		ImageURL    string     `json:"image_url"`
		Slug        string     `json:"slug"`
		ExternalID  string     `json:"external_id"`
		Tags        []string   `json:"tags"`
		Categories  []string   `json:"categories"`
		Status      string     `json:"status"`
		Featured    bool       `json:"featured"`
		PublishedAt *time.Time `json:"published_at"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40021, "invalid request payload")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40022, "title cannot be empty")
		return
	}

	status := req.Status
	if status == "" {
		status = models.PostStatusPublished
	}
	if !models.ValidPostStatus(status) {
		utils.Error(ctx, http.StatusBadRequest, 40023, "invalid status")
		return
	}

	externalID := strings.TrimSpace(req.ExternalID)
	if externalID == "" {
		externalID = "local-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	}

	slug := strings.TrimSpace(req.Slug)
	if slug == "" {
		slug = utils.Slugify(title)
	}
	if slug == "" {
		slug = externalID
	}

	var count int64
	if err := p.db.Model(&models.Post{}).Where("slug = ?", slug).Count(&count).Error; err == nil && count > 0 {
		utils.Error(ctx, http.StatusBadRequest, 40024, "slug already in use")
		return
	}
	if err := p.db.Model(&models.Post{}).Where("external_id = ?", externalID).Count(&count).Error; err == nil && count > 0 {
		utils.Error(ctx, http.StatusBadRequest, 40025, "external id already in use")
		return
	}

	summary := utils.StripHTML(req.Content)
	description := strings.TrimSpace(req.Description)
	if description == "" {
		description = utils.TruncateWords(summary, descriptionMaxRunes)
	}
	excerpt := strings.TrimSpace(req.Excerpt)
	if excerpt == "" {
		excerpt = utils.TruncateWords(summary, excerptMaxRunes)
	}
	imageURL := strings.TrimSpace(req.ImageURL)
	if imageURL == "" {
		imageURL = medium.FirstImage(req.Content)
	}

	publishedAt := time.Now()
	if req.PublishedAt != nil {
		publishedAt = *req.PublishedAt
	}
	now := time.Now()

	post := models.Post{
		ExternalID:   externalID,
		Slug:         slug,
		Title:        title,
		Description:  description,
		Content:      req.Content,
		Excerpt:      excerpt,
		Author:       strings.TrimSpace(req.Author),
		SourceURL:    strings.TrimSpace(req.SourceURL),
		ImageURL:     imageURL,
		Tags:         models.StringList(capLabels(req.Tags, maxPostTags)),
		Categories:   models.StringList(capLabels(req.Categories, maxPostCategories)),
		Status:       status,
		Featured:     req.Featured,
		ReadingTime:  medium.ReadingTime(req.Content),
		PublishedAt:  publishedAt,
		LastSyncedAt: &now,
		SyncStatus:   models.SyncStatusSynced,
	}

	if err := p.db.Create(&post).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50023, "failed to create post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:")
	utils.Success(ctx, gin.H{"post": post})
}

// UpdatePost overwrites the content fields of a post. The slug and the
// locally owned counters are never touched here.
func (p *PostController) UpdatePost(ctx *gin.Context) {
	var req struct {
		Title       string     `json:"title" binding:"required,min=1"`
		Content     string     `json:"content" binding:"required"`
		Description *string    `json:"description"`
		Excerpt     *string    `json:"excerpt"`
		Author      *string    `json:"author"`
		SourceURL   *string    `json:"source_url"`
		ImageURL    *string    `json:"image_url"`
		Tags        []string   `json:"tags"`
		Categories  []string   `json:"categories"`
		Status      *string    `json:"status"`
		Featured    *bool      `json:"featured"`
		PublishedAt *time.Time `json:"published_at"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40026, "invalid request payload")
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		utils.Error(ctx, http.StatusBadRequest, 40022, "title cannot be empty")
		return
	}

	post, ok := p.loadPostByID(ctx)
	if !ok {
		return
	}

	updates := map[string]interface{}{
		"title":        title,
		"content":      req.Content,
		"reading_time": medium.ReadingTime(req.Content),
	}
	if req.Description != nil {
		updates["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Excerpt != nil {
		updates["excerpt"] = strings.TrimSpace(*req.Excerpt)
	}
	if req.Author != nil {
		updates["author"] = strings.TrimSpace(*req.Author)
	}
	if req.SourceURL != nil {
		updates["source_url"] = strings.TrimSpace(*req.SourceURL)
	}
	if req.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*req.ImageURL)
	}
	if req.Tags != nil {
		updates["tags"] = models.StringList(capLabels(req.Tags, maxPostTags))
	}
	if req.Categories != nil {
		updates["categories"] = models.StringList(capLabels(req.Categories, maxPostCategories))
	}
	if req.Status != nil {
		if !models.ValidPostStatus(*req.Status) {
			utils.Error(ctx, http.StatusBadRequest, 40023, "invalid status")
			return
		}
		updates["status"] = *req.Status
	}
	if req.Featured != nil {
		updates["featured"] = *req.Featured
	}
	if req.PublishedAt != nil {
		updates["published_at"] = *req.PublishedAt
	}

	if err := p.db.Model(&models.Post{}).Where("id = ?", post.ID).Updates(updates).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50024, "failed to update post")
		return
	}

	var updated models.Post
	if err := p.db.First(&updated, post.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:")
	utils.Success(ctx, gin.H{"post": updated})
}

// DeletePost hard-deletes a post.
func (p *PostController) DeletePost(ctx *gin.Context) {
	post, ok := p.loadPostByID(ctx)
	if !ok {
		return
	}

	if err := p.db.Delete(&models.Post{}, post.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50026, "failed to delete post")
		return
	}

	utils.InvalidateByPrefix("cache:posts:")
	utils.Success(ctx, gin.H{"message": "post deleted"})
}

// PostStats returns count-based aggregates over all posts.
func (p *PostController) PostStats(ctx *gin.Context) {
	var total int64
	if err := p.db.Model(&models.Post{}).Count(&total).Error; err != nil {
		total = 0
	}

	byStatus := gin.H{
		models.PostStatusPublished: int64(0),
		models.PostStatusDraft:     int64(0),
		models.PostStatusArchived:  int64(0),
	}
	var statusRows []struct {
		Status string
		Count  int64
	}
	if err := p.db.Model(&models.Post{}).Select("status, COUNT(*) AS count").
		Group("status").Scan(&statusRows).Error; err == nil {
		for _, row := range statusRows {
			byStatus[row.Status] = row.Count
		}
	}

	var featured int64
	if err := p.db.Model(&models.Post{}).Where("featured = ?", true).Count(&featured).Error; err != nil {
		featured = 0
	}

	var totals struct {
		Views int64
		Likes int64
	}
	if err := p.db.Model(&models.Post{}).
		Select("COALESCE(SUM(views),0) AS views, COALESCE(SUM(likes),0) AS likes").
		Scan(&totals).Error; err != nil {
		totals.Views, totals.Likes = 0, 0
	}

	utils.Success(ctx, gin.H{
		"total":     total,
		"by_status": byStatus,
		"featured":  featured,
		"views":     totals.Views,
		"likes":     totals.Likes,
		"top_tags":  p.topTags(5),
	})
}

// topTags tallies tag frequency across all posts. Tags live in a JSON text
// column, so the counting happens here rather than in SQL; the table is small.
func (p *PostController) topTags(n int) []gin.H {
	var rows []models.Post
	if err := p.db.Select("tags").Find(&rows).Error; err != nil {
		utils.Sugar.Warnf("top tags query failed: %v", err)
		return []gin.H{}
	}

	counts := map[string]int64{}
	display := map[string]string{}
	for _, row := range rows {
		for _, tag := range row.Tags {
			key := strings.ToLower(tag)
			if _, seen := display[key]; !seen {
				display[key] = tag
			}
			counts[key]++
		}
	}

	type tagCount struct {
		key   string
		count int64
	}
	ranked := make([]tagCount, 0, len(counts))
	for key, count := range counts {
		ranked = append(ranked, tagCount{key: key, count: count})
	}
	// Stable ordering: frequency first, then name.
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
		top = append(top, gin.H{"tag": display[tc.key], "count": tc.count})
	}
	return top
}

// lookupPost resolves the :idOrSlug path parameter. Anonymous callers only
// ever see published posts; anything else is a 404, not a 403.
func (p *PostController) lookupPost(ctx *gin.Context) (*models.Post, bool) {
	idOrSlug := strings.TrimSpace(ctx.Param("idOrSlug"))
	if idOrSlug == "" {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return nil, false
	}

	query := p.db
	if !callerIsAdmin(ctx) {
		query = query.Where("status = ?", models.PostStatusPublished)
	}

	var post models.Post
	var err error
	if id, perr := strconv.ParseUint(idOrSlug, 10, 32); perr == nil {
		err = query.Where("id = ?", uint(id)).First(&post).Error
	} else {
		err = query.Where("slug = ?", idOrSlug).First(&post).Error
	}
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		} else {
			utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load post")
		}
		return nil, false
	}
	return &post, true
}

// loadPostByID resolves the numeric :id parameter for admin operations.
// Malformed identifiers read as not-found.
func (p *PostController) loadPostByID(ctx *gin.Context) (*models.Post, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param("id")), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		return nil, false
	}

	var post models.Post
	if err := p.db.First(&post, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40401, "post not found")
		} else {
			utils.Error(ctx, http.StatusInternalServerError, 50025, "failed to load post")
		}
		return nil, false
	}
	return &post, true
}

// relatedPosts returns up to maxRelatedPosts published posts sharing at least
// one tag or category with the given post, most recent first.
func (p *PostController) relatedPosts(post *models.Post) []models.Post {
	related := []models.Post{}
	if len(post.Tags) == 0 && len(post.Categories) == 0 {
		return related
	}

	var candidates []models.Post
	if err := p.db.Where("status = ? AND id <> ?", models.PostStatusPublished, post.ID).
		Order("published_at DESC").Limit(50).Find(&candidates).Error; err != nil {
		utils.Sugar.Warnf("related posts query failed: %v", err)
		return related
	}

	for i := range candidates {
		if sharesLabel(post, &candidates[i]) {
			related = append(related, candidates[i])
			if len(related) == maxRelatedPosts {
				break
			}
		}
	}
	return related
}

func sharesLabel(a, b *models.Post) bool {
	for _, tag := range b.Tags {
		if a.Tags.Contains(tag) {
			return true
		}
	}
	for _, category := range b.Categories {
		if a.Categories.Contains(category) {
			return true
		}
	}
	return false
}

// capLabels deduplicates, trims and caps a label list.
func capLabels(labels []string, limit int) []string {
	cleaned := utils.UniqueStrings(labels)
	if len(cleaned) > limit {
		cleaned = cleaned[:limit]
	}
	return cleaned
}

// labelPattern builds a LIKE pattern matching one element of a JSON-encoded
// string list column.
func labelPattern(value string) string {
	return `%"` + utils.EscapeLike(value) + `"%`
}

// sortColumn validates a caller-supplied sort field against a whitelist and
// returns an ORDER BY expression, falling back when the field is unknown.
func sortColumn(allowed map[string]string, sortParam, orderParam, fallback string) string {
	column, ok := allowed[strings.ToLower(strings.TrimSpace(sortParam))]
	if !ok {
		return fallback
	}
	direction := "DESC"
	if strings.EqualFold(strings.TrimSpace(orderParam), "asc") {
		direction = "ASC"
	}
	return column + " " + direction
}

func parsePagination(pageStr, limitStr string) (int, int) {
	page := 1
	limit := 10
	if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
		limit = l
	}
	return page, limit
}

func paginationMeta(page, limit int, total int64) gin.H {
	return gin.H{
		"page":        page,
		"limit":       limit,
		"total":       total,
		"total_pages": int((total + int64(limit) - 1) / int64(limit)),
	}
}

// callerIsAdmin reports whether the request carries a valid admin bearer
// token. Public routes use it to widen filters for administrators without
// requiring authentication.
func callerIsAdmin(ctx *gin.Context) bool {
	if role, ok := ctx.Get(middleware.ContextRoleKey); ok {
		return role == models.RoleAdmin
	}

	token := middleware.BearerToken(ctx)
	if token == "" || utils.IsTokenBlacklisted(token) {
		return false
	}
	claims, err := utils.ParseToken(token)
	if err != nil {
		return false
	}
	return claims.Role == models.RoleAdmin
}
