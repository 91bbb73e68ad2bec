package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/config"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/models"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/utils"
)

// ContactController handles the public contact form and its admin inbox.
type ContactController struct {
	db *gorm.DB
}

// NewContactController creates a new ContactController instance.
func NewContactController(db *gorm.DB) *ContactController {
	return &ContactController{db: db}
}

// CreateMessage accepts a public contact form submission. The message body is
// sanitized, origin metadata is captured best-effort and the site owner is
// notified by mail when SMTP is configured.
func (c *ContactController) CreateMessage(ctx *gin.Context) {
	var req struct {
		Name    string `json:"name" binding:"required,max=128"`
		Email   string `json:"email" binding:"required,email,max=255"`
		Message string `json:"message" binding:"required"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40040, "name, a valid email and a message are required")
		return
	}

	name := strings.TrimSpace(req.Name)
	message := strings.TrimSpace(utils.Sanitize(req.Message))
	if name == "" || message == "" {
		utils.Error(ctx, http.StatusBadRequest, 40040, "name, a valid email and a message are required")
		return
	}

	clientIP := ctx.ClientIP()
	country := ""
	if !utils.IsPrivateIP(clientIP) {
		lookupCtx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
		defer cancel()
		if resolved, err := utils.GetIPCountry(lookupCtx, clientIP); err == nil {
			country = resolved
		}
	}

	entry := models.ContactMessage{
		Name:      name,
		Email:     strings.TrimSpace(req.Email),
		Message:   message,
		Status:    models.ContactStatusNew,
		IPAddress: clientIP,
		UserAgent: ctx.GetHeader("User-Agent"),
		Country:   country,
	}

	if err := c.db.Create(&entry).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50040, "failed to save message")
		return
	}

	if notify := config.Get().ContactNotifyEmail; notify != "" {
		go func(msg models.ContactMessage) {
			subject := fmt.Sprintf("New contact message from %s", msg.Name)
			body := fmt.Sprintf("From: %s <%s>\nCountry: %s\n\n%s", msg.Name, msg.Email, msg.Country, msg.Message)
			if err := utils.SendMail(notify, msg.Email, subject, body); err != nil {
				utils.Sugar.Warnf("contact notification mail failed: %v", err)
			}
		}(entry)
	}

	utils.Success(ctx, gin.H{"id": entry.ID, "message": "message received"})
}

// ListMessages returns paginated contact messages for the admin inbox,
// newest first.
func (c *ContactController) ListMessages(ctx *gin.Context) {
	page, limit := parsePagination(ctx.Query("page"), ctx.Query("limit"))
	search := strings.TrimSpace(ctx.Query("search"))
	status := strings.TrimSpace(ctx.Query("status"))

	if status != "" && !models.ValidContactStatus(status) {
		utils.Error(ctx, http.StatusBadRequest, 40041, "invalid status filter")
		return
	}

	query := c.db.Model(&models.ContactMessage{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if search != "" {
		like := "%" + utils.EscapeLike(search) + "%"
		query = query.Where("name LIKE ? OR email LIKE ? OR message LIKE ?", like, like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50041, "failed to count messages")
		return
	}

	var messages []models.ContactMessage
	if err := query.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&messages).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50042, "failed to list messages")
		return
	}

	utils.Success(ctx, gin.H{
		"items":      messages,
		"pagination": paginationMeta(page, limit, total),
	})
}

// GetMessage returns a single contact message.
func (c *ContactController) GetMessage(ctx *gin.Context) {
	message, ok := c.loadMessageByID(ctx)
	if !ok {
		return
	}
	utils.Success(ctx, gin.H{"message": message})
}

// UpdateMessage patches the workflow fields of a message. Marking it replied
// also stamps the reply time and moves the status along.
func (c *ContactController) UpdateMessage(ctx *gin.Context) {
	var req struct {
		Status     *string `json:"status"`
		AdminNotes *string `json:"admin_notes"`
		Replied    *bool   `json:"replied"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40042, "invalid request payload")
		return
	}

	message, ok := c.loadMessageByID(ctx)
	if !ok {
		return
	}

	updates := map[string]interface{}{}
	if req.Status != nil {
		if !models.ValidContactStatus(*req.Status) {
			utils.Error(ctx, http.StatusBadRequest, 40043, "invalid status")
			return
		}
		updates["status"] = *req.Status
	}
	if req.AdminNotes != nil {
		updates["admin_notes"] = strings.TrimSpace(*req.AdminNotes)
	}
	if req.Replied != nil {
		updates["replied"] = *req.Replied
		if *req.Replied {
			updates["replied_at"] = time.Now()
			if req.Status == nil {
				updates["status"] = models.ContactStatusReplied
			}
		}
	}
	if len(updates) == 0 {
		utils.Error(ctx, http.StatusBadRequest, 40044, "nothing to update")
		return
	}

	if err := c.db.Model(&models.ContactMessage{}).Where("id = ?", message.ID).Updates(updates).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50043, "failed to update message")
		return
	}

	var updated models.ContactMessage
	if err := c.db.First(&updated, message.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to load message")
		return
	}
	utils.Success(ctx, gin.H{"message": updated})
}

// DeleteMessage hard-deletes a contact message.
func (c *ContactController) DeleteMessage(ctx *gin.Context) {
	message, ok := c.loadMessageByID(ctx)
	if !ok {
		return
	}

	if err := c.db.Delete(&models.ContactMessage{}, message.ID).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50045, "failed to delete message")
		return
	}
	utils.Success(ctx, gin.H{"message": "contact message deleted"})
}

// ContactStats returns count-based aggregates over the inbox.
func (c *ContactController) ContactStats(ctx *gin.Context) {
	var total int64
	if err := c.db.Model(&models.ContactMessage{}).Count(&total).Error; err != nil {
		total = 0
	}

	byStatus := gin.H{
		models.ContactStatusNew:      int64(0),
		models.ContactStatusRead:     int64(0),
		models.ContactStatusReplied:  int64(0),
		models.ContactStatusArchived: int64(0),
	}
	var statusRows []struct {
		Status string
		Count  int64
	}
	if err := c.db.Model(&models.ContactMessage{}).Select("status, COUNT(*) AS count").
		Group("status").Scan(&statusRows).Error; err == nil {
		for _, row := range statusRows {
			byStatus[row.Status] = row.Count
		}
	}

	var unreplied int64
	if err := c.db.Model(&models.ContactMessage{}).Where("replied = ?", false).Count(&unreplied).Error; err != nil {
		unreplied = 0
	}

	utils.Success(ctx, gin.H{
		"total":     total,
		"by_status": byStatus,
		"unreplied": unreplied,
	})
}

func (c *ContactController) loadMessageByID(ctx *gin.Context) (*models.ContactMessage, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(ctx.Param("id")), 10, 32)
	if err != nil {
		utils.Error(ctx, http.StatusNotFound, 40403, "contact message not found")
		return nil, false
	}

	var message models.ContactMessage
	if err := c.db.First(&message, uint(id)).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			utils.Error(ctx, http.StatusNotFound, 40403, "contact message not found")
		} else {
			utils.Error(ctx, http.StatusInternalServerError, 50044, "failed to load message")
		}
		return nil, false
	}
	return &message, true
}
