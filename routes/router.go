package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/config"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/controllers"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/medium"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/middleware"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB, syncer *medium.Syncer) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// Replace default console logger with file-based zap logger
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		// Stack traces stay out of production logs.
		r.Use(utils.RecoveryWithZap(gl, !cfg.Production()))
	} else {
		// fallback to default recovery if logger failed to init
		r.Use(gin.Recovery())
	}

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})

	authController := controllers.NewAuthController(db)
	postController := controllers.NewPostController(db)
	projectController := controllers.NewProjectController(db)
	contactController := controllers.NewContactController(db)
	syncController := controllers.NewSyncController(syncer, cfg.MediumFeedURL)
	statsController := controllers.NewStatsController(db)
	configController := controllers.NewConfigController()

	window := time.Duration(cfg.RateLimitWindowMinutes) * time.Minute

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit("api", window, cfg.RateLimitMax))
	api.Use(middleware.SiteVisitRecorder(db))

	// Stricter buckets for abuse-prone endpoints on top of the general one.
	contactLimit := middleware.RateLimit("contact", window, cfg.ContactRateLimitMax)
	loginLimit := middleware.RateLimit("login", window, cfg.ContactRateLimitMax)

	authGroup := api.Group("/auth")
	authGroup.POST("/login", loginLimit, authController.Login)
	authGroup.GET("/oauth/:provider/login", loginLimit, authController.OAuthRedirect)
	authGroup.GET("/oauth/:provider/callback", authController.OAuthCallback)
	authGroup.POST("/logout", middleware.AuthRequired(), authController.Logout)
	authGroup.GET("/me", middleware.AuthRequired(), authController.Me)
	authGroup.PATCH("/password", middleware.AuthRequired(), authController.ChangePassword)

	api.GET("/posts", postController.ListPosts)
	api.GET("/posts/:idOrSlug", postController.GetPost)
	api.POST("/posts/:idOrSlug/like", postController.LikePost)
	api.GET("/projects", projectController.ListProjects)
	api.GET("/projects/:id", projectController.GetProject)
	api.POST("/contact", contactLimit, middleware.ContactCountryFilter(), contactController.CreateMessage)
	api.GET("/stats", statsController.GetSiteStats)
	api.GET("/config/site", configController.GetSite)

	protected := api.Group("")
	protected.Use(middleware.AuthRequired(), middleware.AdminRequired())

	protected.POST("/posts", postController.CreatePost)
	protected.PUT("/posts/:id", postController.UpdatePost)
	protected.DELETE("/posts/:id", postController.DeletePost)
	protected.GET("/posts/stats", postController.PostStats)
	protected.POST("/posts/sync", syncController.TriggerSync)
	protected.GET("/posts/sync/status", syncController.SyncStatus)

	protected.POST("/projects", projectController.CreateProject)
	protected.PUT("/projects/:id", projectController.UpdateProject)
	protected.DELETE("/projects/:id", projectController.DeleteProject)
	protected.GET("/projects/stats", projectController.ProjectStats)

	protected.GET("/contact", contactController.ListMessages)
	protected.GET("/contact/:id", contactController.GetMessage)
	protected.PATCH("/contact/:id", contactController.UpdateMessage)
	protected.DELETE("/contact/:id", contactController.DeleteMessage)
	protected.GET("/contact/stats", contactController.ContactStats)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
