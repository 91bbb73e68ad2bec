package main

import (
	"time"

	"gorm.io/gorm"

	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/config"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/medium"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/models"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/routes"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}

	db := config.InitDatabase(
		&models.User{},
		&models.Post{},
		&models.Project{},
		&models.ContactMessage{},
		&models.SiteVisit{},
	)

	bootstrapAdmin(db, cfg)

	syncer := medium.NewSyncer(db, medium.NewClient(), time.Duration(cfg.SyncStaleHours)*time.Hour)
	scheduler := medium.NewScheduler(syncer, cfg.MediumFeedURL)
	if err := scheduler.Start(cfg.SyncCron, cfg.SyncOnStartup); err != nil {
		utils.Sugar.Fatalf("invalid SYNC_CRON expression %q: %v", cfg.SyncCron, err)
	}

	// Purge archived contact messages past their retention window (best-effort)
	utils.StartContactJanitor(db, 6*time.Hour)

	r := routes.SetupRouter(db, syncer)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r, scheduler.Stop, utils.CloseRedis); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}

// bootstrapAdmin ensures the configured admin account exists. With
// ADMIN_RESET_PASSWORD=true the password is reset and any lockout cleared,
// which is the recovery path for a locked-out owner.
func bootstrapAdmin(db *gorm.DB, cfg config.AppConfig) {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		utils.Sugar.Info("admin bootstrap skipped: ADMIN_USERNAME/ADMIN_PASSWORD not set")
		return
	}

	var user models.User
	err := db.Where("username = ?", cfg.AdminUsername).First(&user).Error
	if err == gorm.ErrRecordNotFound {
		hash, herr := utils.HashPassword(cfg.AdminPassword)
		if herr != nil {
			utils.Sugar.Fatalf("failed to hash admin password: %v", herr)
		}
		user = models.User{
			Username:     cfg.AdminUsername,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
			Active:       true,
			Provider:     "local",
		}
		if cerr := db.Create(&user).Error; cerr != nil {
			utils.Sugar.Fatalf("failed to create admin account: %v", cerr)
		}
		utils.Sugar.Infof("admin account %q created", cfg.AdminUsername)
		return
	}
	if err != nil {
		utils.Sugar.Fatalf("admin bootstrap lookup failed: %v", err)
	}

	if cfg.AdminResetPassword {
		hash, herr := utils.HashPassword(cfg.AdminPassword)
		if herr != nil {
			utils.Sugar.Fatalf("failed to hash admin password: %v", herr)
		}
		updates := map[string]interface{}{
			"password_hash": hash,
			"active":        true,
			"failed_logins": 0,
			"locked_until":  nil,
		}
		if uerr := db.Model(&user).Updates(updates).Error; uerr != nil {
			utils.Sugar.Fatalf("failed to reset admin password: %v", uerr)
		}
		utils.Sugar.Infof("admin account %q password reset", cfg.AdminUsername)
	}
}
