package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"gorm.io/gorm"

	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/config"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/middleware"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/models"
	"github.com/MukeshRawatMkR/Mukesh-Rawat-Web-Portfolio/utils"
)

// AuthController handles admin authentication: password login with lockout,
// logout, profile, password change and the optional GitHub OAuth path.
type AuthController struct {
	db *gorm.DB
}

// NewAuthController creates an AuthController.
func NewAuthController(db *gorm.DB) *AuthController {
	return &AuthController{db: db}
}

// Login verifies credentials and issues a JWT. Repeated failures lock the
// account for the configured window; the counter resets on success.
func (a *AuthController) Login(ctx *gin.Context) {
	type request struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req request
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	cfg := config.Get()
	now := time.Now()

	var user models.User
	if err := a.db.Where("username = ?", strings.TrimSpace(req.Username)).First(&user).Error; err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	if !user.Active {
		utils.Error(ctx, http.StatusUnauthorized, 40110, "account disabled")
		return
	}

	if user.Locked(now) {
		utils.Sugar.Warnw("login attempt on locked account", "username", user.Username, "ip", ctx.ClientIP())
		utils.Error(ctx, http.StatusUnauthorized, 40107, "account temporarily locked, try again later")
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		a.recordLoginFailure(&user, now, cfg)
		utils.Error(ctx, http.StatusUnauthorized, 40106, "invalid username or password")
		return
	}

	updates := map[string]interface{}{
		"failed_logins": 0,
		"locked_until":  nil,
		"last_login_at": now,
	}
	if err := a.db.Model(&user).Updates(updates).Error; err != nil {
		utils.Sugar.Warnf("login bookkeeping failed for %s: %v", user.Username, err)
	}
	user.FailedLogins = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now

	token, err := utils.GenerateToken(user.ID, user.Username, user.Role, time.Duration(cfg.JWTExpiresHours)*time.Hour)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{
		"token": token,
		"user":  userResponse(user),
	})
}

// recordLoginFailure bumps the failure counter and locks the account once the
// configured threshold is reached.
func (a *AuthController) recordLoginFailure(user *models.User, now time.Time, cfg config.AppConfig) {
	user.FailedLogins++
	updates := map[string]interface{}{"failed_logins": user.FailedLogins}
	if user.FailedLogins >= cfg.LockoutMaxAttempts {
		lockedUntil := now.Add(time.Duration(cfg.LockoutMinutes) * time.Minute)
		updates["locked_until"] = lockedUntil
		updates["failed_logins"] = 0
		utils.Sugar.Warnw("account locked after repeated login failures",
			"username", user.Username,
			"attempts", user.FailedLogins,
			"locked_until", lockedUntil,
		)
	}
	if err := a.db.Model(user).Updates(updates).Error; err != nil {
		utils.Sugar.Warnf("failed to record login failure for %s: %v", user.Username, err)
	}
}

// Logout invalidates the token by blacklisting it until expiration.
func (a *AuthController) Logout(ctx *gin.Context) {
	token := middleware.BearerToken(ctx)
	if token == "" {
		utils.Error(ctx, http.StatusUnauthorized, 40108, "invalid authorization header")
		return
	}

	claims, err := utils.ParseToken(token)
	if err != nil {
		utils.Error(ctx, http.StatusUnauthorized, 40105, "invalid token")
		return
	}

	expiresAt := time.Now().Add(time.Duration(config.Get().JWTExpiresHours) * time.Hour)
	if claims.RegisteredClaims.ExpiresAt != nil {
		expiresAt = claims.RegisteredClaims.ExpiresAt.Time
	}

	utils.BlacklistToken(token, expiresAt)
	utils.Success(ctx, gin.H{"message": "logged out"})
}

// Me returns the current authenticated user's information.
func (a *AuthController) Me(ctx *gin.Context) {
	userID, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		utils.Error(ctx, http.StatusUnauthorized, 40109, "unauthorized")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}

	utils.Success(ctx, userResponse(user))
}

// ChangePassword updates the authenticated user's password after verifying
// the current one.
func (a *AuthController) ChangePassword(ctx *gin.Context) {
	userID, exists := ctx.Get(middleware.ContextUserIDKey)
	if !exists {
		utils.Error(ctx, http.StatusUnauthorized, 40109, "unauthorized")
		return
	}

	var req struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required,min=8,max=72"`
	}
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40010, "invalid request payload")
		return
	}

	var user models.User
	if err := a.db.First(&user, userID).Error; err != nil {
		utils.Error(ctx, http.StatusNotFound, 40410, "user not found")
		return
	}

	if !utils.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		utils.Error(ctx, http.StatusBadRequest, 40011, "current password is incorrect")
		return
	}

	hash, err := utils.HashPassword(req.NewPassword)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50005, "failed to hash password")
		return
	}

	if err := a.db.Model(&user).Update("password_hash", hash).Error; err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50006, "failed to update password")
		return
	}

	utils.Success(ctx, gin.H{"message": "password updated"})
}

// OAuthRedirect generates a provider-specific authorization URL.
func (a *AuthController) OAuthRedirect(ctx *gin.Context) {
	provider := ctx.Param("provider")
	cfg, err := a.oauthConfig(provider)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, err.Error())
		return
	}

	state := uuid.NewString()
	utils.SaveState(state, 10*time.Minute)

	url := cfg.AuthCodeURL(state, oauth2.AccessTypeOffline)
	utils.Success(ctx, gin.H{"authorization_url": url, "state": state})
}

// OAuthCallback exchanges the authorization code for a GitHub identity and
// issues a JWT when the login is on the admin allowlist.
func (a *AuthController) OAuthCallback(ctx *gin.Context) {
	provider := ctx.Param("provider")
	code := ctx.Query("code")
	state := ctx.Query("state")

	if code == "" || state == "" {
		utils.Error(ctx, http.StatusBadRequest, 40005, "missing code or state")
		return
	}

	if !utils.ConsumeState(state) {
		utils.Error(ctx, http.StatusBadRequest, 40006, "invalid or expired state")
		return
	}

	oauthCfg, err := a.oauthConfig(provider)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40004, err.Error())
		return
	}

	token, err := oauthCfg.Exchange(context.Background(), code)
	if err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40007, "failed to exchange code")
		return
	}

	ghUser, err := fetchGitHubUser(token)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50007, err.Error())
		return
	}

	if !githubLoginAllowed(ghUser.Login) {
		utils.Sugar.Warnw("github login rejected, not on admin allowlist", "login", ghUser.Login)
		utils.Error(ctx, http.StatusForbidden, 40303, "github account not authorized for admin access")
		return
	}

	user, err := a.findOrCreateGitHubUser(ghUser)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50008, "failed to persist user")
		return
	}

	cfg := config.Get()
	jwtToken, err := utils.GenerateToken(user.ID, user.Username, user.Role, time.Duration(cfg.JWTExpiresHours)*time.Hour)
	if err != nil {
		utils.Error(ctx, http.StatusInternalServerError, 50004, "failed to generate token")
		return
	}

	utils.Success(ctx, gin.H{"token": jwtToken, "user": userResponse(*user)})
}

func (a *AuthController) oauthConfig(provider string) (*oauth2.Config, error) {
	cfg := config.Get()
	switch strings.ToLower(provider) {
	case "github":
		if cfg.GitHubClientID == "" || cfg.GitHubClientSecret == "" {
			return nil, fmt.Errorf("github oauth not configured")
		}
		return &oauth2.Config{
			ClientID:     cfg.GitHubClientID,
			ClientSecret: cfg.GitHubClientSecret,
			RedirectURL:  fmt.Sprintf("%s/api/v1/auth/oauth/github/callback", cfg.OAuthRedirectBase),
			Scopes:       []string{"read:user"},
			Endpoint:     github.Endpoint,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
}

func fetchGitHubUser(token *oauth2.Token) (*githubUser, error) {
	req, _ := http.NewRequest("GET", "https://api.github.com/user", nil)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token.AccessToken))
	req.Header.Set("Accept", "application/vnd.github+json")

	client := http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("github user info request failed: %s", resp.Status)
	}

	var payload githubUser
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func githubLoginAllowed(login string) bool {
	login = strings.TrimSpace(login)
	if login == "" {
		return false
	}
	for _, allowed := range config.Get().GitHubAdminLogins {
		if strings.EqualFold(strings.TrimSpace(allowed), login) {
			return true
		}
	}
	return false
}

func (a *AuthController) findOrCreateGitHubUser(data *githubUser) (*models.User, error) {
	now := time.Now()
	providerID := fmt.Sprintf("%d", data.ID)

	var user models.User
	err := a.db.Where("provider = ? AND provider_id = ?", "github", providerID).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = models.User{
			Username:    a.ensureUniqueUsername(data.Login, providerID),
			Role:        models.RoleAdmin,
			Active:      true,
			Provider:    "github",
			ProviderID:  providerID,
			LastLoginAt: &now,
		}
		if err := a.db.Create(&user).Error; err != nil {
			return nil, err
		}
		return &user, nil
	}
	if err != nil {
		return nil, err
	}

	if err := a.db.Model(&user).Update("last_login_at", now).Error; err != nil {
		utils.Sugar.Warnf("login bookkeeping failed for %s: %v", user.Username, err)
	}
	user.LastLoginAt = &now
	return &user, nil
}

func (a *AuthController) ensureUniqueUsername(base, id string) string {
	base = sanitizeUsername(base)
	if base == "" {
		base = "github_" + id
	}

	candidate := base
	suffix := 1
	for {
		var count int64
		if err := a.db.Model(&models.User{}).Where("username = ?", candidate).Count(&count).Error; err != nil {
			return candidate
		}
		if count == 0 {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%d", base, suffix)
		suffix++
	}
}

func sanitizeUsername(input string) string {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return ""
	}
	var builder strings.Builder
	for _, r := range input {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			builder.WriteRune(r)
		case r == '_' || r == '-' || r == '.':
			builder.WriteRune('_')
		}
	}
	return strings.Trim(builder.String(), "_")
}

func userResponse(user models.User) gin.H {
	return gin.H{
		"id":            user.ID,
		"username":      user.Username,
		"role":          user.Role,
		"active":        user.Active,
		"provider":      user.Provider,
		"last_login_at": user.LastLoginAt,
		"created_at":    user.CreatedAt,
	}
}
