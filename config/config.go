package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AppConfig holds environment driven configuration values.
// Sensitive data should never have defaults inside code and must be provided via env files or the environment.
type AppConfig struct {
	AppPort         string
	AppEnv          string
	JWTSecret       string
	JWTExpiresHours int

	DatabaseURI string
	DBHost      string
	DBPort      string
	DBUser      string
	DBPassword  string
	DBName      string

	// Bootstrap admin account
	AdminUsername      string
	AdminPassword      string
	AdminResetPassword bool

	// Medium feed synchronization
	MediumFeedURL  string
	MediumUsername string
	SyncCron       string
	SyncStaleHours int
	SyncOnStartup  bool

	// Rate limiting
	RateLimitWindowMinutes int
	RateLimitMax           int
	ContactRateLimitMax    int

	// Contact moderation
	ContactBlockedCountries []string
	ContactRetentionDays    int

	// Login lockout
	LockoutMaxAttempts int
	LockoutMinutes     int

	AllowedOrigins []string

	// GitHub OAuth for the admin panel
	GitHubClientID     string
	GitHubClientSecret string
	GitHubAdminLogins  []string
	OAuthRedirectBase  string

	// Gin framework configuration
	GinMode string
	GinPath string

	// SMTP for contact notifications
	SMTPHost           string
	SMTPPort           int
	SMTPUsername       string
	SMTPPassword       string
	SMTPFrom           string
	SMTPFromName       string
	SMTPTLS            bool
	ContactNotifyEmail string

	// Redis for caching and sync locking
	RedisHost     string
	RedisPort     int
	RedisDB       int
	RedisPassword string

	// Logging configuration
	LogLevel      string
	LogPath       string
	LogMaxSizeMB  int
	LogMaxBackups int
	LogMaxAgeDays int
	LogCompress   bool

	// Public site metadata served to the frontend
	SiteOwner       string
	SiteTitle       string
	SiteEmail       string
	SiteGitHubURL   string
	SiteLinkedInURL string
	SiteResumeURL   string
}

var cfg AppConfig
var loaded bool

// Load loads the application configuration from the environment. It should be
// called once during boot. A .env file in the working directory is read first;
// real environment variables win over it.
func Load() AppConfig {
	if loaded {
		return cfg
	}

	// godotenv never overrides variables already present in the environment.
	_ = godotenv.Load()

	applyDefaults(&cfg)
	applyEnvOverrides(&cfg)

	if cfg.JWTSecret == "" {
		log.Fatal("JWT_SECRET must be set in environment variables")
	}

	// A bare Medium username is enough to derive the feed URL.
	if cfg.MediumFeedURL == "" && cfg.MediumUsername != "" {
		cfg.MediumFeedURL = "https://medium.com/feed/@" + strings.TrimPrefix(cfg.MediumUsername, "@")
	}

	loaded = true
	return cfg
}

// Get returns the cached configuration, loading it if necessary.
func Get() AppConfig {
	if !loaded {
		return Load()
	}
	return cfg
}

// Production reports whether the app runs with APP_ENV=production.
func (c AppConfig) Production() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// applyDefaults sets sane defaults for zero-value fields.
func applyDefaults(c *AppConfig) {
	if c.AppPort == "" {
		c.AppPort = "8080"
	}
	if c.AppEnv == "" {
		c.AppEnv = "development"
	}
	if c.JWTExpiresHours == 0 {
		c.JWTExpiresHours = 72
	}
	if c.GinMode == "" {
		c.GinMode = "release"
	}
	if c.GinPath == "" {
		c.GinPath = "logs/gin_access.log"
	}
	if c.SyncStaleHours == 0 {
		c.SyncStaleHours = 24
	}
	if c.RateLimitWindowMinutes == 0 {
		c.RateLimitWindowMinutes = 15
	}
	if c.RateLimitMax == 0 {
		c.RateLimitMax = 100
	}
	if c.ContactRateLimitMax == 0 {
		c.ContactRateLimitMax = 5
	}
	if c.LockoutMaxAttempts == 0 {
		c.LockoutMaxAttempts = 5
	}
	if c.LockoutMinutes == 0 {
		c.LockoutMinutes = 15
	}
	if len(c.AllowedOrigins) == 0 {
		c.AllowedOrigins = []string{"*"}
	}
	if c.OAuthRedirectBase == "" {
		c.OAuthRedirectBase = "http://localhost:8080"
	}
	if c.DBHost == "" {
		c.DBHost = "127.0.0.1"
	}
	if c.DBPort == "" {
		c.DBPort = "3306"
	}
	if c.DBUser == "" {
		c.DBUser = "root"
	}
	if c.DBName == "" {
		c.DBName = "portfolio"
	}
	if c.SMTPPort == 0 {
		c.SMTPPort = 587
	}
	if c.RedisHost == "" {
		c.RedisHost = "127.0.0.1"
	}
	if c.RedisPort == 0 {
		c.RedisPort = 6379
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.LogMaxSizeMB == 0 {
		c.LogMaxSizeMB = 100
	}
	if c.LogMaxBackups == 0 {
		c.LogMaxBackups = 3
	}
	if c.LogMaxAgeDays == 0 {
		c.LogMaxAgeDays = 7
	}
	if c.SiteTitle == "" {
		c.SiteTitle = "Portfolio"
	}
}

// applyEnvOverrides maps known environment variables onto config values when present.
func applyEnvOverrides(c *AppConfig) {
	if v := getEnv("APP_PORT", ""); v != "" {
		c.AppPort = v
	}
	if v := getEnv("APP_ENV", ""); v != "" {
		c.AppEnv = v
	}
	if v := getEnv("JWT_SECRET", ""); v != "" {
		c.JWTSecret = v
	}
	if v := getEnv("JWT_EXPIRES_HOURS", ""); v != "" {
		c.JWTExpiresHours = mustParseInt(v)
	}
	if v := getEnv("GIN_MODE", ""); v != "" {
		c.GinMode = v
	}
	if v := getEnv("GIN_LOG_PATH", ""); v != "" { // compatibility
		c.GinPath = v
	}
	if v := getEnv("GIN_PATH", ""); v != "" {
		c.GinPath = v
	}
	if v := getEnv("DATABASE_URI", ""); v != "" {
		c.DatabaseURI = v
	}
	if v := getEnv("DB_HOST", ""); v != "" {
		c.DBHost = v
	}
	if v := getEnv("DB_PORT", ""); v != "" {
		c.DBPort = v
	}
	if v := getEnv("DB_USER", ""); v != "" {
		c.DBUser = v
	}
	if v := getEnv("DB_PASSWORD", ""); v != "" {
		c.DBPassword = v
	}
	if v := getEnv("DB_NAME", ""); v != "" {
		c.DBName = v
	}
	if v := getEnv("ADMIN_USERNAME", ""); v != "" {
		c.AdminUsername = v
	}
	if v := getEnv("ADMIN_PASSWORD", ""); v != "" {
		c.AdminPassword = v
	}
	if v := getEnv("ADMIN_RESET_PASSWORD", ""); v != "" {
		c.AdminResetPassword = v == "true"
	}
	if v := getEnv("MEDIUM_FEED_URL", ""); v != "" {
		c.MediumFeedURL = v
	}
	if v := getEnv("MEDIUM_USERNAME", ""); v != "" {
		c.MediumUsername = v
	}
	if v := getEnv("SYNC_CRON", ""); v != "" {
		c.SyncCron = v
	}
	if v := getEnv("SYNC_STALE_HOURS", ""); v != "" {
		c.SyncStaleHours = mustParseInt(v)
	}
	if v := getEnv("SYNC_ON_STARTUP", ""); v != "" {
		c.SyncOnStartup = v == "true"
	}
	if v := getEnv("RATE_LIMIT_WINDOW_MINUTES", ""); v != "" {
		c.RateLimitWindowMinutes = mustParseInt(v)
	}
	if v := getEnv("RATE_LIMIT_MAX", ""); v != "" {
		c.RateLimitMax = mustParseInt(v)
	}
	if v := getEnv("CONTACT_RATE_LIMIT_MAX", ""); v != "" {
		c.ContactRateLimitMax = mustParseInt(v)
	}
	if v := getEnv("CONTACT_BLOCKED_COUNTRIES", ""); v != "" {
		c.ContactBlockedCountries = splitAndTrim(v)
	}
	if v := getEnv("CONTACT_RETENTION_DAYS", ""); v != "" {
		c.ContactRetentionDays = mustParseInt(v)
	}
	if v := getEnv("LOCKOUT_MAX_ATTEMPTS", ""); v != "" {
		c.LockoutMaxAttempts = mustParseInt(v)
	}
	if v := getEnv("LOCKOUT_MINUTES", ""); v != "" {
		c.LockoutMinutes = mustParseInt(v)
	}
	if v := getEnv("CORS_ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitAndTrim(v)
	}
	if v := getEnv("GITHUB_CLIENT_ID", ""); v != "" {
		c.GitHubClientID = v
	}
	if v := getEnv("GITHUB_CLIENT_SECRET", ""); v != "" {
		c.GitHubClientSecret = v
	}
	if v := getEnv("GITHUB_ADMIN_LOGINS", ""); v != "" {
		c.GitHubAdminLogins = splitAndTrim(v)
	}
	if v := getEnv("OAUTH_REDIRECT_BASE_URL", ""); v != "" {
		c.OAuthRedirectBase = v
	}
	if v := getEnv("SMTP_HOST", ""); v != "" {
		c.SMTPHost = v
	}
	if v := getEnv("SMTP_PORT", ""); v != "" {
		c.SMTPPort = mustParseInt(v)
	}
	if v := getEnv("SMTP_USERNAME", ""); v != "" {
		c.SMTPUsername = v
	}
	if v := getEnv("SMTP_PASSWORD", ""); v != "" {
		c.SMTPPassword = v
	}
	if v := getEnv("SMTP_FROM", ""); v != "" {
		c.SMTPFrom = v
	}
	if v := getEnv("SMTP_FROM_NAME", ""); v != "" {
		c.SMTPFromName = v
	}
	if v := getEnv("SMTP_TLS", ""); v != "" {
		c.SMTPTLS = v == "true"
	}
	if v := getEnv("CONTACT_NOTIFY_EMAIL", ""); v != "" {
		c.ContactNotifyEmail = v
	}
	if v := getEnv("REDIS_HOST", ""); v != "" {
		c.RedisHost = v
	}
	if v := getEnv("REDIS_PORT", ""); v != "" {
		c.RedisPort = mustParseInt(v)
	}
	if v := getEnv("REDIS_DB", ""); v != "" {
		c.RedisDB = mustParseInt(v)
	}
	if v := getEnv("REDIS_PASSWORD", ""); v != "" {
		c.RedisPassword = v
	}
	if v := getEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := getEnv("LOG_PATH", ""); v != "" {
		c.LogPath = v
	}
	if v := getEnv("LOG_MAX_SIZE_MB", ""); v != "" {
		c.LogMaxSizeMB = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_BACKUPS", ""); v != "" {
		c.LogMaxBackups = mustParseInt(v)
	}
	if v := getEnv("LOG_MAX_AGE_DAYS", ""); v != "" {
		c.LogMaxAgeDays = mustParseInt(v)
	}
	if v := getEnv("LOG_COMPRESS", ""); v != "" {
		c.LogCompress = v == "true"
	}
	if v := getEnv("SITE_OWNER", ""); v != "" {
		c.SiteOwner = v
	}
	if v := getEnv("SITE_TITLE", ""); v != "" {
		c.SiteTitle = v
	}
	if v := getEnv("SITE_EMAIL", ""); v != "" {
		c.SiteEmail = v
	}
	if v := getEnv("SITE_GITHUB_URL", ""); v != "" {
		c.SiteGitHubURL = v
	}
	if v := getEnv("SITE_LINKEDIN_URL", ""); v != "" {
		c.SiteLinkedInURL = v
	}
	if v := getEnv("SITE_RESUME_URL", ""); v != "" {
		c.SiteResumeURL = v
	}
}

func mustParseInt(val string) int {
	i, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("invalid integer value %s: %v", val, err)
	}
	return i
}

func splitAndTrim(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		trimmed := strings.TrimSpace(item)
		if trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
