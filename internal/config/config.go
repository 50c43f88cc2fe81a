package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig
	Backend BackendConfig
	Upload  UploadConfig
	JWT     JWTConfig
	S3      S3Config
	Staging StagingConfig
	Log     LogConfig
	CORS    CORSConfig
	Notify  NotifyConfig
	Session SessionConfig
	CLI     CLIConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// BackendConfig holds the processor endpoint settings.
type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// UploadConfig holds queue and submission settings.
type UploadConfig struct {
	MaxFileSizeMB             int64 `mapstructure:"max_file_size_mb"`
	RevalidateOnRoutingChange bool  `mapstructure:"revalidate_on_routing_change"`
	RequireCredential         bool  `mapstructure:"require_credential"`
	HistoryLimit              int   `mapstructure:"history_limit"`
}

// MaxFileSize returns the per-file limit in bytes.
func (u *UploadConfig) MaxFileSize() int64 {
	return u.MaxFileSizeMB << 20
}

// JWTConfig holds operator token verification settings.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region    string `mapstructure:"region"`
	Bucket    string `mapstructure:"bucket"`
	Endpoint  string `mapstructure:"endpoint"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
}

// StagingConfig selects where the console server keeps received files
// until they are submitted: "memory" or "s3".
type StagingConfig struct {
	Provider string `mapstructure:"provider"`
	Prefix   string `mapstructure:"prefix"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// NotifyConfig holds batch summary and data-changed notification settings.
type NotifyConfig struct {
	Provider    string        `mapstructure:"provider"`
	Region      string        `mapstructure:"region"`
	FromAddress string        `mapstructure:"from_address"`
	FromName    string        `mapstructure:"from_name"`
	ConsoleURL  string        `mapstructure:"console_url"`
	WebhookURL  string        `mapstructure:"webhook_url"`
	WebhookTTL  time.Duration `mapstructure:"webhook_timeout"`
}

// SessionConfig controls how long an idle operator console is kept.
type SessionConfig struct {
	IdleTimeout   time.Duration `mapstructure:"idle_timeout"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

// CLIConfig holds helixctl settings.
type CLIConfig struct {
	// Token is the operator bearer token sent with uploads.
	Token string `mapstructure:"token"`
}

// Load reads configuration from environment variables with the HELIX_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("HELIX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.environment", "development")

	// Backend defaults
	v.SetDefault("backend.base_url", "http://localhost:8000")
	v.SetDefault("backend.timeout", "2m")

	// Upload defaults
	v.SetDefault("upload.max_file_size_mb", 50)
	v.SetDefault("upload.revalidate_on_routing_change", true)
	v.SetDefault("upload.require_credential", true)
	v.SetDefault("upload.history_limit", 20)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "helix")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "helix-staging")
	v.SetDefault("s3.endpoint", "")

	// Staging defaults
	v.SetDefault("staging.provider", "memory")
	v.SetDefault("staging.prefix", "staging")

	// Log defaults
	v.SetDefault("log.level", "debug")
	v.SetDefault("log.format", "console")

	// CORS defaults (localhost origins for development)
	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Notify defaults
	v.SetDefault("notify.provider", "noop")
	v.SetDefault("notify.region", "us-east-1")
	v.SetDefault("notify.from_address", "noreply@helix.local")
	v.SetDefault("notify.from_name", "Helix")
	v.SetDefault("notify.console_url", "http://localhost:3000")
	v.SetDefault("notify.webhook_url", "")
	v.SetDefault("notify.webhook_timeout", "5s")

	// Session defaults
	v.SetDefault("session.idle_timeout", "30m")
	v.SetDefault("session.sweep_interval", "1m")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":                         "HELIX_SERVER_PORT",
		"server.read_timeout":                 "HELIX_SERVER_READ_TIMEOUT",
		"server.write_timeout":                "HELIX_SERVER_WRITE_TIMEOUT",
		"server.environment":                  "HELIX_SERVER_ENVIRONMENT",
		"backend.base_url":                    "HELIX_BACKEND_BASE_URL",
		"backend.timeout":                     "HELIX_BACKEND_TIMEOUT",
		"upload.max_file_size_mb":             "HELIX_UPLOAD_MAX_FILE_SIZE_MB",
		"upload.revalidate_on_routing_change": "HELIX_UPLOAD_REVALIDATE_ON_ROUTING_CHANGE",
		"upload.require_credential":           "HELIX_UPLOAD_REQUIRE_CREDENTIAL",
		"upload.history_limit":                "HELIX_UPLOAD_HISTORY_LIMIT",
		"jwt.secret":                          "HELIX_JWT_SECRET",
		"jwt.issuer":                          "HELIX_JWT_ISSUER",
		"s3.region":                           "HELIX_S3_REGION",
		"s3.bucket":                           "HELIX_S3_BUCKET",
		"s3.endpoint":                         "HELIX_S3_ENDPOINT",
		"s3.access_key":                       "HELIX_S3_ACCESS_KEY",
		"s3.secret_key":                       "HELIX_S3_SECRET_KEY",
		"staging.provider":                    "HELIX_STAGING_PROVIDER",
		"staging.prefix":                      "HELIX_STAGING_PREFIX",
		"log.level":                           "HELIX_LOG_LEVEL",
		"log.format":                          "HELIX_LOG_FORMAT",
		"cors.allowed_origins":                "HELIX_CORS_ALLOWED_ORIGINS",
		"notify.provider":                     "HELIX_NOTIFY_PROVIDER",
		"notify.region":                       "HELIX_NOTIFY_REGION",
		"notify.from_address":                 "HELIX_NOTIFY_FROM_ADDRESS",
		"notify.from_name":                    "HELIX_NOTIFY_FROM_NAME",
		"notify.console_url":                  "HELIX_NOTIFY_CONSOLE_URL",
		"notify.webhook_url":                  "HELIX_NOTIFY_WEBHOOK_URL",
		"notify.webhook_timeout":              "HELIX_NOTIFY_WEBHOOK_TIMEOUT",
		"session.idle_timeout":                "HELIX_SESSION_IDLE_TIMEOUT",
		"session.sweep_interval":              "HELIX_SESSION_SWEEP_INTERVAL",
		"cli.token":                           "HELIX_TOKEN",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Platforms that set PORT win unless HELIX_SERVER_PORT is explicit.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("HELIX_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.Backend = BackendConfig{
		BaseURL: strings.TrimRight(v.GetString("backend.base_url"), "/"),
		Timeout: v.GetDuration("backend.timeout"),
	}
	cfg.Upload = UploadConfig{
		MaxFileSizeMB:             v.GetInt64("upload.max_file_size_mb"),
		RevalidateOnRoutingChange: v.GetBool("upload.revalidate_on_routing_change"),
		RequireCredential:         v.GetBool("upload.require_credential"),
		HistoryLimit:              v.GetInt("upload.history_limit"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:    v.GetString("s3.region"),
		Bucket:    v.GetString("s3.bucket"),
		Endpoint:  v.GetString("s3.endpoint"),
		AccessKey: v.GetString("s3.access_key"),
		SecretKey: v.GetString("s3.secret_key"),
	}
	cfg.Staging = StagingConfig{
		Provider: v.GetString("staging.provider"),
		Prefix:   strings.Trim(v.GetString("staging.prefix"), "/"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	// Parse CORS allowed origins from comma-separated string
	var corsOrigins []string
	for _, o := range strings.Split(v.GetString("cors.allowed_origins"), ",") {
		o = strings.TrimSpace(o)
		if o != "" {
			corsOrigins = append(corsOrigins, o)
		}
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: corsOrigins,
	}
	cfg.Notify = NotifyConfig{
		Provider:    v.GetString("notify.provider"),
		Region:      v.GetString("notify.region"),
		FromAddress: v.GetString("notify.from_address"),
		FromName:    v.GetString("notify.from_name"),
		ConsoleURL:  v.GetString("notify.console_url"),
		WebhookURL:  v.GetString("notify.webhook_url"),
		WebhookTTL:  v.GetDuration("notify.webhook_timeout"),
	}
	cfg.Session = SessionConfig{
		IdleTimeout:   v.GetDuration("session.idle_timeout"),
		SweepInterval: v.GetDuration("session.sweep_interval"),
	}
	if cfg.Session.IdleTimeout <= 0 {
		return nil, fmt.Errorf("session.idle_timeout must be positive, got %s", cfg.Session.IdleTimeout)
	}
	if cfg.Session.SweepInterval <= 0 {
		return nil, fmt.Errorf("session.sweep_interval must be positive, got %s", cfg.Session.SweepInterval)
	}
	cfg.CLI = CLIConfig{
		Token: v.GetString("cli.token"),
	}

	return cfg, nil
}
