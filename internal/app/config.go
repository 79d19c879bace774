package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (RUBY_ prefix), flags, or YAML config files.
type Config struct {
	Addr         string        `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL  string        `usage:"PostgreSQL connection URL (RUBY_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	StoreTimeout time.Duration `default:"5s" usage:"Per-call catalog store timeout" flag:"store-timeout"`
	AdminEmail   string        `usage:"Allow-listed administrator email; empty admits any provider account" flag:"admin-email"`
	Cloudinary   CloudinaryConfig
	Identity     IdentityConfig
	RateLimit    RateLimitConfig
	CORS         CORSConfig
	Graceful     GracefulConfig
}

// CloudinaryConfig configures the asset store gateway.
type CloudinaryConfig struct {
	CloudName    string        `usage:"Cloudinary cloud name" flag:"cloudinary-cloud-name"`
	UploadPreset string        `usage:"Cloudinary unsigned upload preset" flag:"cloudinary-upload-preset"`
	BaseURL      string        `default:"" usage:"Override the Cloudinary API base URL"`
	Timeout      time.Duration `default:"10s" usage:"Upload request timeout"`
	DemoMode     bool          `default:"false" usage:"Issue placeholder image URLs instead of uploading" flag:"demo-mode"`
}

// IdentityConfig configures the identity provider gateway.
type IdentityConfig struct {
	APIKey   string        `usage:"Identity provider web API key" flag:"identity-api-key"`
	BaseURL  string        `default:"" usage:"Override the identity provider base URL"`
	Timeout  time.Duration `default:"5s" usage:"Identity request timeout"`
	Disabled bool          `default:"false" usage:"Serve without authentication (local development only)" flag:"auth-disabled"`
}

// RateLimitConfig controls the per-client rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins []string `default:"*" usage:"Allowed CORS origins"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "RUBY",
		Files:     []string{"config.yaml", "/etc/ruby/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set RUBY_DATABASE_URL or DATABASE_URL")
	}
	if cfg.Identity.Disabled && cfg.AdminEmail != "" {
		return nil, errors.New("auth-disabled and admin-email are mutually exclusive")
	}
	if !cfg.Identity.Disabled && cfg.Identity.APIKey == "" {
		return nil, errors.New("identity API key is required: set RUBY_IDENTITY_API_KEY or disable auth")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) that use standard names like DATABASE_URL and PORT
// to the application's RUBY_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
