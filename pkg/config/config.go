package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// PlatformKeys holds the platform-funded provider credentials. These are the
// keys of last resort: user-supplied and stored keys always win over them.
type PlatformKeys struct {
	OpenAIKey     string `yaml:"openai_key" envconfig:"OPENAI_KEY"`
	OpenAIBaseURL string `yaml:"openai_base_url" envconfig:"OPENAI_BASE_URL"`
	GeminiKey     string `yaml:"gemini_key" envconfig:"GEMINI_KEY"`
}

// QuotaConfig contains the platform-funded usage policy.
type QuotaConfig struct {
	// FreeDailyRequests caps platform-funded model calls per user per day.
	FreeDailyRequests int `yaml:"free_daily_requests" envconfig:"FREE_DAILY_REQUESTS"`
}

// RateLimitConfig contains the write-endpoint request-frequency policy.
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" envconfig:"REQUESTS_PER_MINUTE"`
}

// AuthConfig contains caller-identity settings. Session issuance is external;
// the engine only verifies bearer tokens signed with the shared secret.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" envconfig:"JWT_SECRET"`
	// DevUserHeader allows X-User-ID to stand in for a verified identity.
	// DevMode implies it. Never enable on an exposed deployment.
	DevUserHeader bool `yaml:"dev_user_header" envconfig:"DEV_USER_HEADER"`
}

// StorageConfig contains persistence settings.
type StorageConfig struct {
	// Path is the SQLite database file. Empty selects .runtime/agentgate.db.
	Path string `yaml:"path" envconfig:"PATH"`
	// SealerKeyHex is the hex-encoded AES key used to seal stored provider
	// credentials. Credential storage is disabled when empty.
	SealerKeyHex string `yaml:"sealer_key_hex" envconfig:"SEALER_KEY_HEX"`
}

// ModelConfig contains model-selection settings.
type ModelConfig struct {
	// DefaultFree is the fallback model when a resolved id is not cataloged.
	DefaultFree string `yaml:"default_free" envconfig:"DEFAULT_FREE"`
	// MaxTokens caps generation length per call (0 = provider default).
	MaxTokens int `yaml:"max_tokens" envconfig:"MAX_TOKENS"`
	// Temperature is the sampling temperature for all calls.
	Temperature float64 `yaml:"temperature" envconfig:"TEMPERATURE"`
}

// HTTPConfig contains HTTP API related settings.
type HTTPConfig struct {
	Addr string `yaml:"addr" envconfig:"ADDR"`
}

// StripeConfig configures the payment collaborator.
type StripeConfig struct {
	APIKey string `yaml:"api_key" envconfig:"API_KEY"`
}

// Config is the root configuration structure.
type Config struct {
	// LogLevel controls structured logging verbosity (DEBUG, INFO, WARN, ERROR).
	LogLevel string `yaml:"log_level" envconfig:"LOG_LEVEL"`

	// DevMode enables development features like Swagger UI and header identity.
	DevMode bool `yaml:"dev_mode" envconfig:"DEV_MODE"`

	// CatalogPath optionally overrides the built-in action catalog with a YAML file.
	CatalogPath string `yaml:"catalog_path" envconfig:"CATALOG_PATH"`

	HTTP      HTTPConfig      `yaml:"http" envconfig:"HTTP"`
	Auth      AuthConfig      `yaml:"auth" envconfig:"AUTH"`
	Platform  PlatformKeys    `yaml:"platform" envconfig:"PLATFORM"`
	Quota     QuotaConfig     `yaml:"quota" envconfig:"QUOTA"`
	RateLimit RateLimitConfig `yaml:"rate_limit" envconfig:"RATE_LIMIT"`
	Storage   StorageConfig   `yaml:"storage" envconfig:"STORAGE"`
	Models    ModelConfig     `yaml:"models" envconfig:"MODELS"`
	Stripe    StripeConfig    `yaml:"stripe" envconfig:"STRIPE"`
}

// Load reads configuration from the specified path, or defaults if path is empty.
// Priority: Env Vars > Config File > Defaults
func Load(path string) (*Config, error) {
	// Try loading .env files (ignore error if not present)
	_ = godotenv.Load(".env.local")
	_ = godotenv.Load(".env")

	if path == "" {
		// Try default locations
		home, err := os.UserHomeDir()
		if err == nil {
			defaultPath := filepath.Join(home, ".agentgate", "config.yaml")
			if _, err := os.Stat(defaultPath); err == nil {
				path = defaultPath
			}
		}

		localPath := "config.yaml"
		if _, err := os.Stat(localPath); err == nil {
			path = localPath
		}
	}

	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	// Process Env Vars (AGENTGATE_ prefix). Overrides file values.
	if err := envconfig.Process("AGENTGATE", cfg); err != nil {
		return nil, fmt.Errorf("failed to process env vars: %w", err)
	}

	applyDefaults(cfg)

	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.HTTP.Addr == "" {
		cfg.HTTP.Addr = ":8080"
	}
	if cfg.Quota.FreeDailyRequests == 0 {
		cfg.Quota.FreeDailyRequests = 50
	}
	if cfg.RateLimit.RequestsPerMinute == 0 {
		cfg.RateLimit.RequestsPerMinute = 30
	}
	if cfg.Storage.Path == "" {
		cfg.Storage.Path = filepath.Join(".runtime", "agentgate.db")
	}
	if cfg.Models.DefaultFree == "" {
		cfg.Models.DefaultFree = "gemini-2.0-flash"
	}
	if cfg.Models.Temperature == 0 {
		cfg.Models.Temperature = 0.7
	}
}
