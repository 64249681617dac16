package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/monu322/ai-job-applier-app/internal/logging"
)

// Identity provider names accepted in AUTH_PROVIDER.
const (
	AuthProviderSupabase = "supabase"
	AuthProviderLocal    = "local"
)

// Completion provider names accepted in LLM_PROVIDER.
const (
	LLMProviderGemini = "gemini"
	LLMProviderOpenAI = "openai"
)

// ServerConfig is the environment-driven configuration of the API server.
type ServerConfig struct {
	Host           string
	Port           int
	AllowedOrigins []string
	DatabaseURL    string

	LLM        LLMConfig
	Extraction ExtractionConfig
	Auth       AuthConfig
	Storage    StorageConfig
	Logging    logging.Config
	RateLimit  RateLimitConfig
}

// LLMConfig selects the completion provider and its credentials.
type LLMConfig struct {
	Provider      string
	GeminiAPIKey  string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	Model         string // overrides the provider's default model
}

// APIKey returns the credential for the selected provider.
func (c LLMConfig) APIKey() string {
	if c.Provider == LLMProviderOpenAI {
		return c.OpenAIAPIKey
	}
	return c.GeminiAPIKey
}

// ExtractionConfig bounds CV extraction.
type ExtractionConfig struct {
	MaxBytes        int
	Temperature     float32
	MaxOutputTokens int32
}

// AuthConfig configures the identity provider and token verification.
// JWTSecret is the Supabase project JWT secret when Provider is supabase.
type AuthConfig struct {
	Provider           string
	SupabaseURL        string
	SupabaseAnonKey    string
	JWTSecret          string
	JWTExpirationHours int
	Password           PasswordConfig
}

// StorageConfig points at the S3-compatible bucket holding uploaded CVs.
// Uploads are disabled when Endpoint is empty.
type StorageConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	PublicURL string // base URL used to build cv_file_url; defaults to the endpoint
}

// Enabled reports whether a blob store is configured.
func (c StorageConfig) Enabled() bool {
	return c.Endpoint != ""
}

// RateLimitConfig holds request rate limits. Parse endpoints call the
// completion model and get their own, stricter budget.
type RateLimitConfig struct {
	Enabled         bool
	DefaultLimit    int
	DefaultWindow   time.Duration
	ParseLimit      int
	ParseWindow     time.Duration
	CleanupInterval time.Duration
	Whitelist       []string
	Blacklist       []string
}

// LoadServerConfig reads the server configuration from the environment.
// It fails only on values that do not parse; use Validate for missing
// settings.
func LoadServerConfig() (*ServerConfig, error) {
	env := &envReader{}

	cfg := &ServerConfig{
		Host:           env.String("HOST", "0.0.0.0"),
		Port:           env.Int("PORT", 8000),
		AllowedOrigins: env.List("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		DatabaseURL:    env.String("DATABASE_URL", ""),
		LLM: LLMConfig{
			Provider:      strings.ToLower(env.String("LLM_PROVIDER", LLMProviderGemini)),
			GeminiAPIKey:  env.String("GEMINI_API_KEY", ""),
			OpenAIAPIKey:  env.String("OPENAI_API_KEY", ""),
			OpenAIBaseURL: env.String("OPENAI_BASE_URL", ""),
			Model:         env.String("LLM_MODEL", ""),
		},
		Extraction: ExtractionConfig{
			MaxBytes:        env.Int("CV_MAX_BYTES", 5<<20),
			Temperature:     float32(env.Float("CV_TEMPERATURE", 0.3)),
			MaxOutputTokens: int32(env.Int("CV_MAX_OUTPUT_TOKENS", 2000)),
		},
		Auth: AuthConfig{
			Provider:           strings.ToLower(env.String("AUTH_PROVIDER", AuthProviderSupabase)),
			SupabaseURL:        strings.TrimRight(env.String("SUPABASE_URL", ""), "/"),
			SupabaseAnonKey:    env.String("SUPABASE_ANON_KEY", ""),
			JWTSecret:          env.String("JWT_SECRET", ""),
			JWTExpirationHours: env.Int("JWT_EXPIRATION_HOURS", 24),
			Password: PasswordConfig{
				BcryptCost: env.Int("BCRYPT_COST", DefaultBcryptCost),
				Pepper:     env.String("PASSWORD_PEPPER", ""),
			},
		},
		Storage: StorageConfig{
			Endpoint:  env.String("STORAGE_ENDPOINT", ""),
			AccessKey: env.String("STORAGE_ACCESS_KEY", ""),
			SecretKey: env.String("STORAGE_SECRET_KEY", ""),
			Bucket:    env.String("STORAGE_BUCKET", "cvs"),
			UseSSL:    env.Bool("STORAGE_USE_SSL", true),
			PublicURL: strings.TrimRight(env.String("STORAGE_PUBLIC_URL", ""), "/"),
		},
		Logging: logging.Config{
			Level:  env.String("LOG_LEVEL", "info"),
			Format: env.String("LOG_FORMAT", logging.FormatJSON),
		},
		RateLimit: RateLimitConfig{
			Enabled:         env.Bool("RATE_LIMIT_ENABLED", true),
			DefaultLimit:    env.Int("RATE_LIMIT_DEFAULT_LIMIT", 1000),
			DefaultWindow:   env.Duration("RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
			ParseLimit:      env.Int("RATE_LIMIT_PARSE_LIMIT", 20),
			ParseWindow:     env.Duration("RATE_LIMIT_PARSE_WINDOW", time.Hour),
			CleanupInterval: env.Duration("RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
			Whitelist:       env.List("RATE_LIMIT_WHITELIST", nil),
			Blacklist:       env.List("RATE_LIMIT_BLACKLIST", nil),
		},
	}

	if len(env.errs) > 0 {
		return nil, errors.Join(env.errs...)
	}
	return cfg, nil
}

// Addr returns the listen address.
func (c *ServerConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Validate reports every missing or out-of-range setting.
func (c *ServerConfig) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if c.Port < 1 || c.Port > 65535 {
		add("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DatabaseURL == "" {
		add("DATABASE_URL is required")
	}

	switch c.LLM.Provider {
	case LLMProviderGemini, LLMProviderOpenAI:
		if c.LLM.APIKey() == "" {
			add("%s_API_KEY is required for LLM_PROVIDER=%s", strings.ToUpper(c.LLM.Provider), c.LLM.Provider)
		}
	default:
		add("LLM_PROVIDER must be %q or %q, got %q", LLMProviderGemini, LLMProviderOpenAI, c.LLM.Provider)
	}

	if c.Extraction.MaxBytes < 1 {
		add("CV_MAX_BYTES must be positive, got %d", c.Extraction.MaxBytes)
	}
	if c.Extraction.Temperature < 0 || c.Extraction.Temperature > 2 {
		add("CV_TEMPERATURE must be between 0 and 2, got %g", c.Extraction.Temperature)
	}
	if c.Extraction.MaxOutputTokens < 1 {
		add("CV_MAX_OUTPUT_TOKENS must be positive, got %d", c.Extraction.MaxOutputTokens)
	}

	if err := c.Auth.Validate(); err != nil {
		errs = append(errs, err)
	}

	if c.Storage.Enabled() {
		if c.Storage.AccessKey == "" || c.Storage.SecretKey == "" {
			add("STORAGE_ACCESS_KEY and STORAGE_SECRET_KEY are required when STORAGE_ENDPOINT is set")
		}
		if c.Storage.Bucket == "" {
			add("STORAGE_BUCKET is required when STORAGE_ENDPOINT is set")
		}
	}

	if c.RateLimit.Enabled {
		if c.RateLimit.DefaultLimit < 1 || c.RateLimit.DefaultWindow <= 0 {
			add("RATE_LIMIT_DEFAULT_LIMIT and RATE_LIMIT_DEFAULT_WINDOW must be positive")
		}
		if c.RateLimit.ParseLimit < 1 || c.RateLimit.ParseWindow <= 0 {
			add("RATE_LIMIT_PARSE_LIMIT and RATE_LIMIT_PARSE_WINDOW must be positive")
		}
	}

	return errors.Join(errs...)
}

// Validate checks the identity settings for the selected provider.
func (c AuthConfig) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.JWTExpirationHours < 1 {
		errs = append(errs, fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", c.JWTExpirationHours))
	}

	switch c.Provider {
	case AuthProviderSupabase:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			errs = append(errs, errors.New("SUPABASE_URL and SUPABASE_ANON_KEY are required for AUTH_PROVIDER=supabase"))
		}
	case AuthProviderLocal:
		if err := c.Password.Validate(); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("AUTH_PROVIDER must be %q or %q, got %q", AuthProviderSupabase, AuthProviderLocal, c.Provider))
	}
	return errors.Join(errs...)
}

// TokenTTL is the lifetime of locally issued access tokens.
func (c AuthConfig) TokenTTL() time.Duration {
	return time.Duration(c.JWTExpirationHours) * time.Hour
}
