package ratelimit

import (
	"net/http"
	"time"

	"github.com/monu322/ai-job-applier-app/internal/config"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (supports prefix matching)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// key identifies the bucket group of an endpoint configuration.
func (e *EndpointConfig) key() string {
	return e.Method + " " + e.Path
}

// FromServerConfig builds limiter configuration from the server settings.
func FromServerConfig(cfg config.RateLimitConfig) *Config {
	if !cfg.Enabled {
		return &Config{Enabled: false}
	}
	return &Config{
		Enabled:         true,
		DefaultLimit:    cfg.DefaultLimit,
		DefaultWindow:   cfg.DefaultWindow,
		CleanupInterval: cfg.CleanupInterval,
		Whitelist:       toSet(cfg.Whitelist),
		Blacklist:       toSet(cfg.Blacklist),
		EndpointConfigs: DefaultEndpointConfigs(cfg.ParseLimit, cfg.ParseWindow),
	}
}

// DefaultEndpointConfigs returns the endpoint-specific limits. CV parsing
// makes a completion call per request, so it gets the parse limit.
func DefaultEndpointConfigs(parseLimit int, parseWindow time.Duration) []EndpointConfig {
	return []EndpointConfig{
		// Tier 1: completion calls (strictest limits)
		{Path: "/api/personas/parse-cv", Method: http.MethodPost, Limit: parseLimit, Window: parseWindow, Burst: 2},
		{Path: "/api/personas/parse-text", Method: http.MethodPost, Limit: parseLimit, Window: parseWindow, Burst: 2},
		{Path: "/api/personas/from-cv", Method: http.MethodPost, Limit: parseLimit, Window: parseWindow, Burst: 2},

		// Tier 2: credential checks
		{Path: "/api/auth/register", Method: http.MethodPost, Limit: 20, Window: time.Minute, Burst: 5},
		{Path: "/api/auth/login", Method: http.MethodPost, Limit: 20, Window: time.Minute, Burst: 5},

		// Tier 3: writes
		{Path: "/api/personas", Method: http.MethodPost, Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/api/personas/", Method: http.MethodPut, Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/api/personas/", Method: http.MethodPatch, Limit: 100, Window: time.Minute, Burst: 10},
		{Path: "/api/personas/", Method: http.MethodDelete, Limit: 100, Window: time.Minute, Burst: 10},

		// Reads use the default limit; /health is unlimited (see MatchEndpoint)
	}
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[item] = true
	}
	return set
}
