package http

import (
	"time"

	"github.com/bkyoung/pr-reviewer/internal/config"
)

// ParseTimeout parses a configured timeout with a default fallback.
// Negative durations are rejected (would cause runtime panic in http.Client.Timeout).
func ParseTimeout(configured string, defaultVal time.Duration) time.Duration {
	if configured != "" {
		if d, err := time.ParseDuration(configured); err == nil && d >= 0 {
			return d
		}
	}
	if defaultVal < 0 {
		return 120 * time.Second
	}
	return defaultVal
}

// BuildRetryConfig creates the generic RetryConfig from HTTP config.
func BuildRetryConfig(httpCfg config.HTTPConfig) RetryConfig {
	return RetryConfig{
		MaxRetries:     httpCfg.MaxRetries,
		InitialBackoff: parseDuration(httpCfg.InitialBackoff, 2*time.Second),
		MaxBackoff:     parseDuration(httpCfg.MaxBackoff, 32*time.Second),
		Multiplier:     multiplier(httpCfg.BackoffMultiplier),
	}
}

// BuildInferenceRetryConfig creates the reduced-budget RetryConfig used
// for the inference call.
func BuildInferenceRetryConfig(httpCfg config.HTTPConfig) RetryConfig {
	cfg := BuildRetryConfig(httpCfg)
	cfg.MaxRetries = httpCfg.InferenceMaxRetries
	return cfg
}

// parseDuration parses duration with fallback to the default.
// Negative durations are rejected to prevent invalid backoff values.
func parseDuration(raw string, defaultVal time.Duration) time.Duration {
	if raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d >= 0 {
			return d
		}
	}
	return defaultVal
}

func multiplier(raw float64) float64 {
	if raw <= 0 {
		return 2.0
	}
	return raw
}
