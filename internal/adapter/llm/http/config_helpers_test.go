package http_test

import (
	"testing"
	"time"

	llmhttp "github.com/bkyoung/pr-reviewer/internal/adapter/llm/http"
	"github.com/bkyoung/pr-reviewer/internal/config"
	"github.com/stretchr/testify/assert"
)

func TestParseTimeout(t *testing.T) {
	tests := []struct {
		name       string
		configured string
		defaultVal time.Duration
		want       time.Duration
	}{
		{"valid duration", "60s", 120 * time.Second, 60 * time.Second},
		{"empty uses default", "", 120 * time.Second, 120 * time.Second},
		{"garbage uses default", "not-a-duration", 120 * time.Second, 120 * time.Second},
		{"negative uses default", "-5s", 120 * time.Second, 120 * time.Second},
		{"zero is allowed", "0s", 120 * time.Second, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := llmhttp.ParseTimeout(tt.configured, tt.defaultVal)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildRetryConfig(t *testing.T) {
	httpCfg := config.HTTPConfig{
		MaxRetries:          4,
		InferenceMaxRetries: 3,
		InitialBackoff:      "2s",
		MaxBackoff:          "32s",
		BackoffMultiplier:   2.0,
	}

	conf := llmhttp.BuildRetryConfig(httpCfg)

	assert.Equal(t, 4, conf.MaxRetries)
	assert.Equal(t, 2*time.Second, conf.InitialBackoff)
	assert.Equal(t, 32*time.Second, conf.MaxBackoff)
	assert.Equal(t, 2.0, conf.Multiplier)
}

func TestBuildRetryConfigFallbacks(t *testing.T) {
	conf := llmhttp.BuildRetryConfig(config.HTTPConfig{
		InitialBackoff:    "garbage",
		MaxBackoff:        "",
		BackoffMultiplier: -1,
	})

	assert.Equal(t, 2*time.Second, conf.InitialBackoff)
	assert.Equal(t, 32*time.Second, conf.MaxBackoff)
	assert.Equal(t, 2.0, conf.Multiplier)
}

func TestBuildInferenceRetryConfig(t *testing.T) {
	httpCfg := config.HTTPConfig{
		MaxRetries:          4,
		InferenceMaxRetries: 3,
		InitialBackoff:      "2s",
		MaxBackoff:          "32s",
		BackoffMultiplier:   2.0,
	}

	conf := llmhttp.BuildInferenceRetryConfig(httpCfg)

	assert.Equal(t, 3, conf.MaxRetries, "inference budget is smaller than the generic one")
	assert.Equal(t, 2*time.Second, conf.InitialBackoff)
}
