package config

import (
	"fmt"
	"strings"
)

// AnthropicKeyPrefix is the expected literal prefix of Anthropic API keys.
// A key without it triggers a warning, not a failure.
const AnthropicKeyPrefix = "sk-ant-"

// Config represents the full application configuration.
type Config struct {
	GitHub        GitHubConfig        `yaml:"github"`
	Anthropic     AnthropicConfig     `yaml:"anthropic"`
	HTTP          HTTPConfig          `yaml:"http"`
	Review        ReviewConfig        `yaml:"review"`
	Git           GitConfig           `yaml:"git"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// GitHubConfig configures the hosting platform API.
type GitHubConfig struct {
	Token      string `yaml:"token"`
	Repository string `yaml:"repository"` // "owner/repo"
	BaseURL    string `yaml:"baseURL"`
}

// Owner returns the repository owner portion of Repository.
func (g GitHubConfig) Owner() string {
	owner, _, _ := strings.Cut(g.Repository, "/")
	return owner
}

// Repo returns the repository name portion of Repository.
func (g GitHubConfig) Repo() string {
	_, repo, _ := strings.Cut(g.Repository, "/")
	return repo
}

// AnthropicConfig configures the inference provider.
type AnthropicConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseURL"`
}

// HTTPConfig holds global HTTP client settings.
type HTTPConfig struct {
	Timeout             string  `yaml:"timeout"`
	MaxRetries          int     `yaml:"maxRetries"`
	InferenceMaxRetries int     `yaml:"inferenceMaxRetries"`
	InitialBackoff      string  `yaml:"initialBackoff"`
	MaxBackoff          string  `yaml:"maxBackoff"`
	BackoffMultiplier   float64 `yaml:"backoffMultiplier"`
}

// ReviewConfig configures the review pipeline.
type ReviewConfig struct {
	// MaxDiffBytes bounds the diff payload sent to the model.
	MaxDiffBytes int `yaml:"maxDiffBytes"`
}

// GitConfig locates the local repository checkout.
type GitConfig struct {
	RepositoryDir string `yaml:"repositoryDir"`
}

// ObservabilityConfig configures logging.
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig configures request/response logging.
type LoggingConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Level         string `yaml:"level"`         // debug, info, error
	Format        string `yaml:"format"`        // json, human
	RedactAPIKeys bool   `yaml:"redactAPIKeys"` // Redact API keys in logs
}

// Validate performs the pre-flight input checks. It runs before any
// network or process call and names the input that failed.
func (c Config) Validate() error {
	if strings.TrimSpace(c.GitHub.Token) == "" {
		return fmt.Errorf("github token is required (set GITHUB_TOKEN or github.token)")
	}
	if strings.TrimSpace(c.Anthropic.APIKey) == "" {
		return fmt.Errorf("anthropic api key is required (set ANTHROPIC_API_KEY or anthropic.apiKey)")
	}
	owner, repo, ok := strings.Cut(c.GitHub.Repository, "/")
	if !ok || owner == "" || repo == "" {
		return fmt.Errorf("github repository must be in owner/repo form, got %q", c.GitHub.Repository)
	}
	return nil
}

// KeyFormatWarning returns a non-fatal warning when the inference key does
// not look like an Anthropic key. An empty string means no warning.
func (c Config) KeyFormatWarning() string {
	if c.Anthropic.APIKey == "" || strings.HasPrefix(c.Anthropic.APIKey, AnthropicKeyPrefix) {
		return ""
	}
	return fmt.Sprintf("anthropic api key does not start with %q; it may be invalid", AnthropicKeyPrefix)
}
