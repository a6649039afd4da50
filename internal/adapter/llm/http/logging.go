package http

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	// MaxLoggedResponseLength is the maximum length of response text to include in logs.
	// Responses longer than this are truncated to prevent logging sensitive data.
	MaxLoggedResponseLength = 200
)

// TruncateForLogging safely truncates a response string for logging purposes.
// This prevents logging of potentially sensitive user data (source code,
// secrets) to log aggregators while still providing enough context for
// debugging.
func TruncateForLogging(response string) string {
	if len(response) <= MaxLoggedResponseLength {
		return response
	}
	return response[:MaxLoggedResponseLength] + fmt.Sprintf("... [truncated, total length=%d bytes]", len(response))
}

// RedactURLSecrets redacts API keys and other secrets from URLs in error
// messages. This prevents credentials from being exposed when URLs with
// query parameters appear in error messages or logs.
//
// Example:
//
//	input:  "https://api.example.com/endpoint?key=secret123&foo=bar"
//	output: "https://api.example.com/endpoint?key=[REDACTED]&foo=bar"
func RedactURLSecrets(text string) string {
	if text == "" {
		return text
	}

	patterns := []string{
		`key=([^&"\s]+)`,
		`apiKey=([^&"\s]+)`,
		`api_key=([^&"\s]+)`,
		`token=([^&"\s]+)`,
		`access_token=([^&"\s]+)`,
	}

	result := text
	for _, pattern := range patterns {
		re := regexp.MustCompile(pattern)
		paramName := strings.TrimSuffix(pattern, `=([^&"\s]+)`)
		result = re.ReplaceAllString(result, paramName+"=[REDACTED]")
	}

	return result
}
