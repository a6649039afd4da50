// Package actions integrates with the GitHub Actions runner: step outputs
// and the triggering event payload.
package actions

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// OutputWriter appends step outputs to the file named by GITHUB_OUTPUT.
type OutputWriter struct {
	path string
}

// NewOutputWriter creates a writer for the runner's output file. Returns
// an error when GITHUB_OUTPUT is not set (running outside Actions).
func NewOutputWriter() (*OutputWriter, error) {
	path := os.Getenv("GITHUB_OUTPUT")
	if path == "" {
		return nil, fmt.Errorf("GITHUB_OUTPUT environment variable not set")
	}
	return &OutputWriter{path: path}, nil
}

// NewFileOutputWriter creates a writer targeting an explicit path (for testing).
func NewFileOutputWriter(path string) *OutputWriter {
	return &OutputWriter{path: path}
}

// Write appends a single key=value output. Multiline values use the
// runner's heredoc form with a random delimiter so the value cannot
// terminate the block.
func (w *OutputWriter) Write(key, value string) error {
	f, err := os.OpenFile(w.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open output file: %w", err)
	}
	defer f.Close()

	var line string
	if strings.Contains(value, "\n") {
		delimiter, err := randomDelimiter()
		if err != nil {
			return err
		}
		line = fmt.Sprintf("%s<<%s\n%s\n%s\n", key, delimiter, value, delimiter)
	} else {
		line = fmt.Sprintf("%s=%s\n", key, value)
	}

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write output %s: %w", key, err)
	}
	return nil
}

func randomDelimiter() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate output delimiter: %w", err)
	}
	return "ghadelimiter_" + hex.EncodeToString(buf), nil
}
