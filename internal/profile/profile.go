// Package profile loads and generates the free-text user profile that the
// agent injects verbatim into its instructions.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"webmemory/internal/domain"
)

// NoProfile is substituted when no profile file exists; its absence is not
// fatal.
const NoProfile = "No user profile available."

// Load reads the profile text from path, falling back to the sentinel.
func Load(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return NoProfile
	}
	text := strings.TrimSpace(string(data))
	if text == "" {
		return NoProfile
	}
	return text
}

// Generate distills page titles and content from the archive into a short
// profile summary.
func Generate(sum domain.Summarizer, titles []string, content string, maxSentences int) (string, error) {
	var b strings.Builder
	for _, t := range titles {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		b.WriteString(t)
		if !strings.HasSuffix(t, ".") {
			b.WriteString(".")
		}
		b.WriteString(" ")
	}
	b.WriteString(content)
	summary, err := sum.Summarize(b.String(), maxSentences)
	if err != nil {
		return "", fmt.Errorf("summarize profile: %w", err)
	}
	if strings.TrimSpace(summary) == "" {
		return "", fmt.Errorf("profile summary is empty")
	}
	return "Frequent browsing topics: " + summary, nil
}

// Save writes the profile text to path, creating directories as needed.
func Save(path, text string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(text+"\n"), 0o644)
}
