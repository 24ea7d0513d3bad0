package security

import (
	"regexp"
	"strings"
	"sync"
)

// RedactPlaceholder is the replacement string for redacted secrets.
const RedactPlaceholder = "***REDACTED***"

// Redactor replaces secret values in strings with a redaction placeholder.
// It combines regex patterns (for well-known credential formats) with
// literal values added at runtime (e.g. the configured bearer token).
// All methods are safe for concurrent use.
type Redactor struct {
	mu       sync.RWMutex
	patterns []*regexp.Regexp
	literals []string
}

// NewRedactor creates a Redactor pre-loaded with patterns for common
// credential formats.
func NewRedactor() *Redactor {
	return &Redactor{
		patterns: defaultPatterns(),
	}
}

// AddPattern adds a compiled regex pattern to the redactor.
func (r *Redactor) AddPattern(pattern *regexp.Regexp) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, pattern)
}

// AddLiteral adds a literal secret value that is redacted on sight.
// Empty strings are ignored.
func (r *Redactor) AddLiteral(secret string) {
	if secret == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.literals = append(r.literals, secret)
}

// Redact replaces all known secret patterns and literal values in s with
// RedactPlaceholder.
func (r *Redactor) Redact(s string) string {
	if s == "" {
		return s
	}

	r.mu.RLock()
	patterns := r.patterns
	literals := r.literals
	r.mu.RUnlock()

	for _, p := range patterns {
		s = p.ReplaceAllString(s, RedactPlaceholder)
	}
	for _, lit := range literals {
		if strings.Contains(s, lit) {
			s = strings.ReplaceAll(s, lit, RedactPlaceholder)
		}
	}
	return s
}

// defaultPatterns returns compiled patterns for common credential formats.
func defaultPatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		// Bearer tokens in header-shaped strings.
		regexp.MustCompile(`Bearer\s+[A-Za-z0-9\-._~+/]{16,}=*`),
		// GitHub tokens.
		regexp.MustCompile(`(ghp_|gho_|ghs_|github_pat_)[a-zA-Z0-9_]{20,}`),
		// AWS access key IDs.
		regexp.MustCompile(`AKIA[A-Z0-9]{16}`),
		// Generic sk- style API keys.
		regexp.MustCompile(`sk-[a-zA-Z0-9\-]{20,}`),
	}
}
