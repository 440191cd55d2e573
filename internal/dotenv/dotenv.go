// Package dotenv reads the upstream API key from a line-oriented KEY=VALUE file.
package dotenv

import (
	"bufio"
	"log/slog"
	"os"
	"strings"
	"sync"

	"scene-proxy-go/internal/config"
)

// Loader resolves the credential from the env file. By default every Lookup
// re-reads the file, so editing the key takes effect on the next request
// without a restart. With caching enabled the last result is reused until
// Invalidate is called (see Watch).
//
// The credential value itself is never logged.
type Loader struct {
	path   string
	key    string
	cache  bool
	logger *slog.Logger

	mu     sync.Mutex
	value  string
	found  bool
	cached bool
}

// NewLoader creates a Loader for the configured env file and key name.
func NewLoader(cfg *config.Config, logger *slog.Logger) *Loader {
	return &Loader{
		path:   cfg.Credential.File,
		key:    cfg.Credential.Key,
		cache:  cfg.Credential.Cache,
		logger: logger.With("component", "dotenv"),
	}
}

// Lookup returns the credential and whether it was found. A missing file,
// missing key, or empty value all report found=false; none of these are
// errors, the caller decides how to respond.
func (l *Loader) Lookup() (string, bool) {
	if !l.cache {
		return l.read()
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.cached {
		l.value, l.found = l.read()
		l.cached = true
	}
	return l.value, l.found
}

// Invalidate drops the cached value so the next Lookup re-reads the file.
// No-op when caching is disabled.
func (l *Loader) Invalidate() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cached = false
	l.value = ""
	l.found = false
}

// read scans the env file for the first line whose key matches.
// Grammar: blank lines and #-comments are skipped; a significant line is
// split on the first '='; the value has surrounding whitespace and quote
// characters stripped. The first key match wins even if its value is empty.
func (l *Loader) read() (string, bool) {
	f, err := os.Open(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			l.logger.Warn("env file not found", "path", l.path)
		} else {
			l.logger.Warn("env file not readable", "path", l.path, "err", err)
		}
		return "", false
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}
		if strings.TrimSpace(line[:eq]) != l.key {
			continue
		}
		v := unquote(strings.TrimSpace(line[eq+1:]))
		return v, v != ""
	}
	if err := scanner.Err(); err != nil {
		l.logger.Warn("env file read failed", "path", l.path, "err", err)
	}
	return "", false
}

// unquote strips surrounding double quotes, then single quotes.
func unquote(s string) string {
	s = strings.Trim(s, `"`)
	return strings.Trim(s, `'`)
}
