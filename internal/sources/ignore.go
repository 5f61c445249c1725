// Package sources discovers Python source files under a directory tree,
// honoring .gitignore-style exclusions.
package sources

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/patternmatcher"
)

const (
	// DefaultIgnoreFile is read from the root when no other file is named.
	DefaultIgnoreFile = ".gitignore"
	// LocalIgnoreFile is always read from the root when present.
	LocalIgnoreFile = ".gendocignore"
)

// BuiltinExcludes are directories never searched for sources.
var BuiltinExcludes = []string{
	".git",
	"__pycache__",
	".venv",
	"venv",
	"node_modules",
	".tox",
	"build",
	"dist",
}

// Matcher decides whether a path relative to the search root is excluded.
type Matcher struct {
	patterns []string
	pm       *patternmatcher.PatternMatcher
}

// NewMatcher compiles gitignore-style patterns.
func NewMatcher(patterns []string) (*Matcher, error) {
	translated := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if t, ok := Translate(p); ok {
			translated = append(translated, t)
		}
	}
	pm, err := patternmatcher.New(translated)
	if err != nil {
		return nil, fmt.Errorf("compile ignore patterns: %w", err)
	}
	return &Matcher{patterns: translated, pm: pm}, nil
}

// LoadMatcher builds a matcher from the built-in excludes, the ignore files
// found in root, and extra. An empty ignoreFile means DefaultIgnoreFile,
// which may be absent; a named file must exist. Relative names resolve
// against root.
func LoadMatcher(root, ignoreFile string, extra []string) (*Matcher, error) {
	patterns := append([]string{}, BuiltinExcludes...)

	required := ignoreFile != ""
	if ignoreFile == "" {
		ignoreFile = DefaultIgnoreFile
	}
	if !filepath.IsAbs(ignoreFile) {
		ignoreFile = filepath.Join(root, ignoreFile)
	}
	lines, err := readPatterns(ignoreFile)
	switch {
	case err == nil:
		patterns = append(patterns, lines...)
	case errors.Is(err, os.ErrNotExist) && !required:
	default:
		return nil, err
	}

	local, err := readPatterns(filepath.Join(root, LocalIgnoreFile))
	switch {
	case err == nil:
		patterns = append(patterns, local...)
	case !errors.Is(err, os.ErrNotExist):
		return nil, err
	}

	patterns = append(patterns, extra...)
	return NewMatcher(patterns)
}

func readPatterns(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return lines, nil
}

// Translate converts one gitignore line into patternmatcher syntax. It
// reports false for blank lines and comments.
//
// A pattern without an inner slash matches at any depth, a leading slash
// anchors it to the root, and a trailing slash is dropped.
func Translate(line string) (string, bool) {
	line = strings.TrimRight(line, " \t\r")
	if line == "" || strings.HasPrefix(line, "#") {
		return "", false
	}
	negate := false
	if strings.HasPrefix(line, "!") {
		negate = true
		line = line[1:]
	}
	line = strings.TrimPrefix(line, `\`)
	line = strings.TrimSuffix(line, "/")
	anchored := strings.Contains(line, "/")
	line = strings.TrimPrefix(line, "/")
	if line == "" {
		return "", false
	}
	if !anchored && !strings.HasPrefix(line, "**/") {
		line = "**/" + line
	}
	if negate {
		line = "!" + line
	}
	return line, true
}

// Patterns returns the translated patterns in evaluation order.
func (m *Matcher) Patterns() []string {
	if m == nil {
		return nil
	}
	return append([]string(nil), m.patterns...)
}

// Excluded reports whether rel, or a directory containing it, is excluded.
func (m *Matcher) Excluded(rel string) bool {
	if m == nil || len(m.patterns) == 0 {
		return false
	}
	rel = filepath.Clean(filepath.FromSlash(rel))
	if rel == "." {
		return false
	}
	ok, err := m.pm.MatchesOrParentMatches(rel)
	return err == nil && ok
}
