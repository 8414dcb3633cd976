package script

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jward/understory"
)

// Header pragmas are comment lines at the top of a .risor rule script:
//
//	// name: Unused variable
//	// language: go
//	// dialects: true
//	// dumb-aware: true
//
// The rule ID is the file name without extension. Pragma parsing stops at
// the first non-comment, non-blank line.

// Loader reads rule scripts from a directory.
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a Loader. A nil logger falls back to slog.Default.
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadDir reads every *.risor file in dir (sorted by name) into a rule.
func (l *Loader) LoadDir(dir string) ([]understory.Rule, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading rules dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".risor") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	var rules []understory.Rule
	for _, name := range names {
		path := filepath.Join(dir, name)
		rule, err := l.LoadFile(path)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}

// LoadFile reads one rule script.
func (l *Loader) LoadFile(path string) (*ScriptRule, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rule script: %w", err)
	}
	id := strings.TrimSuffix(filepath.Base(path), ".risor")
	return l.Parse(id, string(src), path)
}

// Parse builds a rule from script source. id becomes RuleMeta.ID; the
// display name defaults to the ID when the script declares none.
func (l *Loader) Parse(id, source, path string) (*ScriptRule, error) {
	meta := understory.RuleMeta{ID: id, Name: id}
	for _, line := range strings.Split(source, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var body string
		switch {
		case strings.HasPrefix(line, "//"):
			body = strings.TrimSpace(strings.TrimPrefix(line, "//"))
		case strings.HasPrefix(line, "#"):
			body = strings.TrimSpace(strings.TrimPrefix(line, "#"))
		default:
			// First code line ends the header.
			return &ScriptRule{meta: meta, source: source, path: path, logger: l.logger}, nil
		}

		key, value, found := strings.Cut(body, ":")
		if !found {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		switch key {
		case "name":
			meta.Name = value
		case "language":
			meta.Language = value
		case "dialects":
			meta.Dialects = value == "true"
		case "dumb-aware":
			meta.DumbAware = value == "true"
		}
	}
	return &ScriptRule{meta: meta, source: source, path: path, logger: l.logger}, nil
}
