package aggregation

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Report names and categories used by the default selectors.
const (
	CategoryAppUsage = "APP_USAGE"

	ReportAppDownloads = "App Downloads Standard"
	ReportAppSessions  = "App Sessions Standard"
)

// ReportSelector describes how one report kind is picked from the reports of a request.
// Either NameExact matches a single report by name, or Prefer scores the candidates
// within Category by the first preference their name contains.
type ReportSelector struct {
	Kind        Kind
	NameExact   string
	Category    string
	Prefer      []string
	Optional    bool   // a failed resolution is a warning, not an error
	Fingerprint string // SHA-256 of the YAML file; empty for built-in defaults
}

// rawSelector is the on-disk YAML shape.
type rawSelector struct {
	Kind      string   `yaml:"kind"`
	NameExact string   `yaml:"name_exact"`
	Category  string   `yaml:"category"`
	Prefer    []string `yaml:"prefer"`
	Optional  *bool    `yaml:"optional"`
}

// DefaultSelectors returns the built-in selectors in processing order.
func DefaultSelectors() []ReportSelector {
	return []ReportSelector{
		{Kind: KindDownloads, NameExact: ReportAppDownloads},
		{Kind: KindDeletes, Category: CategoryAppUsage, Prefer: []string{"Installation and Deletion", "Install", "Deletion"}},
		{Kind: KindSessions, Category: CategoryAppUsage, NameExact: ReportAppSessions, Optional: true},
	}
}

// Validate checks that the selector can match something.
func (s ReportSelector) Validate() error {
	if !ValidKind(s.Kind) {
		return fmt.Errorf("selector: unknown kind %q", s.Kind)
	}
	if s.NameExact == "" && len(s.Prefer) == 0 {
		return fmt.Errorf("selector %q: name_exact or prefer must be set", s.Kind)
	}
	return nil
}

// ValidKind reports whether k is one of the known report kinds.
func ValidKind(k Kind) bool {
	switch k {
	case KindDownloads, KindDeletes, KindSessions:
		return true
	}
	return false
}

// LoadSelectors returns the default selectors overridden by *.yaml files in dir.
// Each file holds one selector keyed by kind. A missing dir yields the defaults.
func LoadSelectors(dir string) ([]ReportSelector, error) {
	selectors := DefaultSelectors()
	if dir == "" {
		return selectors, nil
	}

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return selectors, nil
	}
	if err != nil {
		return nil, fmt.Errorf("report selector dir: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("report selector path %q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading report selector dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	seen := make(map[Kind]string)
	for _, e := range entries {
		if e.IsDir() || (!strings.HasSuffix(e.Name(), ".yaml") && !strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}

		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading selector file %s: %w", path, err)
		}

		var raw rawSelector
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parsing selector file %s: %w", path, err)
		}
		if raw.Kind == "" {
			continue // empty / comment-only file
		}

		kind := Kind(raw.Kind)
		if prev, dup := seen[kind]; dup {
			return nil, fmt.Errorf("selector %q: defined in both %s and %s", kind, prev, e.Name())
		}
		seen[kind] = e.Name()

		sel := ReportSelector{
			Kind:        kind,
			NameExact:   raw.NameExact,
			Category:    raw.Category,
			Prefer:      raw.Prefer,
			Optional:    kind == KindSessions,
			Fingerprint: fmt.Sprintf("%x", sha256.Sum256(data)),
		}
		if raw.Optional != nil {
			sel.Optional = *raw.Optional
		}
		if err := sel.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}

		for i := range selectors {
			if selectors[i].Kind == kind {
				selectors[i] = sel
			}
		}
	}
	return selectors, nil
}
