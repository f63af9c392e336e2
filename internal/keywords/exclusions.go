package keywords

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ExclusionSet holds generic/boilerplate phrases that must never surface as
// keywords. It is an immutable value loaded once per batch run and passed into
// every extractor call.
type ExclusionSet struct {
	entries []string
}

// NewExclusionSet builds a set from a flat list of phrases.
func NewExclusionSet(entries []string) ExclusionSet {
	cleaned := make([]string, 0, len(entries))
	for _, e := range entries {
		if e = strings.TrimSpace(e); e != "" {
			cleaned = append(cleaned, e)
		}
	}
	return ExclusionSet{entries: cleaned}
}

// LoadExclusions reads a category -> phrases YAML file and flattens all
// categories into one set. A missing file degrades to a minimal built-in list.
func LoadExclusions(path string) (ExclusionSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return NewExclusionSet([]string{"Breaking News", "Market Updates", "Analysis", "News"}),
			fmt.Errorf("read exclusions %s: %w", path, err)
	}

	var categories map[string][]string
	if err := yaml.Unmarshal(raw, &categories); err != nil {
		return ExclusionSet{}, fmt.Errorf("parse exclusions %s: %w", path, err)
	}

	var flat []string
	for _, phrases := range categories {
		flat = append(flat, phrases...)
	}
	return NewExclusionSet(flat), nil
}

// Len reports the number of exclusion entries.
func (s ExclusionSet) Len() int {
	return len(s.entries)
}

// Excludes reports whether a single candidate term is blocked by the set.
// Single-word entries block on case-insensitive equality; multi-word entries
// also block on substring containment in either direction.
func (s ExclusionSet) Excludes(candidate string) bool {
	cand := strings.ToLower(strings.TrimSpace(candidate))
	if cand == "" {
		return true
	}

	for _, entry := range s.entries {
		excl := strings.ToLower(entry)
		if cand == excl {
			return true
		}
		if strings.Contains(entry, " ") {
			if strings.Contains(cand, excl) || strings.Contains(excl, cand) {
				return true
			}
		}
	}
	return false
}

// Filter drops excluded candidates, preserving order. Pure function.
func Filter(candidates []string, set ExclusionSet) []string {
	kept := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if !set.Excludes(c) {
			kept = append(kept, strings.TrimSpace(c))
		}
	}
	return kept
}
