package ingest

import (
	"strings"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/features"
)

// Build assembles a record with exactly the eight canonical categories. Snippets are
// rendered as "• snippet" lines in match order; categories without snippets are Missing.
func Build(device string, snippets map[features.Category][]string) *features.Record {
	r := features.NewRecord(device)
	for _, cat := range features.All {
		r.Set(cat.Label(), bulletLines(snippets[cat]))
	}
	return r
}

// EmptyRecord returns a record whose eight categories are all Missing.
func EmptyRecord(device string) *features.Record {
	return Build(device, nil)
}

// Backfill normalizes a structured mapping into a record. Canonical categories come first
// in canonical order; a value supplied under an equivalent label ("Connectivity",
// "6) Comms") is moved to the canonical label, and absent or blank categories become
// Missing. Unrecognized keys are kept as opaque extras after the canonical eight.
func Backfill(device string, mapping *features.Record) *features.Record {
	r := features.NewRecord(device)
	consumed := make(map[string]bool)

	for _, cat := range features.All {
		text := features.MissingText
		if mapping != nil {
			if label, ok := labelFor(mapping, cat); ok {
				consumed[label] = true
				if v, _ := mapping.Get(label); strings.TrimSpace(v) != "" {
					text = v
				}
			}
		}
		r.Set(cat.Label(), text)
	}

	if mapping == nil {
		return r
	}
	for _, label := range mapping.Labels() {
		if consumed[label] {
			continue
		}
		if _, ok := r.Get(label); ok {
			continue
		}
		v, _ := mapping.Get(label)
		r.Set(label, v)
	}
	return r
}

// labelFor finds the label in m that carries cat: the canonical label first, then the
// first label that parses to the same category.
func labelFor(m *features.Record, cat features.Category) (string, bool) {
	if _, ok := m.Get(cat.Label()); ok {
		return cat.Label(), true
	}
	for _, l := range m.Labels() {
		if c, ok := features.ParseCategory(l); ok && c == cat {
			return l, true
		}
	}
	return "", false
}

func bulletLines(snippets []string) string {
	if len(snippets) == 0 {
		return features.MissingText
	}
	lines := make([]string, len(snippets))
	for i, s := range snippets {
		lines[i] = "• " + s
	}
	return strings.Join(lines, "\n")
}
