// Package features defines the fixed category schema and the device record model
// shared by extraction, storage and comparison.
package features

import (
	"strconv"
	"strings"
)

// Category is one of the eight fixed feature classes. The set is closed and ordered.
type Category int

const (
	Hardware Category = iota + 1
	Functions
	CoreFeatures
	AdditionalFeatures
	UserExperience
	Connectivity
	StandardsCompliance
	Notes
)

// All lists the categories in display order.
var All = []Category{
	Hardware,
	Functions,
	CoreFeatures,
	AdditionalFeatures,
	UserExperience,
	Connectivity,
	StandardsCompliance,
	Notes,
}

var categoryNames = map[Category]string{
	Hardware:            "Hardware features and specifications",
	Functions:           "Functions",
	CoreFeatures:        "Core features",
	AdditionalFeatures:  "Additional features",
	UserExperience:      "User experience",
	Connectivity:        "Connectivity",
	StandardsCompliance: "Standards compliance",
	Notes:               "Notes",
}

// categoryAliases maps loose competitor headings to canonical categories.
var categoryAliases = map[string]Category{
	"hardware":                  Hardware,
	"hardware features":         Hardware,
	"specifications":            Hardware,
	"technical specifications":  Hardware,
	"technical data":            Hardware,
	"function":                  Functions,
	"core feature":              CoreFeatures,
	"key features":              CoreFeatures,
	"additional feature":        AdditionalFeatures,
	"optional features":         AdditionalFeatures,
	"ux":                        UserExperience,
	"user interface":            UserExperience,
	"usability":                 UserExperience,
	"communication":             Connectivity,
	"interfaces":                Connectivity,
	"standards":                 StandardsCompliance,
	"compliance":                StandardsCompliance,
	"approvals":                 StandardsCompliance,
	"certifications":            StandardsCompliance,
	"note":                      Notes,
	"remarks":                   Notes,
}

// Name returns the bare category name, e.g. "Functions".
func (c Category) Name() string {
	return categoryNames[c]
}

// Label returns the canonical stored label, e.g. "2. Functions".
func (c Category) Label() string {
	if !c.Valid() {
		return ""
	}
	return strconv.Itoa(int(c)) + ". " + categoryNames[c]
}

func (c Category) String() string {
	return c.Label()
}

// Valid reports whether c is one of the eight categories.
func (c Category) Valid() bool {
	return c >= Hardware && c <= Notes
}

// Labels returns the canonical labels in display order.
func Labels() []string {
	labels := make([]string, len(All))
	for i, c := range All {
		labels[i] = c.Label()
	}
	return labels
}

// ParseCategory maps a stored or loosely formatted label to its category.
// Accepted forms: the canonical label, a leading number ("3." / "3)" / "3 -"),
// the bare name, or a known alias. Matching is case-insensitive.
func ParseCategory(label string) (Category, bool) {
	s := strings.TrimSpace(label)
	if s == "" {
		return 0, false
	}

	if n, rest, ok := splitNumberPrefix(s); ok {
		c := Category(n)
		if c.Valid() {
			return c, true
		}
		s = rest
	}

	lower := strings.ToLower(strings.TrimSpace(s))
	for _, c := range All {
		if strings.ToLower(categoryNames[c]) == lower {
			return c, true
		}
	}
	if c, ok := categoryAliases[lower]; ok {
		return c, true
	}
	return 0, false
}

// IsSpecificationLabel reports whether a label names a hardware/specification class,
// which gets bullet-style short renderings.
func IsSpecificationLabel(label string) bool {
	lower := strings.ToLower(label)
	return strings.Contains(lower, "hardware") || strings.Contains(lower, "specification")
}

func splitNumberPrefix(s string) (int, string, bool) {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i == len(s) {
		return 0, s, false
	}
	switch s[i] {
	case '.', ')', ' ', '-', ':':
	default:
		return 0, s, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil {
		return 0, s, false
	}
	return n, strings.TrimLeft(s[i:], ".)-: "), true
}
