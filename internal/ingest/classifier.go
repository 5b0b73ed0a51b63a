package ingest

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/features"
)

const (
	minSnippetLen     = 10
	maxSnippetLen     = 200
	maxSnippetsPerCat = 5
)

// CategoryRules is the ordered pattern list for one category.
type CategoryRules struct {
	Category features.Category
	Patterns []*regexp.Regexp
}

// Classifier assigns text spans to categories by keyword co-occurrence patterns.
// A span may land in several categories; there is no mutual exclusion.
type Classifier struct {
	rules []CategoryRules
}

// NewClassifier creates a classifier with the default refrigeration-controller rules.
func NewClassifier() *Classifier {
	return &Classifier{rules: defaultRules()}
}

// NewClassifierWithRules creates a classifier over custom rules, scanned in slice order.
func NewClassifierWithRules(rules []CategoryRules) *Classifier {
	return &Classifier{rules: rules}
}

// Classify scans text category by category, pattern by pattern, and keeps the first
// five spans per category whose trimmed length is strictly between 10 and 200 runes.
// Every category is present in the result; unmatched ones map to an empty slice.
func (c *Classifier) Classify(text string) map[features.Category][]string {
	out := make(map[features.Category][]string, len(features.All))
	for _, cat := range features.All {
		out[cat] = []string{}
	}

	for _, rule := range c.rules {
		snippets := out[rule.Category]
		for _, pattern := range rule.Patterns {
			if len(snippets) >= maxSnippetsPerCat {
				break
			}
			for _, match := range pattern.FindAllString(text, -1) {
				span := strings.TrimSpace(match)
				n := utf8.RuneCountInString(span)
				if n <= minSnippetLen || n >= maxSnippetLen {
					continue
				}
				snippets = append(snippets, span)
				if len(snippets) >= maxSnippetsPerCat {
					break
				}
			}
		}
		out[rule.Category] = snippets
	}
	return out
}

func mustRules(cat features.Category, patterns ...string) CategoryRules {
	compiled := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		compiled[i] = regexp.MustCompile(`(?is)` + p)
	}
	return CategoryRules{Category: cat, Patterns: compiled}
}

func defaultRules() []CategoryRules {
	return []CategoryRules{
		mustRules(features.Hardware,
			`power supply.*?(?:\n|voltage|current)`,
			`voltage.*?(?:\n|power|supply)`,
			`temperature.*?range.*?(?:\n|°C|°F)`,
			`dimensions.*?(?:\n|mm|cm|inches)`,
			`protection.*?(?:\n|IP\d+)`,
			`relay.*?(?:\n|SPDT|SPST)`,
			`input.*?(?:\n|analog|digital)`,
		),
		mustRules(features.Functions,
			`control.*?(?:\n|temperature|defrost)`,
			`defrost.*?(?:\n|cycle|timer)`,
			`alarm.*?(?:\n|management|handling)`,
			`monitoring.*?(?:\n|remote|local)`,
			`valve.*?(?:\n|control|operation)`,
		),
		mustRules(features.CoreFeatures,
			`controller.*?(?:\n|temperature|refrigeration)`,
			`regulation.*?(?:\n|temperature|pressure)`,
			`wizard.*?(?:\n|setup|configuration)`,
		),
		mustRules(features.AdditionalFeatures,
			`modbus.*?(?:\n|communication|integration)`,
			`remote.*?(?:\n|monitoring|access)`,
			`datalogger.*?(?:\n|option|feature)`,
			`cloud.*?(?:\n|connectivity|service)`,
		),
		mustRules(features.UserExperience,
			`display.*?(?:\n|menu|interface)`,
			`button.*?(?:\n|navigation|control)`,
			`menu.*?(?:\n|intuitive|clear)`,
			`keypad.*?(?:\n|navigation|settings)`,
		),
		mustRules(features.Connectivity,
			`modbus.*?(?:\n|RS-485|communication)`,
			`communication.*?(?:\n|protocol|interface)`,
			`ethernet.*?(?:\n|TCP|IP)`,
			`wireless.*?(?:\n|WiFi|connectivity)`,
		),
		mustRules(features.StandardsCompliance,
			`IP\d+.*?(?:\n|protection|rating)`,
			`EN\d+.*?(?:\n|standard|compliance)`,
			`standard.*?(?:\n|compliance|certification)`,
			`certification.*?(?:\n|approval|rating)`,
		),
		mustRules(features.Notes,
			`warning.*?(?:\n|caution|important)`,
			`caution.*?(?:\n|warning|note)`,
			`important.*?(?:\n|note|warning)`,
			`note.*?(?:\n|important|warning)`,
		),
	}
}
