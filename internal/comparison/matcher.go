// Package comparison resolves cross-device references and reconciles two vendors'
// records into an aligned, category-by-category comparison.
package comparison

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NameMatcher decides whether a reference target names a candidate device.
type NameMatcher interface {
	Match(target, candidate string) bool
}

// ExactMatcher matches names that are equal ignoring case and surrounding space.
type ExactMatcher struct{}

func (ExactMatcher) Match(target, candidate string) bool {
	t := strings.TrimSpace(target)
	return t != "" && strings.EqualFold(t, strings.TrimSpace(candidate))
}

// SubstringMatcher matches when either name contains the other, ignoring case.
// It is the default and may match several devices; the first in collection order wins.
type SubstringMatcher struct{}

func (SubstringMatcher) Match(target, candidate string) bool {
	return containsEither(strings.ToLower(strings.TrimSpace(target)), strings.ToLower(strings.TrimSpace(candidate)))
}

// FuzzyMatcher folds accents, case, punctuation and spacing before a bidirectional
// substring test, so "AK CC55" finds "AK-CC55 Single Coil".
type FuzzyMatcher struct{}

func (FuzzyMatcher) Match(target, candidate string) bool {
	return containsEither(foldName(target), foldName(candidate))
}

func containsEither(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}

func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range folded {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// MatcherByName returns the matcher for a configuration value.
func MatcherByName(name string) (NameMatcher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "substring":
		return SubstringMatcher{}, nil
	case "exact":
		return ExactMatcher{}, nil
	case "fuzzy":
		return FuzzyMatcher{}, nil
	}
	return nil, fmt.Errorf("unknown name matcher %q", name)
}
