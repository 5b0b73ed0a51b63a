// Package ingest turns extracted datasheet text into canonical eight-category device records.
package ingest

import (
	"regexp"
	"strings"
)

var (
	whitespaceRun = regexp.MustCompile(`\s+`)
	leaderDots    = regexp.MustCompile(`\.{3,}`)
	ruleDashes    = regexp.MustCompile(`-{3,}`)
	hyphenBreak   = regexp.MustCompile(`(\pL)- (\pL)`)
)

// Normalize cleans raw PDF text into single-spaced prose: whitespace runs collapse to
// one space, dot leaders and dash rules disappear, and line-wrap hyphenation is undone.
//
// The passes repeat until nothing changes, so Normalize(Normalize(x)) == Normalize(x)
// even when a removal exposes a new whitespace run or hyphen break.
func Normalize(raw string) string {
	text := raw
	for {
		next := normalizePass(text)
		if next == text {
			return next
		}
		text = next
	}
}

func normalizePass(text string) string {
	text = whitespaceRun.ReplaceAllString(text, " ")
	text = leaderDots.ReplaceAllString(text, "")
	text = ruleDashes.ReplaceAllString(text, "")
	text = whitespaceRun.ReplaceAllString(text, " ")
	// whitespace is a single space here, so the break pattern only needs one
	text = hyphenBreak.ReplaceAllString(text, "$1$2")
	return strings.TrimSpace(text)
}
