package comparison

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// ShortLimit is the rune budget of a short rendering before the ellipsis.
	ShortLimit = 250

	maxSpecLines   = 5
	maxSpecLineLen = 100
)

var (
	markupTag     = regexp.MustCompile(`<[^>]+>`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

// MissingRendering is how an absent value appears in a row.
const MissingRendering = "Information not available."

// FormatFull strips markup tags, collapses whitespace and ends the text with
// terminal punctuation. Blank input renders as MissingRendering.
func FormatFull(text string) string {
	text = markupTag.ReplaceAllString(text, " ")
	text = strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))
	if text == "" {
		return MissingRendering
	}
	switch text[len(text)-1] {
	case '.', '!', '?', ':':
		return text
	}
	return text + "."
}

// FormatShort is FormatFull bounded to ShortLimit runes. Longer text is cut after the
// last sentence break (". ") inside the limit, or at the limit with "..." appended.
func FormatShort(text string) string {
	full := FormatFull(text)
	if utf8.RuneCountInString(full) <= ShortLimit {
		return full
	}
	head := firstRunes(full, ShortLimit)
	if i := strings.LastIndex(head, ". "); i > 0 {
		return head[:i+1]
	}
	return head + "..."
}

// BulletSpecs renders the first lines of a specification value as "• line." bullets.
// Lines are trimmed of bullet and dash markers; empty lines and lines of 100 runes or
// more are dropped. It reports false when no line qualifies.
func BulletSpecs(text string) (string, bool) {
	lines := strings.Split(text, "\n")
	if len(lines) > maxSpecLines {
		lines = lines[:maxSpecLines]
	}

	var out []string
	for _, line := range lines {
		line = strings.TrimSpace(strings.Trim(line, "-•* \t"))
		if line == "" || utf8.RuneCountInString(line) >= maxSpecLineLen {
			continue
		}
		if !strings.HasSuffix(line, ".") {
			line += "."
		}
		out = append(out, "• "+line)
	}
	if len(out) == 0 {
		return "", false
	}
	return strings.Join(out, "\n"), true
}

func firstRunes(s string, n int) string {
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
