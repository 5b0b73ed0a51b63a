package features

import (
	"strings"
)

// MissingText is the stored placeholder for a (device, category) pair with no information.
const MissingText = "Information not available"

const (
	referencePrefix = "same as"
	exceptMarker    = "except:"
)

// notAvailable holds the lower-cased literals treated as "no information".
var notAvailable = map[string]bool{
	"":                                 true,
	"not available":                    true,
	"n/a":                              true,
	strings.ToLower(MissingText):       true,
	strings.ToLower(MissingText) + ".": true,
}

// Kind discriminates the three value shapes.
type Kind int

const (
	KindMissing Kind = iota
	KindDirect
	KindReference
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindDirect:
		return "direct"
	case KindReference:
		return "reference"
	}
	return "unknown"
}

// Value is the parsed content of one (device, category) pair.
type Value struct {
	Kind Kind
	// Raw is the trimmed stored text.
	Raw string
	// Target is the referenced device name, for references.
	Target string
	// Exceptions is the text after "except:", for references that carry one.
	Exceptions    string
	HasExceptions bool
}

// IsMissingText reports whether s is empty or one of the "not available" literals.
func IsMissingText(s string) bool {
	return notAvailable[strings.ToLower(strings.TrimSpace(s))]
}

// ParseValue classifies stored text as missing, direct or a "same as" reference.
func ParseValue(raw string) Value {
	text := strings.TrimSpace(raw)
	if IsMissingText(text) {
		return Value{Kind: KindMissing, Raw: text}
	}
	if len(text) < len(referencePrefix) || !strings.EqualFold(text[:len(referencePrefix)], referencePrefix) {
		return Value{Kind: KindDirect, Raw: text}
	}

	rest := text[len(referencePrefix):]
	v := Value{Kind: KindReference, Raw: text}
	if i := IndexFold(rest, exceptMarker); i >= 0 {
		v.Target = cleanTarget(rest[:i])
		v.Exceptions = strings.TrimSpace(rest[i+len(exceptMarker):])
		v.HasExceptions = true
	} else {
		v.Target = cleanTarget(rest)
	}
	return v
}

// IndexFold is strings.Index with ASCII case folding of substr.
func IndexFold(s, substr string) int {
	n := len(substr)
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}

func cleanTarget(s string) string {
	return strings.TrimRight(strings.TrimSpace(s), " .,;:")
}
