package comparison

import (
	"fmt"
	"strings"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/features"
)

const (
	additionalNotesPrefix = "Additional notes: "
	baseNotFoundPrefix    = "Base reference not found. Additional info: "
	referenceNotFoundText = "Reference data not found"
)

// Status reports how a value was resolved.
type Status int

const (
	StatusLiteral Status = iota
	StatusMissing
	StatusResolved
	StatusBaseNotFound
	StatusNotFound
)

func (s Status) String() string {
	switch s {
	case StatusLiteral:
		return "literal"
	case StatusMissing:
		return "missing"
	case StatusResolved:
		return "resolved"
	case StatusBaseNotFound:
		return "base_not_found"
	case StatusNotFound:
		return "not_found"
	}
	return "unknown"
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Status) UnmarshalText(text []byte) error {
	for st := StatusLiteral; st <= StatusNotFound; st++ {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown resolution status %q", text)
}

// Unresolved reports whether the value was a reference whose target had no usable base.
func (s Status) Unresolved() bool {
	return s == StatusBaseNotFound || s == StatusNotFound
}

// Resolution is a value with one level of "same as" indirection removed.
type Resolution struct {
	Text   string
	Status Status
	// Target is the referenced device name as written, for references.
	Target string
	// Base is the device whose text was used, when found.
	Base string
}

// Resolver replaces "same as <device> [except: ...]" values with the sibling device's
// text for the same category. It only reads the collection.
type Resolver struct {
	matcher NameMatcher
}

// NewResolver creates a resolver. A nil matcher uses SubstringMatcher.
func NewResolver(matcher NameMatcher) *Resolver {
	if matcher == nil {
		matcher = SubstringMatcher{}
	}
	return &Resolver{matcher: matcher}
}

// Resolve resolves value stored under label for device self. Candidates are scanned in
// collection order; self, candidates without a usable value for the category and
// candidates whose value equals the reference text itself are skipped. Resolution is a
// single hop: a base that is itself a reference is returned as written.
func (r *Resolver) Resolve(value, label string, coll *features.Collection, self string) Resolution {
	v := features.ParseValue(value)
	switch v.Kind {
	case features.KindMissing:
		return Resolution{Text: features.MissingText, Status: StatusMissing}
	case features.KindDirect:
		return Resolution{Text: value, Status: StatusLiteral}
	}

	base, device, found := r.findBase(v, label, coll, self)
	res := Resolution{Target: v.Target}
	switch {
	case found && v.HasExceptions:
		res.Text = base + "\n\n" + additionalNotesPrefix + v.Exceptions
		res.Status = StatusResolved
		res.Base = device
	case found:
		res.Text = base
		res.Status = StatusResolved
		res.Base = device
	case v.HasExceptions:
		res.Text = baseNotFoundPrefix + v.Exceptions
		res.Status = StatusBaseNotFound
	default:
		res.Text = referenceNotFoundText
		res.Status = StatusNotFound
	}
	return res
}

func (r *Resolver) findBase(v features.Value, label string, coll *features.Collection, self string) (string, string, bool) {
	if coll == nil || v.Target == "" {
		return "", "", false
	}
	for _, rec := range coll.Records() {
		if rec.Device == self || !r.matcher.Match(v.Target, rec.Device) {
			continue
		}
		base, ok := rec.Lookup(label)
		if !ok {
			continue
		}
		base = strings.TrimSpace(base)
		if base == "" || base == v.Raw {
			continue
		}
		// A named base without data for this category still answers the reference.
		if features.IsMissingText(base) {
			base = features.MissingText
		}
		return base, rec.Device, true
	}
	return "", "", false
}
