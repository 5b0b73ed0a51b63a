package comparison

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/features"
)

func collectionOf(t *testing.T, devices ...*features.Record) *features.Collection {
	t.Helper()
	c := features.NewCollection("Danfoss")
	for _, d := range devices {
		require.NoError(t, c.Add(d))
	}
	return c
}

func record(device string, pairs ...string) *features.Record {
	r := features.NewRecord(device)
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Set(pairs[i], pairs[i+1])
	}
	return r
}

func TestResolver_SingleHop(t *testing.T) {
	coll := collectionOf(t, record("A", "cat", "30V"), record("B", "cat", "same as A"))

	res := NewResolver(nil).Resolve("same as A", "cat", coll, "B")

	assert.Equal(t, "30V", res.Text)
	assert.Equal(t, StatusResolved, res.Status)
	assert.Equal(t, "A", res.Base)
}

func TestResolver_ExceptClause(t *testing.T) {
	coll := collectionOf(t, record("A", "cat", "30V"), record("B", "cat", "same as A except: add fuse"))

	res := NewResolver(nil).Resolve("same as A except: add fuse", "cat", coll, "B")

	assert.Equal(t, "30V\n\nAdditional notes: add fuse", res.Text)
	assert.Equal(t, StatusResolved, res.Status)
}

func TestResolver_NotFound(t *testing.T) {
	coll := collectionOf(t, record("B", "cat", "same as ZZZ"))
	r := NewResolver(nil)

	res := r.Resolve("same as ZZZ", "cat", coll, "B")
	assert.Equal(t, "Reference data not found", res.Text)
	assert.Equal(t, StatusNotFound, res.Status)
	assert.True(t, res.Status.Unresolved())

	res = r.Resolve("same as ZZZ except: 2 relays", "cat", coll, "B")
	assert.Equal(t, "Base reference not found. Additional info: 2 relays", res.Text)
	assert.Equal(t, StatusBaseNotFound, res.Status)
}

func TestResolver_EndToEndDefrost(t *testing.T) {
	coll := collectionOf(t,
		record("Unit A", "2. Functions", "Defrost control"),
		record("Unit B", "2. Functions", "same as Unit A except: adds WiFi"),
	)

	res := NewResolver(nil).Resolve("same as Unit A except: adds WiFi", "2. Functions", coll, "Unit B")

	assert.Contains(t, res.Text, "Defrost control")
	assert.Contains(t, res.Text, "adds WiFi")
}

func TestResolver_SkipsUnusableCandidates(t *testing.T) {
	coll := collectionOf(t,
		record("Unit A", "cat", "same as Unit"),
		record("Unit A2", "cat", "   "),
		record("Unit A3", "other", "x"),
		record("Unit A4", "cat", "24 V"),
	)

	res := NewResolver(nil).Resolve("same as Unit", "cat", coll, "Unit A")

	// self, blank, absent category are skipped; the first usable match wins
	assert.Equal(t, "24 V", res.Text)
	assert.Equal(t, "Unit A4", res.Base)
}

func TestResolver_MissingBaseStopsScan(t *testing.T) {
	coll := collectionOf(t,
		record("Unit A", "cat", "Information not available"),
		record("Unit A2", "cat", "Alarm relay"),
		record("Unit B", "cat", "same as Unit A"),
	)

	res := NewResolver(nil).Resolve("same as Unit A", "cat", coll, "Unit B")

	assert.Equal(t, features.MissingText, res.Text)
	assert.Equal(t, "Unit A", res.Base)
	assert.Equal(t, StatusResolved, res.Status)

	res = NewResolver(nil).Resolve("same as Unit A except: adds WiFi", "cat", coll, "Unit B")
	assert.Equal(t, "Unit A", res.Base)
	assert.True(t, strings.HasPrefix(res.Text, features.MissingText), res.Text)
	assert.Contains(t, res.Text, "adds WiFi")
}

func TestResolver_BaseEqualToReferenceIsSkipped(t *testing.T) {
	coll := collectionOf(t,
		record("Unit A", "cat", "same as Unit B"),
		record("Unit B", "cat", "same as Unit B"),
	)

	res := NewResolver(ExactMatcher{}).Resolve("same as Unit B", "cat", coll, "Unit A")
	assert.Equal(t, StatusNotFound, res.Status)
}

func TestResolver_DoesNotChain(t *testing.T) {
	coll := collectionOf(t,
		record("A", "cat", "30V"),
		record("B", "cat", "same as A"),
		record("C", "cat", "same as B"),
	)

	res := NewResolver(ExactMatcher{}).Resolve("same as B", "cat", coll, "C")
	assert.Equal(t, "same as A", res.Text)
	assert.Equal(t, StatusResolved, res.Status)
}

func TestResolver_MissingAndLiteral(t *testing.T) {
	r := NewResolver(nil)
	for _, v := range []string{"", "  ", "N/A", "Not Available", "Information not available"} {
		res := r.Resolve(v, "cat", nil, "X")
		assert.Equal(t, StatusMissing, res.Status, "value %q", v)
		assert.Equal(t, features.MissingText, res.Text)
	}

	res := r.Resolve("Relay: 16 A", "cat", nil, "X")
	assert.Equal(t, StatusLiteral, res.Status)
	assert.Equal(t, "Relay: 16 A", res.Text)
}

func TestResolver_DoesNotMutateCollection(t *testing.T) {
	coll := collectionOf(t, record("A", "cat", "30V"), record("B", "cat", "same as A"))
	before, _ := coll.MarshalJSON()

	NewResolver(nil).Resolve("same as A", "cat", coll, "B")

	after, _ := coll.MarshalJSON()
	assert.Equal(t, string(before), string(after))
}

func TestMatchers(t *testing.T) {
	tests := []struct {
		name      string
		matcher   NameMatcher
		target    string
		candidate string
		want      bool
	}{
		{"exact equal fold", ExactMatcher{}, "ak-cc55 compact", "AK-CC55 Compact", true},
		{"exact partial", ExactMatcher{}, "AK-CC55", "AK-CC55 Compact", false},
		{"substring target in candidate", SubstringMatcher{}, "AK-CC55", "AK-CC55 Compact", true},
		{"substring candidate in target", SubstringMatcher{}, "AK-CC55 Compact Plus", "AK-CC55 Compact", true},
		{"substring false positive is kept", SubstringMatcher{}, "Unit A", "Unit A2", true},
		{"substring empty target", SubstringMatcher{}, "", "Unit A", false},
		{"fuzzy punctuation", FuzzyMatcher{}, "AK CC55", "AK-CC55 Single Coil", true},
		{"fuzzy accents", FuzzyMatcher{}, "Régulateur", "REGULATEUR X", true},
		{"fuzzy miss", FuzzyMatcher{}, "EKC 202", "AK-CC55", false},
		{"fuzzy punctuation only", FuzzyMatcher{}, "--", "AK", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.matcher.Match(tt.target, tt.candidate))
		})
	}
}

func TestMatcherByName(t *testing.T) {
	m, err := MatcherByName("")
	require.NoError(t, err)
	assert.IsType(t, SubstringMatcher{}, m)

	m, err = MatcherByName("Fuzzy")
	require.NoError(t, err)
	assert.IsType(t, FuzzyMatcher{}, m)

	_, err = MatcherByName("soundex")
	assert.Error(t, err)
}

func TestStatus_TextRoundTrip(t *testing.T) {
	for st := StatusLiteral; st <= StatusNotFound; st++ {
		text, err := st.MarshalText()
		require.NoError(t, err)
		var back Status
		require.NoError(t, back.UnmarshalText(text))
		assert.Equal(t, st, back)
	}
	var s Status
	assert.Error(t, s.UnmarshalText([]byte(strings.ToUpper("resolved"))))
}
