package comparison

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/features"
)

func TestFormatFull(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"adds period", "Defrost control", "Defrost control."},
		{"keeps question", "Remote access?", "Remote access?"},
		{"keeps colon", "Outputs:", "Outputs:"},
		{"strips tags", "Relay<br>16 A", "Relay 16 A."},
		{"collapses lines", "• 24 V\n• IP65", "• 24 V • IP65."},
		{"blank", "  <br> ", MissingRendering},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatFull(tt.in))
		})
	}
}

func TestFormatShort(t *testing.T) {
	short := "Modbus RTU over RS-485"
	assert.Equal(t, "Modbus RTU over RS-485.", FormatShort(short))

	sentences := strings.Repeat("Sentence with some words. ", 20)
	got := FormatShort(sentences)
	assert.True(t, strings.HasSuffix(got, "words."))
	assert.LessOrEqual(t, utf8.RuneCountInString(got), ShortLimit)

	run := strings.Repeat("ä", 400)
	got = FormatShort(run)
	assert.Equal(t, strings.Repeat("ä", ShortLimit)+"...", got)
}

func TestBulletSpecs(t *testing.T) {
	text := "- Power supply: 230 V\n• Relay: 16 A.\n\n" + strings.Repeat("x", 120) + "\n* IP65\nSixth line"
	got, ok := BulletSpecs(text)

	require.True(t, ok)
	assert.Equal(t, "• Power supply: 230 V.\n• Relay: 16 A.\n• IP65.", got)

	_, ok = BulletSpecs(strings.Repeat("y", 150))
	assert.False(t, ok)
}

func TestReconciler_RowCompleteness(t *testing.T) {
	ref := record("Unit B",
		"1. Hardware features and specifications", "• Power supply: 24 V\n• Relay: 16 A",
		"2. Functions", "same as Unit A except: adds WiFi",
		"8. Notes", "",
		"Warranty", strings.Repeat("Long warranty text. ", 30),
	)
	coll := collectionOf(t, record("Unit A", "2. Functions", "Defrost control"), ref)
	comp := record("Comp X",
		"Hardware features and specifications", "Supply 230 V",
		"6. Connectivity", "Modbus",
	)

	rows := NewReconciler(nil).Reconcile(ref, comp, coll)

	require.Len(t, rows, ref.Len())
	for i, row := range rows {
		assert.Equal(t, ref.Labels()[i], row.Category)
		assert.NotEmpty(t, row.ReferenceShort)
		assert.NotEmpty(t, row.ReferenceFull)
		assert.NotEmpty(t, row.CompetitorShort)
		assert.NotEmpty(t, row.CompetitorFull)
	}

	hw := rows[0]
	assert.Equal(t, "• Power supply: 24 V.\n• Relay: 16 A.", hw.ReferenceShort)
	assert.Equal(t, "• Power supply: 24 V • Relay: 16 A.", hw.ReferenceFull)
	assert.Equal(t, "• Supply 230 V.", hw.CompetitorShort, "matched by category name")

	fn := rows[1]
	assert.Contains(t, fn.ReferenceFull, "Defrost control")
	assert.Contains(t, fn.ReferenceFull, "adds WiFi")
	assert.Equal(t, StatusResolved, fn.ReferenceStatus)
	assert.Equal(t, MissingRendering, fn.CompetitorFull)

	notes := rows[2]
	assert.Equal(t, MissingRendering, notes.ReferenceShort)
	assert.Equal(t, StatusMissing, notes.ReferenceStatus)

	warranty := rows[3]
	assert.LessOrEqual(t, utf8.RuneCountInString(warranty.ReferenceShort), ShortLimit+3)
	assert.Greater(t, len(warranty.ReferenceFull), len(warranty.ReferenceShort))
}

func TestReconciler_Deterministic(t *testing.T) {
	ref := record("Unit B", "2. Functions", "same as Unit A", "5. User experience", "Display <b>LED</b>")
	coll := collectionOf(t, record("Unit A", "2. Functions", "Defrost"), ref)
	comp := record("Comp", "2. Functions", "Alarm handling")

	rc := NewReconciler(NewResolver(FuzzyMatcher{}))
	first := rc.Reconcile(ref, comp, coll)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, rc.Reconcile(ref, comp, coll))
	}
}

func TestReconciler_NilCompetitor(t *testing.T) {
	ref := record("Unit A", "2. Functions", "Defrost")
	rows := NewReconciler(nil).Reconcile(ref, nil, collectionOf(t, ref))
	require.Len(t, rows, 1)
	assert.Equal(t, MissingRendering, rows[0].CompetitorShort)
}

func TestNarrativeLines(t *testing.T) {
	rows := []Row{{Category: "2. Functions", ReferenceFull: "Defrost.", CompetitorFull: "Alarm."}}
	lines := NarrativeLines(rows, "Danfoss", "Acme")
	assert.Equal(t, []string{"2. Functions: Danfoss - Defrost. | Acme - Alarm."}, lines)
}

type stubCompleter struct {
	response string
	err      error
	prompt   string
	calls    int
}

func (s *stubCompleter) Complete(_ context.Context, prompt string) (string, error) {
	s.calls++
	s.prompt = prompt
	return s.response, s.err
}

func TestAnalyst_Analyze(t *testing.T) {
	sc := &stubCompleter{response: "Here is a comparison of the two devices.\nFiller line\n**CATEGORY SCORES**\n- Hardware: 8/10"}
	a := NewAnalyst(sc, nil)

	got, err := a.Analyze(context.Background(), AnalysisRequest{
		ReferenceVendor:  "Danfoss",
		ReferenceDevice:  "AK-CC55",
		CompetitorVendor: "Acme",
		CompetitorDevice: "X1",
		Lines:            []string{"2. Functions: Danfoss - Defrost. | Acme - Alarm."},
	})

	require.NoError(t, err)
	assert.Equal(t, "**CATEGORY SCORES**\n- Hardware: 8/10", got)
	assert.Contains(t, sc.prompt, "Danfoss AK-CC55 vs Acme X1")
	assert.Contains(t, sc.prompt, "2. Functions: Danfoss - Defrost. | Acme - Alarm.")
	assert.Contains(t, sc.prompt, "Danfoss: [Total]/60")
	for _, c := range ScoreCategories {
		assert.Contains(t, sc.prompt, c)
	}
}

func TestAnalyst_AnalyzeError(t *testing.T) {
	boom := errors.New("rate limited")
	a := NewAnalyst(&stubCompleter{err: boom}, nil)
	_, err := a.Analyze(context.Background(), AnalysisRequest{})
	assert.ErrorIs(t, err, boom)
}

func TestCleanAnalysis(t *testing.T) {
	assert.Equal(t, NoAnalysisText, CleanAnalysis("  "))

	got := CleanAnalysis("Acme wins on connectivity.", "Danfoss", "Acme")
	assert.Equal(t, "**SCORE**: Analysis in progress...\n\nAcme wins on connectivity.", got)

	got = CleanAnalysis("Based on the information provided, here we go\n\nirrelevant\nAcme leads\nmore", "Acme")
	assert.Equal(t, "**SCORE**: Analysis in progress...\n\nAcme leads\nmore", got)
}
