package comparison

import (
	"fmt"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/features"
)

// Row is one category of a side-by-side comparison. All four text fields are non-empty.
type Row struct {
	Category        string `json:"category"`
	ReferenceShort  string `json:"reference_short"`
	ReferenceFull   string `json:"reference_full"`
	CompetitorShort string `json:"competitor_short"`
	CompetitorFull  string `json:"competitor_full"`
	// ReferenceStatus is how the reference value was resolved.
	ReferenceStatus Status `json:"reference_status"`
	// ReferenceTarget is the device a "same as" value pointed at.
	ReferenceTarget string `json:"reference_target,omitempty"`
}

// Reconciler aligns a reference record and a competitor record on the reference
// record's categories.
type Reconciler struct {
	resolver *Resolver
}

// NewReconciler creates a reconciler. A nil resolver uses the default matcher.
func NewReconciler(resolver *Resolver) *Reconciler {
	if resolver == nil {
		resolver = NewResolver(nil)
	}
	return &Reconciler{resolver: resolver}
}

// Reconcile produces one row per category of reference, in its stored order. Reference
// values are resolved against referenceColl; competitor values are formatted as they are.
// The output depends only on the inputs.
func (rc *Reconciler) Reconcile(reference, competitor *features.Record, referenceColl *features.Collection) []Row {
	labels := reference.Labels()
	rows := make([]Row, 0, len(labels))

	for _, label := range labels {
		raw, _ := reference.Get(label)
		res := rc.resolver.Resolve(raw, label, referenceColl, reference.Device)
		refShort, refFull := render(label, res.Text, res.Status == StatusMissing)

		compRaw := features.MissingText
		if competitor != nil {
			if v, ok := competitor.Lookup(label); ok {
				compRaw = v
			}
		}
		compShort, compFull := render(label, compRaw, features.IsMissingText(compRaw))

		rows = append(rows, Row{
			Category:        label,
			ReferenceShort:  refShort,
			ReferenceFull:   refFull,
			CompetitorShort: compShort,
			CompetitorFull:  compFull,
			ReferenceStatus: res.Status,
			ReferenceTarget: res.Target,
		})
	}
	return rows
}

func render(label, text string, missing bool) (short, full string) {
	if missing {
		return MissingRendering, MissingRendering
	}
	full = FormatFull(text)
	if features.IsSpecificationLabel(label) {
		if bullets, ok := BulletSpecs(text); ok {
			return bullets, full
		}
	}
	return FormatShort(text), full
}

// NarrativeLines flattens rows into "<category>: <vendorA> - <full> | <vendorB> - <full>"
// lines, the input for narrative analysis.
func NarrativeLines(rows []Row, referenceVendor, competitorVendor string) []string {
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = fmt.Sprintf("%s: %s - %s | %s - %s",
			row.Category, referenceVendor, row.ReferenceFull, competitorVendor, row.CompetitorFull)
	}
	return lines
}
