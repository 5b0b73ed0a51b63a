package ingest

import (
	"fmt"
	"strings"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/features"
)

// ParseError is a warning raised while reading sectioned text.
type ParseError struct {
	Line    int
	Message string
}

// ParsedSections is the result of reading "## Device" / "### Category" text.
type ParsedSections struct {
	Collection *features.Collection
	Errors     []ParseError
}

// ParseSections reads headed text into a collection for vendor:
//
//	## AK-CC55 Single Coil
//	### 1. Hardware features and specifications
//	• Power supply: 230 V AC
//
// A second heading for the same device starts that device over. Text outside any
// category heading is reported as a warning and skipped.
func ParseSections(vendor, content string) *ParsedSections {
	result := &ParsedSections{Collection: features.NewCollection(vendor)}

	var (
		device  *features.Record
		label   string
		section strings.Builder
	)
	flush := func() {
		if device != nil && label != "" {
			device.Set(label, strings.TrimSpace(section.String()))
		}
		section.Reset()
	}

	lines := strings.Split(strings.ReplaceAll(content, "\r\n", "\n"), "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(trimmed, "### "):
			flush()
			label = strings.TrimSpace(strings.TrimPrefix(trimmed, "### "))
			if device == nil {
				result.Errors = append(result.Errors, ParseError{
					Line:    i + 1,
					Message: fmt.Sprintf("category %q appears before any device heading", label),
				})
			}
		case strings.HasPrefix(trimmed, "## "):
			flush()
			label = ""
			device = features.NewRecord(strings.TrimSpace(strings.TrimPrefix(trimmed, "## ")))
			result.Collection.Put(device)
		default:
			if label == "" || device == nil {
				if trimmed != "" && !strings.HasPrefix(trimmed, "# ") {
					result.Errors = append(result.Errors, ParseError{Line: i + 1, Message: "text outside a category section"})
				}
				continue
			}
			section.WriteString(line)
			section.WriteByte('\n')
		}
	}
	flush()

	return result
}
