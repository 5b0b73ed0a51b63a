package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/comparison"
)

const sectioned = `# Danfoss reference data

## AK-CC55 Compact
### 1. Hardware features and specifications
230 V AC supply
### 2. Functions
Defrost control

## AK-CC55 Single Coil
### 2. Functions
same as AK-CC55 Compact except: adds WiFi
`

const competitor = `## XR60CX
### 2. Functions
Fan control
`

func writeConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	cfgYAML := fmt.Sprintf(`storage:
  driver: file
  root: %s
llm:
  provider: none
comparison:
  reference_vendor: Danfoss
  matcher: substring
`, filepath.Join(dir, "data"))
	require.NoError(t, os.WriteFile(path, []byte(cfgYAML), 0o644))
	return path
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	require.NoError(t, rootCmd.Execute(), out.String())
	return out.String()
}

func TestCLI_ImportDevicesCompare(t *testing.T) {
	cfgPath := writeConfig(t)
	dir := t.TempDir()
	refFile := filepath.Join(dir, "danfoss.md")
	compFile := filepath.Join(dir, "dixell.md")
	require.NoError(t, os.WriteFile(refFile, []byte(sectioned), 0o644))
	require.NoError(t, os.WriteFile(compFile, []byte(competitor), 0o644))

	run(t, "--config", cfgPath, "--json", "import", refFile, "--vendor", "Danfoss")
	run(t, "--config", cfgPath, "--json", "import", compFile, "--vendor", "Dixell")

	var devices []string
	require.NoError(t, json.Unmarshal([]byte(run(t, "--config", cfgPath, "--json", "devices", "Danfoss")), &devices))
	assert.Equal(t, []string{"AK-CC55 Compact", "AK-CC55 Single Coil"}, devices)

	var vendors []string
	require.NoError(t, json.Unmarshal([]byte(run(t, "--config", cfgPath, "--json", "vendors")), &vendors))
	assert.Equal(t, []string{"Danfoss", "Dixell"}, vendors)

	var report comparison.Report
	out := run(t, "--config", cfgPath, "--json", "compare", "-d", "AK-CC55 Single Coil", "--competitor", "Dixell")
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "XR60CX", report.CompetitorDevice)
	require.Len(t, report.Rows, 1)
	assert.Contains(t, report.Rows[0].ReferenceFull, "Defrost control")
	assert.Contains(t, report.Rows[0].ReferenceFull, "adds WiFi")

	mdPath := filepath.Join(dir, "report.md")
	run(t, "--config", cfgPath, "--json=false", "compare", "-d", "AK-CC55 Compact", "--competitor", "Dixell", "-o", mdPath)
	md, err := os.ReadFile(mdPath)
	require.NoError(t, err)
	assert.Contains(t, string(md), "### Feature Comparison: Danfoss AK-CC55 Compact vs Dixell XR60CX")
}

func TestRendererFor(t *testing.T) {
	for _, f := range []string{"terminal", "text", "markdown", "html"} {
		_, err := rendererFor(f)
		assert.NoError(t, err, f)
	}
	_, err := rendererFor("docx")
	assert.Error(t, err)
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "250ms", FormatDuration(250*time.Millisecond))
	assert.Equal(t, "1.5s", FormatDuration(1500*time.Millisecond))
	assert.Equal(t, "2.0m", FormatDuration(2*time.Minute))
	assert.Equal(t, "1.0h", FormatDuration(time.Hour))
}
