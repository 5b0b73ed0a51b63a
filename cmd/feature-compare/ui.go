package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/extract"
)

// UI provides user-friendly output utilities.
type UI struct {
	progress *mpb.Progress
	noColor  bool
	jsonMode bool
}

// NewUI creates a new UI instance. The progress container starts with the first bar.
func NewUI(jsonMode, noColor bool) *UI {
	return &UI{
		noColor:  noColor,
		jsonMode: jsonMode,
	}
}

// Close waits for bars to finish rendering.
func (ui *UI) Close() {
	if ui.progress == nil {
		return
	}
	// Piped output never renders bars and Wait may hang.
	if IsTerminal() {
		ui.progress.Wait()
	} else {
		ui.progress.Shutdown()
	}
	ui.progress = nil
}

func (ui *UI) print(attr color.Attribute, symbol, format string, args ...any) {
	if ui.jsonMode {
		return
	}
	msg := fmt.Sprintf("%s %s\n", symbol, fmt.Sprintf(format, args...))
	if ui.noColor {
		fmt.Fprint(os.Stderr, msg)
		return
	}
	color.New(attr).Fprint(os.Stderr, msg)
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...any) { ui.print(color.FgGreen, "✓", format, args...) }

// Error prints an error message.
func (ui *UI) Error(format string, args ...any) { ui.print(color.FgRed, "✗", format, args...) }

// Warning prints a warning message.
func (ui *UI) Warning(format string, args ...any) { ui.print(color.FgYellow, "⚠", format, args...) }

// Info prints an info message.
func (ui *UI) Info(format string, args ...any) { ui.print(color.FgCyan, "ℹ", format, args...) }

// ProgressBar creates a new progress bar.
func (ui *UI) ProgressBar(name string, total int64) *mpb.Bar {
	if ui.jsonMode {
		return nil
	}
	if ui.progress == nil {
		ui.progress = mpb.New(mpb.WithWidth(64), mpb.WithOutput(os.Stderr))
	}

	return ui.progress.AddBar(total,
		mpb.PrependDecorators(
			decor.Name(name, decor.WC{W: len(name) + 1, C: decor.DSyncSpaceR}),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Percentage(decor.WC{W: 5}),
			decor.Elapsed(decor.ET_STYLE_GO, decor.WC{W: 12}),
			decor.OnComplete(
				decor.AverageETA(decor.ET_STYLE_GO, decor.WC{W: 12}),
				" done",
			),
		),
	)
}

// TrackExtraction draws one bar per vendor from batch events until the channel closes.
func (ui *UI) TrackExtraction(events <-chan extract.Event) {
	bars := make(map[string]*mpb.Bar)
	for e := range events {
		switch e.Type {
		case extract.EventStart:
			bars[e.Vendor] = ui.ProgressBar(e.Vendor, int64(e.Total))
		case extract.EventDeviceComplete:
			if bar := bars[e.Vendor]; bar != nil {
				bar.Increment()
			}
		case extract.EventError:
			if !IsTerminal() {
				ui.Error("%s %s: %s", e.Vendor, e.Device, e.Payload)
			}
		case extract.EventComplete:
			if bar := bars[e.Vendor]; bar != nil {
				bar.SetTotal(-1, true)
			}
		}
	}
	for _, bar := range bars {
		if bar != nil && !bar.Completed() {
			bar.Abort(false)
		}
	}
}

// Table prints a formatted table.
func (ui *UI) Table(headers []string, rows [][]string) {
	if ui.jsonMode || len(headers) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	border := color.New(color.FgCyan, color.Bold)
	if ui.noColor {
		border.DisableColor()
	}
	rule := func(left, mid, right string) {
		border.Print(left)
		for i, width := range widths {
			fmt.Print(strings.Repeat("─", width+2))
			if i < len(widths)-1 {
				border.Print(mid)
			}
		}
		border.Print(right + "\n")
	}
	line := func(cells []string) {
		border.Print("│")
		for i := range widths {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			fmt.Printf(" %-*s ", widths[i], cell)
			border.Print("│")
		}
		fmt.Println()
	}

	rule("┌", "┬", "┐")
	line(headers)
	rule("├", "┼", "┤")
	for _, row := range rows {
		line(row)
	}
	rule("└", "┴", "┘")
}

// Section prints a section header.
func (ui *UI) Section(title string) {
	if ui.jsonMode {
		return
	}
	fmt.Println()
	if ui.noColor {
		fmt.Printf("━━━ %s ━━━\n", strings.ToUpper(title))
	} else {
		color.New(color.FgMagenta, color.Bold).Printf("━━━ %s ━━━\n", strings.ToUpper(title))
	}
	fmt.Println()
}

// FormatDuration formats a duration in a human-readable way.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}

// IsTerminal checks if stdout is a terminal.
func IsTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
