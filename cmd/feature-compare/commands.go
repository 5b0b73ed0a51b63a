package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/feature-compare/internal/app"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/comparison"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/extract"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/ingest"
	"github.com/spherical-ai/spherical/libs/feature-compare/internal/report"
)

// newExtractCmd creates the extract subcommand.
func newExtractCmd() *cobra.Command {
	var (
		input  string
		vendor string
	)

	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Extract feature records from PDF datasheets",
		Long: `Extract reads every PDF under <input>/<vendor>/, normalizes the text,
extracts the eight feature categories and saves one collection per vendor.

Without --vendor every sub-directory of the input root is processed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			root := input
			if root == "" {
				root = cfg.Extraction.InputRoot
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			ui := NewUI(outputJSON, noColor)
			ui.Info("Reading datasheets from %s", root)
			if a.Completer == nil {
				ui.Warning("No completion provider configured, using keyword classification")
			}

			events := make(chan extract.Event, 256)
			done := make(chan struct{})
			go func() {
				defer close(done)
				if vendor != "" {
					trackSingle(events)
				} else {
					ui.TrackExtraction(events)
				}
			}()

			var results []*extract.Result
			if vendor != "" {
				var res *extract.Result
				res, err = a.Extraction.Process(ctx, vendor, filepath.Join(root, vendor), events)
				if res != nil {
					results = append(results, res)
				}
			} else {
				results, err = a.Extraction.ProcessAll(ctx, root, events)
			}
			close(events)
			<-done
			ui.Close()
			if len(results) > 0 {
				invalidateReports(cmd, a)
			}
			if err != nil {
				return err
			}

			if outputJSON {
				runs := make([]any, 0, len(results))
				for _, r := range results {
					runs = append(runs, r.Run)
				}
				return writeJSON(cmd.OutOrStdout(), runs)
			}

			ui.Section("Extraction summary")
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{
					r.Vendor,
					fmt.Sprint(r.Run.Devices),
					fmt.Sprint(r.Run.Fallbacks),
					fmt.Sprint(r.Run.Failures),
					FormatDuration(r.Run.FinishedAt.Sub(r.Run.StartedAt)),
				})
				for _, d := range r.Failed {
					ui.Warning("%s / %s: document text could not be read", r.Vendor, d)
				}
			}
			ui.Table([]string{"Vendor", "Devices", "Fallback", "Failed", "Duration"}, rows)
			ui.Success("Extracted %d vendor(s)", len(results))
			return nil
		},
	}

	cmd.Flags().StringVarP(&input, "input", "i", "", "input root with one directory per vendor (default from config)")
	cmd.Flags().StringVar(&vendor, "vendor", "", "process only this vendor directory")
	return cmd
}

// newImportCmd creates the import subcommand.
func newImportCmd() *cobra.Command {
	var vendorFlag string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Import sectioned feature text as a vendor collection",
		Long: `Import parses a text file of "## Device" sections, each holding
"### Category" sub-sections, and saves the result as the vendor's collection.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			vendor := vendorFlag
			if vendor == "" {
				vendor = cfg.Comparison.ReferenceVendor
			}

			content, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read import file: %w", err)
			}

			parsed := ingest.ParseSections(vendor, string(content))
			ui := NewUI(outputJSON, noColor)
			for _, pe := range parsed.Errors {
				ui.Warning("line %d: %s", pe.Line, pe.Message)
			}
			if parsed.Collection.Len() == 0 {
				return fmt.Errorf("no device sections found in %s", args[0])
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Store.Save(ctx, parsed.Collection); err != nil {
				return fmt.Errorf("save collection: %w", err)
			}
			invalidateReports(cmd, a)

			logger.Info().
				Str("vendor", vendor).
				Int("devices", parsed.Collection.Len()).
				Int("warnings", len(parsed.Errors)).
				Msg("Imported collection")

			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), map[string]any{
					"vendor":   vendor,
					"devices":  parsed.Collection.Devices(),
					"warnings": len(parsed.Errors),
				})
			}
			ui.Success("Imported %d device(s) for %s", parsed.Collection.Len(), vendor)
			return nil
		},
	}

	cmd.Flags().StringVar(&vendorFlag, "vendor", "", "vendor name (default: reference vendor)")
	return cmd
}

// newVendorsCmd creates the vendors subcommand.
func newVendorsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vendors",
		Short: "List vendors with stored collections",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			vendors, err := a.Comparison.Vendors(cmd.Context())
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), vendors)
			}
			for _, v := range vendors {
				marker := ""
				if v == a.Comparison.ReferenceVendor() {
					marker = " (reference)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s%s\n", v, marker)
			}
			return nil
		},
	}
}

// newDevicesCmd creates the devices subcommand.
func newDevicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices <vendor>",
		Short: "List the devices of a vendor in collection order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			devices, err := a.Comparison.Devices(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), devices)
			}
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(devices, "\n"))
			return nil
		},
	}
}

// newCompareCmd creates the compare subcommand.
func newCompareCmd() *cobra.Command {
	var (
		req    comparison.Request
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare a reference device against a competitor device",
		Long: `Compare aligns the reference device's eight categories with the competitor
device's, resolving "same as" references inside the reference vendor's collection.

Without --competitor-device the competitor's first device is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			outFormat := format
			if outFormat == "" {
				outFormat = "terminal"
				if output != "" {
					outFormat = "markdown"
				}
			}
			renderer, err := rendererFor(outFormat)
			if err != nil {
				return err
			}

			spin := NewSpinner(fmt.Sprintf("Comparing %s with %s", req.ReferenceDevice, req.CompetitorVendor))
			if !outputJSON && IsTerminal() {
				spin.Start()
			}
			result, err := a.Comparison.Compare(ctx, req)
			spin.Stop()
			if err != nil {
				return err
			}

			if outputJSON {
				return writeJSON(cmd.OutOrStdout(), result)
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				w = f
			}
			if err := renderer.Render(w, result); err != nil {
				return err
			}
			if output != "" {
				NewUI(false, noColor).Success("Wrote %s (%s)", output, report.Summary(result))
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.ReferenceVendor, "reference-vendor", "", "reference vendor (default from config)")
	cmd.Flags().StringVarP(&req.ReferenceDevice, "device", "d", "", "reference device name")
	cmd.Flags().StringVar(&req.CompetitorVendor, "competitor", "", "competitor vendor")
	cmd.Flags().StringVar(&req.CompetitorDevice, "competitor-device", "", "competitor device (default: first in collection)")
	cmd.Flags().BoolVar(&req.SkipAnalysis, "no-analysis", false, "skip the narrative analysis")
	cmd.Flags().StringVarP(&format, "format", "f", "", "output format: terminal, text, markdown or html")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write the report to a file")
	_ = cmd.MarkFlagRequired("device")
	_ = cmd.MarkFlagRequired("competitor")
	return cmd
}

// invalidateReports drops cached comparisons after new data was saved.
func invalidateReports(cmd *cobra.Command, a *app.App) {
	if err := a.Comparison.InvalidateReports(cmd.Context()); err != nil {
		logger.Warn().Err(err).Msg("Failed to invalidate cached reports")
	}
}

func rendererFor(format string) (report.Renderer, error) {
	if format == "terminal" {
		return report.NewTerminalRenderer(noColor), nil
	}
	return report.ForFormat(format)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
