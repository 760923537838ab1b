package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kilianp07/brunch/app"
	"github.com/kilianp07/brunch/core/model"
	"github.com/kilianp07/brunch/core/scheduler"
	"github.com/kilianp07/brunch/infra/logger"
	"github.com/kilianp07/brunch/infra/settings"
)

var formatFlags struct {
	paths       settings.Paths
	doubleSided bool
	chart       string
	json        string
	csv         string
	turnover    string
	noSave      bool
}

var formatCmd = &cobra.Command{
	Use:   "format",
	Short: "Build the Excel run sheet and PDF table cards from a booking export",
	Long: `Build the Excel run sheet and PDF table cards from a booking export.

Paths not given on the command line are taken from the last run, and the
paths used are remembered for the next one.`,
	RunE: runFormat,
}

func init() {
	f := formatCmd.Flags()
	f.StringVarP(&formatFlags.paths.Input, "input", "i", "", "booking export (CSV)")
	f.StringVarP(&formatFlags.paths.Excel, "excel", "e", "", "run sheet output (.xlsx)")
	f.StringVarP(&formatFlags.paths.PDF, "pdf", "p", "", "table cards output (.pdf)")
	f.BoolVar(&formatFlags.doubleSided, "double-sided", false, "add a back page with table and guests to each card")
	f.StringVar(&formatFlags.chart, "chart", "", "also write the turnover chart (.html)")
	f.StringVar(&formatFlags.json, "json", "", "also write the run sheet as JSON")
	f.StringVar(&formatFlags.csv, "csv", "", "also write the run sheet as CSV")
	f.StringVar(&formatFlags.turnover, "turnover", "", "turnover policy file (yaml or json) replacing the configured one")
	f.BoolVar(&formatFlags.noSave, "no-save", false, "do not remember the paths for the next run")
	rootCmd.AddCommand(formatCmd)
}

func settingsPath() (string, error) {
	if cfg != nil && cfg.SettingsPath != "" {
		return cfg.SettingsPath, nil
	}
	return settings.DefaultPath()
}

func runFormat(cmd *cobra.Command, _ []string) error {
	log := logger.New("format")
	spath, err := settingsPath()
	if err != nil {
		return err
	}
	last, err := settings.Load(spath)
	if err != nil {
		log.Warnf("ignoring saved paths: %v", err)
	}
	paths := last.Merge(formatFlags.paths)
	if cmd.Flags().Changed("double-sided") {
		paths.DoubleSided = formatFlags.doubleSided
	}
	if err := paths.Complete(); err != nil {
		return fmt.Errorf("%w: pass --input, --excel and --pdf", err)
	}

	outputs := map[app.Format]string{app.FormatXLSX: paths.Excel, app.FormatPDF: paths.PDF}
	if formatFlags.chart != "" {
		outputs[app.FormatChart] = formatFlags.chart
	}
	if formatFlags.json != "" {
		outputs[app.FormatJSON] = formatFlags.json
	}
	if formatFlags.csv != "" {
		outputs[app.FormatCSV] = formatFlags.csv
	}
	var names []string
	for _, f := range app.Formats {
		if p, ok := outputs[f]; ok {
			names = append(names, p)
		}
	}

	runCfg := *cfg
	if formatFlags.turnover != "" {
		policy, err := scheduler.LoadConfig(formatFlags.turnover)
		if err != nil {
			return fmt.Errorf("turnover policy: %w", err)
		}
		runCfg.Turnover = policy
	}
	svc, err := app.New(&runCfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			log.Errorf("service close: %v", err)
		}
	}()

	in, err := os.Open(paths.Input)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	double := paths.DoubleSided
	res, err := svc.Generate(cmd.Context(), app.Request{
		Source:      model.SourceCLI,
		InputName:   filepath.Base(paths.Input),
		Input:       in,
		DoubleSided: &double,
		Outputs:     names,
	})
	if err != nil {
		return err
	}
	for _, f := range app.Formats {
		p, ok := outputs[f]
		if !ok {
			continue
		}
		if err := svc.WriteFile(cmd.Context(), res, f, p); err != nil {
			return fmt.Errorf("write %s: %w", p, err)
		}
	}

	if !formatFlags.noSave {
		if err := settings.Save(spath, paths); err != nil {
			log.Warnf("could not remember paths: %v", err)
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Formatted %d bookings on %d tables (run %s)\n", res.Summary.Bookings, res.Summary.Tables, res.ID)
	if res.Summary.ClearSlots > 0 {
		fmt.Fprintf(out, "Tables needed back from %s to %s in %d slots\n", res.Summary.FirstClear, res.Summary.LastClear, res.Summary.ClearSlots)
	}
	if n := len(res.Issues); n > 0 {
		fmt.Fprintf(out, "%d fields could not be read and were left blank\n", n)
	}
	for _, p := range names {
		fmt.Fprintf(out, "  %s\n", p)
	}
	return nil
}
