package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/brunch/core/model"
	"github.com/kilianp07/brunch/core/runlog"
)

var runsFlags struct {
	since  time.Duration
	source string
	limit  int
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Inspect the run log",
}

var runsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List recorded runs",
	RunE:  runRunsLs,
}

var runsShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Print one recorded run as JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runRunsShow,
}

func init() {
	f := runsLsCmd.Flags()
	f.DurationVar(&runsFlags.since, "since", 0, "only runs newer than this, e.g. 24h")
	f.StringVar(&runsFlags.source, "source", "", "only runs from this source (cli or web)")
	f.IntVar(&runsFlags.limit, "limit", 20, "show at most this many runs, 0 for all")
	runsCmd.AddCommand(runsLsCmd, runsShowCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsLs(cmd *cobra.Command, _ []string) error {
	store, err := runlog.Open(cfg.RunLog)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	q := runlog.Query{Limit: runsFlags.limit}
	if runsFlags.source != "" {
		src, ok := model.ParseSource(runsFlags.source)
		if !ok {
			return fmt.Errorf("unknown source %q (cli or web)", runsFlags.source)
		}
		q.Source = src.String()
	}
	if runsFlags.since > 0 {
		q.Start = time.Now().Add(-runsFlags.since)
	}
	recs, err := store.Query(cmd.Context(), q)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tID\tSOURCE\tINPUT\tBOOKINGS\tTABLES\tCLEAR\tSTATUS")
	for _, r := range recs {
		status := "ok"
		if r.Failed() {
			status = r.Error
		}
		window := "-"
		if r.FirstClear != "" {
			window = r.FirstClear + "-" + r.LastClear
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%s\t%s\n",
			r.Timestamp.Local().Format("2006-01-02 15:04"), r.ID, r.Source, r.InputName,
			r.Bookings, r.Tables, window, status)
	}
	return tw.Flush()
}

func runRunsShow(cmd *cobra.Command, args []string) error {
	store, err := runlog.Open(cfg.RunLog)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	rec, err := runlog.Get(cmd.Context(), store, args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
