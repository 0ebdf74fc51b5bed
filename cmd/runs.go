package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/openrx/rxlink/internal/runlog"
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded pipeline runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		rl, err := runlog.Open(cfg.RunLog.Path)
		if err != nil {
			return err
		}
		defer rl.Close() //nolint:errcheck

		entries, err := rl.List(ctx)
		if err != nil {
			return eris.Wrap(err, "runs")
		}

		if len(entries) == 0 {
			fmt.Fprintln(os.Stderr, "No runs found.")
			return nil
		}

		formatRuns(os.Stdout, entries)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runsCmd)
}

func formatRuns(w io.Writer, entries []runlog.Entry) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tSTARTED\tPRICES\tMATCHED\tERROR")
	for _, e := range entries {
		errMsg := e.Error
		if r := []rune(errMsg); len(r) > 40 {
			errMsg = string(r[:40]) + "…"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%s\n",
			e.ID, e.Status, e.StartedAt.Format("2006-01-02 15:04:05"), e.Prices, e.Matched, errMsg)
	}
	_ = tw.Flush()
}
