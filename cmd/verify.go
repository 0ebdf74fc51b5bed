package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/openrx/rxlink/internal/publish"
)

var verifyCmd = &cobra.Command{
	Use:   "verify [dir]",
	Short: "Verify a published output directory",
	Long: `Re-checks the invariants of a published output directory: manifest
arithmetic, chunk files reconstructing the consolidated output in order,
and search index / classification lookup coverage. Exits nonzero on any
violation.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := cfg.Output.Dir
		if len(args) == 1 {
			dir = args[0]
		}

		if err := publish.VerifyDir(dir); err != nil {
			return err
		}

		fmt.Printf("%s: all artifacts consistent\n", dir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
}
