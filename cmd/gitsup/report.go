package main

import (
	"github.com/spf13/cobra"

	"github.com/tgamauf/gitsup/pkg/report"
)

var reportCmd = &cobra.Command{
	Use:   "report FILE",
	Short: "Show a summary written by --report-file",
	Long: `Render the JSON summary of an earlier run, as written by --report-file,
in the same form the update prints it.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		summary, err := report.ReadSummary(args[0])
		if err != nil {
			return err
		}
		return report.RenderSummary(cmd.OutOrStdout(), summary)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)
}
