package cmd

import (
	"github.com/spf13/cobra"

	"github.com/atikulmunna/logscope/internal/aggregator"
	"github.com/atikulmunna/logscope/internal/output"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print distributions and averages of the dataset",
	Long: `Print the row count, the level, type, severity, user activity and
error code distributions, and the average word and digit counts per message.

Examples:
  logscope summary --data log_data.csv
  logscope summary --data log_data.csv --output json`,
	Args: cobra.NoArgs,
	RunE: runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	renderer, err := output.New(outputFmt, cmd.OutOrStdout(), cfg.ChartOptions().Order)
	if err != nil {
		return err
	}

	tbl, err := loadTable()
	if err != nil {
		return err
	}

	return renderer.Summary(aggregator.Summarize(tbl.Entries()))
}
