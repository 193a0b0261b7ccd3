package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atikulmunna/logscope/internal/model"
	"github.com/atikulmunna/logscope/internal/output"
	"github.com/atikulmunna/logscope/internal/parser"
)

var levelFilter string

var searchCmd = &cobra.Command{
	Use:   "search KEYWORD",
	Short: "Print entries whose message contains a keyword",
	Long: `Print every entry whose message contains KEYWORD, ignoring case, with
the error code and timestamp extracted from the message. The keyword is
matched literally; regular expression syntax has no special meaning.

Examples:
  logscope search timeout --data log_data.csv
  logscope search "Error Code" --level error,warning --output json`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVarP(&levelFilter, "level", "l", "", "filter by level (comma-separated: info,warning,error)")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	renderer, err := output.New(outputFmt, cmd.OutOrStdout(), cfg.ChartOptions().Order)
	if err != nil {
		return err
	}

	tbl, err := loadTable()
	if err != nil {
		return err
	}

	levelSet := parseLevels(levelFilter)
	shown := 0
	for _, row := range parser.Annotate(tbl.Search(args[0]).Entries()) {
		if !shouldShow(row.Entry, levelSet) {
			continue
		}
		if err := renderer.Render(row); err != nil {
			return fmt.Errorf("render: %w", err)
		}
		shown++
	}
	logger.WithField("matches", shown).Debug("search done")
	return nil
}

func parseLevels(filter string) map[string]bool {
	levelSet := make(map[string]bool)
	if filter == "" {
		return levelSet
	}
	for _, l := range strings.Split(filter, ",") {
		if l = strings.TrimSpace(l); l != "" {
			levelSet[strings.ToUpper(l)] = true
		}
	}
	return levelSet
}

// shouldShow returns true if the entry passes the level filter.
func shouldShow(entry model.LogEntry, levelSet map[string]bool) bool {
	if len(levelSet) == 0 {
		return true // no filter = show all
	}
	return levelSet[strings.ToUpper(entry.Level)]
}
