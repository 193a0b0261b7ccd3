package cmd

import (
	"github.com/spf13/cobra"

	"github.com/atikulmunna/logscope/internal/output"
	"github.com/atikulmunna/logscope/internal/sysmetrics"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Print one snapshot of host metrics",
	Long: `Print CPU, memory, swap and disk usage, uptime, load, network counters,
users, processes and whatever battery, temperature and fan sensors the
platform exposes. Missing sensors are reported as unavailable.`,
	Args: cobra.NoArgs,
	RunE: runMonitor,
}

func init() {
	f := monitorCmd.Flags()
	f.String("disk-path", "/", "mount point reported as disk usage")
	f.Int("processes", 50, "maximum processes listed (0 for all)")

	configKey(f, "disk-path", "monitoring.disk_path")
	configKey(f, "processes", "monitoring.process_limit")

	rootCmd.AddCommand(monitorCmd)
}

func runMonitor(cmd *cobra.Command, args []string) error {
	renderer, err := output.New(outputFmt, cmd.OutOrStdout(), cfg.ChartOptions().Order)
	if err != nil {
		return err
	}

	collector := sysmetrics.NewCollector(sysmetrics.HostProbes(), cfg.Monitor(), logger)
	return renderer.Snapshot(collector.Snapshot(cmd.Context()))
}
