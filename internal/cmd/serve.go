package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/atikulmunna/logscope/internal/chart"
	"github.com/atikulmunna/logscope/internal/server"
	"github.com/atikulmunna/logscope/internal/sysmetrics"
	"github.com/atikulmunna/logscope/internal/table"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the web dashboard",
	Long: `Load the dataset once and serve the dashboard: statistics, charts,
keyword search and live host metrics.

A dataset with missing columns is rejected at startup.

Examples:
  logscope serve --data log_data.csv
  logscope serve --data events.jsonl --port 9000 --watch`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringP("port", "p", "8080", "HTTP listen port")
	f.Bool("watch", false, "warn when the dataset changes on disk (it is not reloaded)")
	f.String("disk-path", "/", "mount point reported as disk usage")

	configKey(f, "port", "port")
	configKey(f, "watch", "watch")
	configKey(f, "disk-path", "monitoring.disk_path")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	// --- Set up context with graceful shutdown ---
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tbl, err := loadTable()
	if err != nil {
		return err
	}

	if cfg.Watch {
		watchDataset(ctx, tbl.Source())
	}

	charts := chart.NewRenderer(cfg.ChartOptions())
	collector := sysmetrics.NewCollector(sysmetrics.HostProbes(), cfg.Monitor(), logger)
	srv := server.New(tbl, charts, collector, logger, cfg.Port)

	fmt.Fprintf(os.Stderr, "logscope dashboard at http://localhost:%s (%d rows from %s)\n", cfg.Port, tbl.Len(), tbl.Source())
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server: %w", err)
	}
	logger.Info("logscope shut down")
	return nil
}

func watchDataset(ctx context.Context, path string) {
	onChange := func(p string, op fsnotify.Op) {
		logger.WithFields(logrus.Fields{"file": p, "op": op.String()}).
			Warn("dataset changed on disk; restart to load the new rows")
	}
	onError := func(err error) {
		logger.WithError(err).Warn("dataset watcher error")
	}
	if err := table.Watch(ctx, path, onChange, onError); err != nil {
		logger.WithError(err).Warn("dataset watch disabled")
	}
}

// loadTable loads cfg.Data. A SchemaError is returned as is.
func loadTable() (*table.Table, error) {
	tbl, err := table.Load(cfg.Data)
	if err != nil {
		return nil, err
	}
	logger.WithFields(logrus.Fields{"file": tbl.Source(), "rows": tbl.Len()}).Info("dataset loaded")
	return tbl, nil
}
