package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/atikulmunna/logscope/internal/config"
	"github.com/atikulmunna/logscope/internal/logging"
)

var (
	cfgFile   string
	envFile   string
	outputFmt string

	// Resolved before any subcommand runs.
	cfg    config.Config
	logger *logrus.Logger
)

// rootCmd is the base command when called without subcommands.
var rootCmd = &cobra.Command{
	Use:   "logscope",
	Short: "logscope: log analytics dashboard",
	Long: `logscope loads a static log dataset (CSV or JSON lines), computes
distributions and averages over it, renders charts, searches messages by
keyword and reports host metrics, from the terminal or a web dashboard.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "config file (default: $HOME/.logscope.yaml)")
	pf.StringVar(&envFile, "env-file", ".env", "dotenv file with LOGSCOPE_* overrides")
	pf.StringVarP(&outputFmt, "output", "o", "text", "output format: text, json")
	pf.StringP("data", "d", "log_data.csv", "log dataset (.csv, .jsonl or .ndjson)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")
	pf.String("log-format", "text", "log format: text, json")
	pf.String("log-file", "", "also write logs to this file, rotated by size")

	configKey(pf, "data", "data")
	configKey(pf, "log-level", "log.level")
	configKey(pf, "log-format", "log.format")
	configKey(pf, "log-file", "log.file")
}

func initConfig() {
	if err := config.LoadDotEnv(envFile); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigName(".logscope")
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			cobra.CheckErr(fmt.Errorf("read config: %w", err))
		}
	}
}

// setup binds the running command's flags to their config keys, resolves
// the configuration and builds the logger.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		if keys, ok := f.Annotations[configKeyAnnotation]; ok && err == nil {
			err = viper.BindPFlag(keys[0], f)
		}
	})
	if err != nil {
		return fmt.Errorf("bind flags: %w", err)
	}

	cfg, err = config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	logger, err = logging.New(cfg.Logging())
	if err != nil {
		return fmt.Errorf("set up logging: %w", err)
	}
	if f := viper.ConfigFileUsed(); f != "" {
		logger.WithField("file", f).Debug("config loaded")
	}
	return nil
}

const configKeyAnnotation = "logscope_config_key"

// configKey marks a flag as the command-line source of a config key. Flags
// are bound per command in setup so that commands sharing a key do not
// shadow each other.
func configKey(fs *pflag.FlagSet, name, key string) {
	cobra.CheckErr(fs.SetAnnotation(name, configKeyAnnotation, []string{key}))
}
