package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/soocke/pixel-macro-go/config"
	"github.com/soocke/pixel-macro-go/debug"
)

// globals set up by the root command before any subcommand runs.
var (
	rootOpts struct {
		configPath string
		logLevel   string
		logFormat  string
		debug      bool
	}
	cfg    = config.DefaultConfig()
	logger = slog.Default()
)

var rootCmd = &cobra.Command{
	Use:           "pixel-macro",
	Short:         "Find template images in a window and act on them",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		loaded, err := config.Load(rootOpts.configPath)
		if err != nil {
			return fmt.Errorf("load config %s: %w", rootOpts.configPath, err)
		}
		cfg = loaded
		flags := cmd.Flags()
		if flags.Changed("log-level") {
			cfg.LogLevel = rootOpts.logLevel
		}
		if flags.Changed("log-format") {
			cfg.LogFormat = rootOpts.logFormat
		}
		if flags.Changed("debug") {
			cfg.Debug = rootOpts.debug
		}
		logger = NewLogger(os.Stderr, parseLevel(cfg.LogLevel), cfg.LogFormat)
		slog.SetDefault(logger)
		if cfg.Debug {
			debug.Start(cmd.Context(), debug.DefaultInterval, logger)
		}
		return nil
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootOpts.configPath, "config", "c", "config.json", "config file (json, yaml or toml)")
	pf.StringVar(&rootOpts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&rootOpts.logFormat, "log-format", "json", "log format: json or text")
	pf.BoolVar(&rootOpts.debug, "debug", false, "log runtime diagnostics")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorColor.Sprint("error: "), err)
		os.Exit(1)
	}
}
