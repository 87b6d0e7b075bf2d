package main

import (
	"context"
	"os"

	"github.com/dhamidi/ziggurat/config"
	"github.com/dhamidi/ziggurat/telemetry"
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

const version = "0.1.0"

var log = commonlog.GetLogger("ziggurat.cmd")

// app carries the state shared by all subcommands. It is filled in by the
// root command's PersistentPreRunE and torn down by execute.
type app struct {
	cfgFile   string
	verbosity int
	config    *config.Config
	telemetry *telemetry.Provider
}

func (a *app) metrics() *telemetry.Metrics {
	if a.telemetry == nil {
		return nil
	}
	return a.telemetry.Metrics
}

func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}
	a.config = cfg

	verbosity := cfg.Log.Verbosity
	if cmd.Flags().Changed("verbose") {
		verbosity = a.verbosity
	}
	var logFile *string
	if cfg.Log.File != "" {
		logFile = &cfg.Log.File
	}
	commonlog.Configure(verbosity, logFile)

	if cfg.Metrics.Enabled {
		a.telemetry, err = telemetry.NewProvider()
		if err != nil {
			return err
		}
	}
	return nil
}

func (a *app) teardown() {
	if a.telemetry == nil {
		return
	}
	ctx := context.Background()
	if totals, err := a.telemetry.Totals(ctx); err == nil {
		log.Infof("parses %d, recoveries %d, exhausted %d, cancelled %d",
			totals[telemetry.ParseCounterName],
			totals[telemetry.RecoveryCounterName],
			totals[telemetry.ExhaustedCounterName],
			totals[telemetry.CancelledCounterName])
	}
	a.telemetry.Shutdown(ctx)
}

func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "ziggurat",
		Short:        "An error-recovering parser and language server for Zig-like sources",
		SilenceUsage: true,
		Version:      version,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default ./ziggurat.yaml)")
	rootCmd.PersistentFlags().CountVarP(&a.verbosity, "verbose", "v", "increase log verbosity")

	rootCmd.AddCommand(newParseCmd(a))
	rootCmd.AddCommand(newTokensCmd(a))
	rootCmd.AddCommand(newCheckCmd(a))
	rootCmd.AddCommand(newLSPCmd(a))

	return rootCmd
}

// execute runs cmd and tears the app down afterwards, also when the
// command failed.
func execute(a *app, cmd *cobra.Command) error {
	defer a.teardown()
	return cmd.Execute()
}

func main() {
	a := &app{}
	if err := execute(a, newRootCmd(a)); err != nil {
		os.Exit(1)
	}
}
