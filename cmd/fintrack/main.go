package main

import (
	"os"

	"github.com/spf13/cobra"

	"fintrack/internal/cli"
	"fintrack/internal/config"
	"fintrack/internal/log"
)

var version = "dev"

// app carries what every subcommand needs once the root has initialized.
type app struct {
	cfg    *config.Config
	logger *log.Logger
}

func newRootCommand() *cobra.Command {
	a := &app{}
	rootCmd := &cobra.Command{
		Use:     "fintrack",
		Short:   "Personal finance tracker",
		Version: version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cli.LoadEnvFile()
			cfg, err := cli.LoadAndValidateConfig()
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = cli.SetupLogger(cfg.LogLevel, cmd.ErrOrStderr())
			return nil
		},
	}

	rootCmd.AddCommand(
		newServeCommand(a),
		newMigrateCommand(a),
		newRatesCommand(a),
		newLabelsCommand(a),
		newEventsCommand(a),
	)
	return rootCmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
