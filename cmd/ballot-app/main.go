package main

import (
	"fmt"
	"os"

	"ballot-app-go/internal/config"
	"ballot-app-go/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"
)

const programName = "ballot-app"

// commonRun loads configuration from .env and the environment, builds the
// process logger from it and tunes GOMAXPROCS to the container quota.
func commonRun() (logger.Logger, config.Config, error) {
	cfg, err := config.Load(logger.NewFromEnv())
	if err != nil {
		return nil, config.Config{}, err
	}
	log := logger.NewWithOptions(os.Stdout, cfg.Env, cfg.Log)

	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, v ...any) {
		log.Info(fmt.Sprintf(format, v...), "component", programName)
	})); err != nil {
		return nil, config.Config{}, fmt.Errorf("maxprocs: %w", err)
	}
	return log, cfg, nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "Company elections: ballots, vote casting and tallies",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serveRun(cmd.Context())
		},
	}

	rootCmd.AddCommand(serveCommand())
	rootCmd.AddCommand(migrateCommand())
	rootCmd.AddCommand(tokenCommand())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
