package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DjordjeVuckovic/table-ingest/internal/config"
)

// loadDefinition resolves the --job file, or the built-in sample job when none is given.
func loadDefinition(v *viper.Viper) (*config.Definition, error) {
	defaults := config.LoadOptionsEnv()

	path := v.GetString("job")
	if path == "" {
		slog.Info("No job file given, using the sample job")
		return config.DefaultJob().Resolve("", defaults)
	}

	job, baseDir, err := config.LoadJobFile(path)
	if err != nil {
		return nil, fmt.Errorf("load job %s: %w", path, err)
	}
	return job.Resolve(baseDir, defaults)
}

// bindFlags binds the named flags of the command being executed, so INGEST_JOB
// and friends apply to whichever subcommand runs.
func bindFlags(v *viper.Viper, cmd *cobra.Command, names ...string) error {
	for _, name := range names {
		if err := v.BindPFlag(name, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}
	return nil
}
