package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DjordjeVuckovic/table-ingest/pkg/config/env"
)

func newRootCmd() *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("INGEST")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "ingest",
		Short: "Validate records against a schema and commit them to a table",
		Long: `ingest runs batch jobs: it fetches records, validates every record against
the job schema and, only when all of them are valid, commits them to the
configured table backend (postgres, sql, es, bq or in_mem) under the job's
create and write dispositions.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := setupLogger(v.GetString("log-level"), v.GetString("log-format")); err != nil {
				return err
			}
			if err := env.LoadDotEnv(os.Getenv("ENV"), v.GetString("env-file")); err != nil {
				slog.Info("Skipping .env environment variables...", "error", err)
			}
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().String("log-level", "info", "log level: debug, info, warn, error")
	root.PersistentFlags().String("log-format", "text", "log format: text, json")
	root.PersistentFlags().String("env-file", "cmd/ingest/.env", "dotenv file with storage settings")
	_ = v.BindPFlags(root.PersistentFlags())

	root.AddCommand(newRunCmd(v), newValidateCmd(v))
	return root
}

func setupLogger(level, format string) error {
	var slogLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		slogLevel = slog.LevelDebug
	case "info":
		slogLevel = slog.LevelInfo
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		return fmt.Errorf("unknown log level: %q (expected debug, info, warn, error)", level)
	}

	opts := &slog.HandlerOptions{Level: slogLevel}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case "text":
		handler = slog.NewTextHandler(os.Stderr, opts)
	case "json":
		handler = slog.NewJSONHandler(os.Stderr, opts)
	default:
		return fmt.Errorf("unknown log format: %q (expected text, json)", format)
	}

	slog.SetDefault(slog.New(handler))
	return nil
}
