package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/DjordjeVuckovic/table-ingest/internal/pipeline"
	"github.com/DjordjeVuckovic/table-ingest/internal/storage"
	"github.com/DjordjeVuckovic/table-ingest/internal/storage/factory"
)

func newRunCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a job and commit its records",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(v, cmd, "job", "storage")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runJob(ctx, v, cmd.OutOrStdout())
		},
	}
	cmd.Flags().String("job", "", "path to a job YAML file (default: built-in sample job)")
	cmd.Flags().String("storage", "", "storage type, overrides STORAGE_TYPE")
	return cmd
}

func runJob(ctx context.Context, v *viper.Viper, out io.Writer) error {
	def, err := loadDefinition(v)
	if err != nil {
		return err
	}

	var storageCfg *factory.StorageConfig
	if t := v.GetString("storage"); t != "" {
		storageCfg, err = factory.LoadEnvFor(storage.Type(t))
	} else {
		storageCfg, err = factory.LoadEnv()
	}
	if err != nil {
		return fmt.Errorf("load storage configuration: %w", err)
	}

	slog.Info("Creating sink", "storageType", storageCfg.Type)
	sink, err := factory.NewSink(ctx, storageCfg)
	if err != nil {
		return fmt.Errorf("create sink: %w", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			slog.Warn("Failed to close sink", "error", err)
		}
	}()

	status := pipeline.NewRunner().Run(ctx, def.Options, def.Source, def.Schema, sink, def.Table, def.Disposition)

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(status); err != nil {
		return err
	}
	if !status.Succeeded() {
		return fmt.Errorf("run %s failed: %s", status.RunID, status.Reason)
	}
	return nil
}
