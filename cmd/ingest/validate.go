package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newValidateCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a job's records without touching any table",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return bindFlags(v, cmd, "job")
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			def, err := loadDefinition(v)
			if err != nil {
				return err
			}
			records, err := def.Source.FetchAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetch records: %w", err)
			}

			_, errs := def.Schema.ValidateAll(records)
			for _, e := range errs {
				fmt.Fprintln(cmd.OutOrStdout(), e)
			}
			if len(errs) > 0 {
				return fmt.Errorf("%d of %d record(s) invalid", len(errs), len(records))
			}
			slog.Info("All records valid", "records", len(records), "schema", def.Schema.String())
			fmt.Fprintf(cmd.OutOrStdout(), "%d record(s) valid\n", len(records))
			return nil
		},
	}
	cmd.Flags().String("job", "", "path to a job YAML file (default: built-in sample job)")
	return cmd
}
