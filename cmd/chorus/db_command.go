package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chorus/internal/store"
)

func newDBCommand(ctx *commandContext) *cobra.Command {
	dbCmd := &cobra.Command{
		Use:   "db",
		Short: "Database utilities",
	}

	dbCmd.AddCommand(&cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			st, err := store.Open(cfg)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()
			fmt.Fprintf(cmd.OutOrStdout(), "Database ready at %s\n", st.Path())
			return nil
		},
	})

	return dbCmd
}
