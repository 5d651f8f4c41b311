package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/sqlitestore"
)

func init() {
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the backing tables for every defined store",
	Long: `Create the sqlite tables and ordering indexes for every store in the
definitions file. Existing tables are left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		for _, name := range e.registry.Names() {
			def := e.defs[name]
			cols := make([]sqlitestore.Column, 0, len(def.Columns))
			for _, c := range def.Columns {
				cols = append(cols, sqlitestore.Column{Name: c.Name, Type: c.Type, NotNull: c.NotNull})
			}
			if err := e.backends[name].CreateTable(ctx, cols); err != nil {
				return fmt.Errorf("failed to create tables for %s: %w", name, err)
			}
			fmt.Printf("store %s ready (table %s)\n", name, def.Table)
		}
		return nil
	},
}
