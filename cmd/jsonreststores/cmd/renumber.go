package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/position"
)

var renumberWhere []string

func init() {
	rootCmd.AddCommand(renumberCmd)
	renumberCmd.Flags().StringArrayVar(&renumberWhere, "where", nil, "field=value group filter (repeatable; 'null' matches NULL)")
}

var renumberCmd = &cobra.Command{
	Use:   "renumber <store>",
	Short: "Compact a group's positions to 1..N",
	Long: `Rewrite the positions of the selected group to a dense 1..N sequence,
preserving the current order. Without --where the whole table is treated as
one group.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		group, err := parseWhere(renumberWhere)
		if err != nil {
			return err
		}

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		st, err := e.registry.Get(args[0])
		if err != nil {
			return err
		}
		n, err := position.Renumber(ctx, e.backends[args[0]], st.Config(), group)
		if err != nil {
			return fmt.Errorf("failed to renumber: %w", err)
		}
		fmt.Printf("renumbered %d records\n", n)
		return nil
	},
}
