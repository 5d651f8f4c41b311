package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:   "delete <store> <id>",
	Short: "Delete a record",
	Long: `Delete a record by id. Positions of the remaining records are left as
they are; run renumber to close the gap.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		st, err := e.registry.Get(args[0])
		if err != nil {
			return err
		}
		if err := st.Delete(ctx, args[1]); err != nil {
			return fmt.Errorf("failed to delete: %w", err)
		}
		fmt.Printf("deleted %s\n", args[1])
		return nil
	},
}
