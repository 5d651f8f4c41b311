package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(importCmd)
}

var importCmd = &cobra.Command{
	Use:   "import <store> <file>",
	Short: "Import records from gzipped NDJSON",
	Long: `Insert every record from a gzip-compressed NDJSON dump, stored fields
and positions intact. The whole import runs in one transaction: a bad record
rolls everything back. Pass - to read from stdin.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if _, err := e.registry.Get(args[0]); err != nil {
			return err
		}

		var r io.Reader = os.Stdin
		if args[1] != "-" {
			f, err := os.Open(args[1])
			if err != nil {
				return fmt.Errorf("failed to open %s: %w", args[1], err)
			}
			defer f.Close()
			r = f
		}

		backend := e.backends[args[0]]
		tx, err := backend.Begin(ctx)
		if err != nil {
			return fmt.Errorf("failed to begin import: %w", err)
		}
		n, err := backend.WithTx(tx).Import(ctx, r)
		if err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("failed to import: %w", err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("failed to commit import: %w", err)
		}
		fmt.Printf("imported %d records\n", n)
		return nil
	},
}
