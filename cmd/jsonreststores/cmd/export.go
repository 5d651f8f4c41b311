package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/store"
)

var exportWhere []string

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringArrayVar(&exportWhere, "where", nil, "field=value group filter (repeatable; 'null' matches NULL)")
}

var exportCmd = &cobra.Command{
	Use:   "export <store> <file>",
	Short: "Export records as gzipped NDJSON",
	Long: `Dump the store's records, ordered by group position, as gzip-compressed
NDJSON. Pass - to write to stdout.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		group, err := parseWhere(exportWhere)
		if err != nil {
			return err
		}

		e, err := openEnv(ctx)
		if err != nil {
			return err
		}
		defer e.Close()

		if _, err := e.registry.Get(args[0]); err != nil {
			return err
		}

		var w io.Writer = os.Stdout
		if args[1] != "-" {
			f, err := os.Create(args[1])
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", args[1], err)
			}
			defer f.Close()
			w = f
		}

		n, err := e.backends[args[0]].Export(ctx, w, store.Query{Group: group, OrderByPos: true})
		if err != nil {
			return fmt.Errorf("failed to export: %w", err)
		}
		if args[1] != "-" {
			fmt.Printf("exported %d records to %s\n", n, args[1])
		}
		return nil
	},
}
