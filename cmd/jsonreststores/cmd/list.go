package cmd

import (
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/store"
)

var (
	listWhere  []string
	listLimit  int
	listPretty bool
)

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().StringArrayVar(&listWhere, "where", nil, "field=value group filter (repeatable; 'null' matches NULL)")
	listCmd.Flags().IntVar(&listLimit, "limit", 0, "maximum rows to return")
	listCmd.Flags().BoolVar(&listPretty, "pretty", false, "indent the output")
}

var listCmd = &cobra.Command{
	Use:   "list <store>",
	Short: "List records in position order",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		group, err := parseWhere(listWhere)
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
		rows, err := st.List(ctx, store.Query{Group: group, OrderByPos: true, Limit: listLimit})
		if err != nil {
			return fmt.Errorf("failed to list: %w", err)
		}

		for _, rec := range rows {
			if listPretty {
				if err := printRecord(rec); err != nil {
					return err
				}
				continue
			}
			line, err := json.Marshal(rec)
			if err != nil {
				return fmt.Errorf("failed to encode record: %w", err)
			}
			fmt.Println(string(line))
		}
		return nil
	},
}
