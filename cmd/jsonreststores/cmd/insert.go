package cmd

import (
	"fmt"
	"io"
	"os"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/store"
)

func init() {
	rootCmd.AddCommand(insertCmd)
}

var insertCmd = &cobra.Command{
	Use:   "insert <store> <json>",
	Short: "Insert a record through the full pipeline",
	Long: `Insert a JSON record. Pass the body inline or as - to read it from stdin.
A beforeId field in the body places the record before that id within its
group; omit it to append.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		data := []byte(args[1])
		if args[1] == "-" {
			var err error
			data, err = io.ReadAll(os.Stdin)
			if err != nil {
				return fmt.Errorf("failed to read stdin: %w", err)
			}
		}
		var body store.Body
		if err := json.Unmarshal(data, &body); err != nil {
			return fmt.Errorf("invalid body: %w", err)
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
		rec, err := st.Insert(ctx, body)
		if err != nil {
			return fmt.Errorf("failed to insert: %w", err)
		}
		return printRecord(rec)
	},
}

func printRecord(rec store.Record) error {
	out, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}
	fmt.Println(string(out))
	return nil
}
