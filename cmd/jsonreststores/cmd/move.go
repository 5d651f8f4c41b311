package cmd

import (
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/store"
)

var (
	moveBefore string
	moveLast   bool
)

func init() {
	rootCmd.AddCommand(moveCmd)
	moveCmd.Flags().StringVar(&moveBefore, "before", "", "place the record before this id")
	moveCmd.Flags().BoolVar(&moveLast, "last", false, "place the record at the end of its group")
}

var moveCmd = &cobra.Command{
	Use:   "move <store> <id>",
	Short: "Reposition a record within its group",
	Long: `Move a record by sending an update that carries only the placement
directive. A --before target that no longer exists places the record last.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if (moveBefore != "") == moveLast {
			return errors.New("specify exactly one of --before or --last")
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

		directive := json.RawMessage("null")
		if moveBefore != "" {
			directive, err = json.Marshal(moveBefore)
			if err != nil {
				return fmt.Errorf("failed to encode directive: %w", err)
			}
		}
		body := store.Body{st.Config().BeforeIDField: directive}

		rec, err := st.Update(ctx, args[1], body)
		if err != nil {
			return fmt.Errorf("failed to move: %w", err)
		}
		return printRecord(rec)
	},
}
