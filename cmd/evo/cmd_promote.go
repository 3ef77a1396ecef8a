package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hlop3z/evolvedb/internal/ui"
	"github.com/hlop3z/evolvedb/pkg/evolvedb"
)

// promoteCmd widens a column type in place.
func promoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "promote <table> <column> <type>",
		Short: "Promote a column to a wider type using a cast of existing values",
		Long: `Promote a column to the target type in place.

Existing values are converted with a cast; rows that cannot be cast abort the
promotion with a cast-rejected error and the column keeps its current type.
Promoting a column that already has the target type is a no-op.`,
		Example: `  # Promote a TEXT metadata column to JSONB
  evo promote threads metadata jsonb`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			table, column, target := args[0], args[1], args[2]

			res, err := client.PromoteColumnType(table, column, evolvedb.ColumnType(target))
			if err != nil {
				return err
			}

			if !res.Migrated {
				fmt.Println(ui.Info(fmt.Sprintf("%s.%s already has type %s (or does not exist), nothing to do",
					table, column, target)))
				return nil
			}

			fmt.Println(ui.Success(fmt.Sprintf("promoted %s.%s: %s → %s",
				table, column, res.PreviousType, target)))
			return nil
		},
	}
}
