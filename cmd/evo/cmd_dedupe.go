package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hlop3z/evolvedb/internal/ui"
	"github.com/hlop3z/evolvedb/pkg/evolvedb"
)

// dedupeCmd removes duplicate rows, keeping the most authoritative per group.
func dedupeCmd() *cobra.Command {
	policy := evolvedb.DefaultKeepPolicy()

	cmd := &cobra.Command{
		Use:   "dedupe <table> <key-columns>",
		Short: "Delete duplicate rows, keeping one authoritative row per group",
		Long: `Group rows by the comma-separated key columns and delete every row of each
group except one.

The surviving row is chosen by the keep policy: a row with a non-null
completion column beats one without, then the greater updated column wins,
then the greater created column. Policy columns the table does not have are
skipped. The operation is idempotent.`,
		Example: `  # Deduplicate spans on their natural key
  evo dedupe spans trace_id,span_id

  # Use different policy columns
  evo dedupe events event_id --completion finished_at --updated modified_at`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			table := args[0]
			keyColumns := strings.Split(args[1], ",")
			for i := range keyColumns {
				keyColumns[i] = strings.TrimSpace(keyColumns[i])
			}

			res, err := client.Deduplicate(table, keyColumns, policy)
			if err != nil {
				return err
			}

			if res.DuplicatesRemoved == 0 {
				fmt.Println(ui.Info(fmt.Sprintf("no duplicate groups in %s on (%s)",
					table, strings.Join(keyColumns, ", "))))
				return nil
			}

			fmt.Println(ui.Success(fmt.Sprintf("resolved %d duplicate group(s) in %s",
				res.DuplicatesRemoved, table)))
			return nil
		},
	}

	cmd.Flags().StringVar(&policy.CompletionColumn, "completion", policy.CompletionColumn, "Column whose non-null value marks a finished row")
	cmd.Flags().StringVar(&policy.UpdatedColumn, "updated", policy.UpdatedColumn, "Column ranking rows by recency of update")
	cmd.Flags().StringVar(&policy.CreatedColumn, "created", policy.CreatedColumn, "Column ranking rows by creation time")
	return cmd
}
