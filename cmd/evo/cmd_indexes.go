package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hlop3z/evolvedb/internal/ui"
	"github.com/hlop3z/evolvedb/pkg/evolvedb"
)

// indexesCmd groups the index lifecycle subcommands.
func indexesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "indexes",
		Short: "Manage secondary indexes",
	}
	cmd.AddCommand(
		indexesListCmd(),
		indexesDescribeCmd(),
		indexesCreateCmd(),
		indexesDropCmd(),
	)
	return cmd
}

func indexesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list [table]",
		Short: "List secondary indexes, optionally for one table",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			table := ""
			if len(args) == 1 {
				table = args[0]
			}

			indexes, err := client.ListIndexes(table)
			if err != nil {
				return err
			}
			if len(indexes) == 0 {
				fmt.Println(ui.Dim("no secondary indexes"))
				return nil
			}

			t := &ui.Table{Headers: []string{"INDEX", "TABLE", "COLUMNS", "UNIQUE", "SIZE"}}
			for _, ix := range indexes {
				t.AddRow(
					ix.Name,
					ix.Table,
					strings.Join(ix.Columns, ", "),
					fmt.Sprintf("%t", ix.Unique),
					formatBytes(ix.SizeBytes),
				)
			}
			fmt.Print(t.Render())
			return nil
		},
	}
}

func indexesDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe <name>",
		Short: "Show full details and usage counters for one index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			det, err := client.DescribeIndex(args[0])
			if err != nil {
				return err
			}
			if det == nil {
				fmt.Println(ui.Warning(fmt.Sprintf("index %s does not exist", args[0])))
				return nil
			}

			cv := &ui.ContextView{Pairs: map[string]string{
				"index":          det.Name,
				"table":          det.Table,
				"columns":        strings.Join(det.Columns, ", "),
				"unique":         fmt.Sprintf("%t", det.Unique),
				"method":         det.Method,
				"size":           formatBytes(det.SizeBytes),
				"scans":          fmt.Sprintf("%d", det.Scans),
				"tuples read":    fmt.Sprintf("%d", det.TuplesRead),
				"tuples fetched": fmt.Sprintf("%d", det.TuplesFetched),
			}}
			fmt.Print(cv.Render())
			if det.Definition != "" {
				fmt.Println(ui.Dim("  " + det.Definition))
			}
			return nil
		},
	}
}

func indexesCreateCmd() *cobra.Command {
	var (
		unique     bool
		concurrent bool
		method     string
		where      string
	)

	cmd := &cobra.Command{
		Use:   "create <name> <table> <columns>",
		Short: "Create a secondary index",
		Long: `Create a secondary index on a logical table.

Columns are comma-separated; append :desc for descending order. Concurrent
builds avoid long table locks and automatically fall back to a blocking build
where the execution context forbids them.`,
		Example: `  # Composite filter+sort index, built without locking the table
  evo indexes create idx_spans_trace_started spans trace_id,started_at:desc --concurrent

  # Unique partial index
  evo indexes create uniq_scores_trace_name scores trace_id,name --unique --where "value IS NOT NULL"`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			def := evolvedb.IndexDef{
				Name:       args[0],
				Table:      args[1],
				Columns:    parseIndexColumns(args[2]),
				Unique:     unique,
				Concurrent: concurrent,
				Method:     method,
				Where:      where,
			}

			if err := client.CreateIndex(def); err != nil {
				return err
			}
			fmt.Println(ui.Success("index " + def.Name + " ready"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&unique, "unique", false, "Enforce uniqueness on the indexed columns")
	cmd.Flags().BoolVar(&concurrent, "concurrent", false, "Build without locking writes (PostgreSQL)")
	cmd.Flags().StringVar(&method, "method", "", "Index access method (e.g. btree, gin)")
	cmd.Flags().StringVar(&where, "where", "", "Partial index predicate")
	return cmd
}

func indexesDropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop <name>",
		Short: "Drop a secondary index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.DropIndex(args[0]); err != nil {
				return err
			}
			fmt.Println(ui.Success("index " + args[0] + " dropped"))
			return nil
		},
	}
}

// parseIndexColumns parses "a,b:desc,c" into index columns.
func parseIndexColumns(s string) []evolvedb.IndexColumn {
	parts := strings.Split(s, ",")
	cols := make([]evolvedb.IndexColumn, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		name, dir, ok := strings.Cut(p, ":")
		cols = append(cols, evolvedb.IndexColumn{
			Name: name,
			Desc: ok && strings.EqualFold(dir, "desc"),
		})
	}
	return cols
}
