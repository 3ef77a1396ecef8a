package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hlop3z/evolvedb/internal/ui"
)

// statusCmd shows the managed tables and their indexes.
func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show namespace, managed tables and indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newClient()
			if err != nil {
				return err
			}
			defer client.Close()

			cfg := client.Config()

			cv := &ui.ContextView{Pairs: map[string]string{
				"dialect":   client.Dialect(),
				"namespace": orDefault(cfg.Namespace, "(default)"),
				"tables":    strings.Join(client.Tables(), ", "),
			}}
			fmt.Print(cv.Render())

			indexes, err := client.ListIndexes("")
			if err != nil {
				return err
			}
			if len(indexes) == 0 {
				fmt.Println(ui.Dim("  no secondary indexes"))
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

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}

// formatBytes renders a byte count in human-readable form.
func formatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1f GiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KiB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%d B", n)
	}
}
