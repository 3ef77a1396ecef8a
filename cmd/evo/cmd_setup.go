package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hlop3z/evolvedb/internal/ui"
)

// setupCmd runs the full startup migration sequence.
func setupCmd() *cobra.Command {
	var autoDedupe bool

	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Run the full startup migration sequence",
		Long: `Run the startup migration sequence against the configured database.

The sequence ensures the schema namespace, synchronizes every platform table
(additive columns only), promotes legacy column types, tightens uniqueness
constraints and applies the automatic index set. Every step is idempotent;
setup is safe to rerun on every deploy.`,
		Example: `  # Run the sequence with the config file's settings
  evo setup

  # Resolve duplicate rows automatically before tightening constraints
  evo setup --auto-dedupe`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("auto-dedupe") {
				cfg.AutoDedupe = autoDedupe
			}

			client, err := clientFromConfig(cfg)
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Setup(); err != nil {
				return err
			}

			fmt.Println(ui.Success("setup complete"))
			fmt.Println(ui.Dim(fmt.Sprintf("  dialect: %s, tables: %d",
				client.Dialect(), len(client.Tables()))))
			return nil
		},
	}

	cmd.Flags().BoolVar(&autoDedupe, "auto-dedupe", false, "Resolve duplicate rows before tightening uniqueness constraints")
	return cmd
}
