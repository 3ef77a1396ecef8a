// Package main provides the CLI for the evolvedb schema-evolution engine.
// evo keeps a fixed set of platform tables in sync with their declared shape:
// namespaces, additive columns, column type promotions, deduplication,
// uniqueness constraints and secondary indexes.
//
// Usage:
//
//	evo setup                    # Run the full startup migration sequence
//	evo status                   # Show namespace, tables and indexes
//	evo promote <table> <column> <type>
//	evo dedupe <table> <columns>
//	evo indexes list [table]
//	evo indexes describe <name>
//	evo indexes create ...
//	evo indexes drop <name>
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hlop3z/evolvedb/internal/ui"

	// Database drivers
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// version is set via ldflags during build: -ldflags="-X main.version=v1.0.0"
var version = "dev"

// Global flags
var (
	databaseURL string
	configFile  string
	namespace   string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "evo",
		Short:   "Schema-evolution and index-lifecycle engine",
		Long:    `evo manages schema evolution for the platform tables of a multi-tenant application: additive table sync, column type promotion, deduplication, uniqueness constraints and index lifecycle.`,
		Version: version,
	}

	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVarP(&databaseURL, "database-url", "d", "", "Database connection URL")
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "evo.yaml", "Path to config file")
	rootCmd.PersistentFlags().StringVarP(&namespace, "namespace", "n", "", "Schema namespace for managed tables")

	rootCmd.AddCommand(
		setupCmd(),
		statusCmd(),
		promoteCmd(),
		dedupeCmd(),
		indexesCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, ui.FormatError(err))
		os.Exit(1)
	}
}
