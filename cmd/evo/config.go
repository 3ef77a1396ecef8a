package main

import (
	"github.com/hlop3z/evolvedb/internal/config"
	"github.com/hlop3z/evolvedb/internal/schema"
	"github.com/hlop3z/evolvedb/pkg/evolvedb"
)

// loadConfig loads configuration from file, env vars, and CLI flags.
// Precedence: CLI flags > env vars > config file > defaults
func loadConfig() (*config.File, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, err
	}

	// Override with CLI flags (highest priority)
	if databaseURL != "" {
		cfg.DatabaseURL = databaseURL
	}
	if namespace != "" {
		cfg.Namespace = namespace
	}

	return cfg, nil
}

// newClient creates an evolvedb client from config.
func newClient() (*evolvedb.Client, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return clientFromConfig(cfg)
}

// clientFromConfig creates an evolvedb client from an already-merged config.
func clientFromConfig(cfg *config.File) (*evolvedb.Client, error) {
	if cfg.DatabaseURL == "" {
		return nil, evolvedb.ErrMissingDatabaseURL
	}

	opts := []evolvedb.Option{
		evolvedb.WithDatabaseURL(cfg.DatabaseURL),
		evolvedb.WithNamespace(cfg.Namespace),
		evolvedb.WithTableOverrides(cfg.TableOverrides),
		evolvedb.WithIndexes(toIndexDefs(cfg.Indexes)...),
	}

	if cfg.Dialect != "" {
		opts = append(opts, evolvedb.WithDialect(cfg.Dialect))
	}
	if cfg.AutoDedupe {
		opts = append(opts, evolvedb.WithAutoDedupe())
	}

	return evolvedb.New(opts...)
}

// toIndexDefs converts config index definitions to the public API form.
func toIndexDefs(defs []schema.Index) []evolvedb.IndexDef {
	out := make([]evolvedb.IndexDef, len(defs))
	for i, d := range defs {
		cols := make([]evolvedb.IndexColumn, len(d.Columns))
		for j, c := range d.Columns {
			cols[j] = evolvedb.IndexColumn{Name: c.Name, Desc: c.Desc}
		}
		out[i] = evolvedb.IndexDef{
			Name:          d.Name,
			Table:         d.Table,
			Columns:       cols,
			Unique:        d.Unique,
			Concurrent:    d.Concurrent,
			Method:        d.Method,
			Where:         d.Where,
			StorageParams: d.StorageParams,
			Tablespace:    d.Tablespace,
		}
	}
	return out
}
