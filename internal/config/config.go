// Package config loads the evo.yaml configuration file.
//
// Precedence is applied by the caller: CLI flags > env vars > config file >
// defaults. This package handles the file and env layers.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hlop3z/evolvedb/internal/schema"
)

// File represents the evo.yaml configuration file.
type File struct {
	// DatabaseURL is the connection string. ${VAR} patterns are expanded
	// from the environment.
	DatabaseURL string `yaml:"database_url"`

	// Dialect forces a dialect instead of auto-detecting from the URL.
	Dialect string `yaml:"dialect"`

	// Namespace is the schema namespace all managed tables live in.
	Namespace string `yaml:"namespace"`

	// TableOverrides maps logical table names to physical ones.
	TableOverrides map[string]string `yaml:"table_overrides"`

	// AutoDedupe lets setup resolve duplicate rows before tightening
	// uniqueness constraints.
	AutoDedupe bool `yaml:"auto_dedupe"`

	// Indexes are custom index definitions applied after the automatic set.
	Indexes []schema.Index `yaml:"indexes"`
}

// Load reads and parses the config file at path. A missing file is not an
// error; it returns an empty config so env vars and flags still apply.
func Load(path string) (*File, error) {
	cfg := &File{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnv()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Handle env var interpolation in database_url
	cfg.DatabaseURL = os.Expand(cfg.DatabaseURL, os.Getenv)

	cfg.applyEnv()
	return cfg, nil
}

// applyEnv fills unset fields from environment variables.
func (f *File) applyEnv() {
	if f.DatabaseURL == "" {
		f.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if f.Namespace == "" {
		f.Namespace = os.Getenv("EVO_NAMESPACE")
	}
}
