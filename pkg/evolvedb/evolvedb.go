// Package evolvedb provides the public API for the evolvedb schema-evolution
// and index-lifecycle engine. It keeps a fixed set of platform tables in sync
// with their declared shape at process start: namespaces, additive columns,
// column type promotions, deduplication, uniqueness constraints and indexes.
//
// Create a new client with New() and close it with Close() when done.
//
// Example:
//
//	client, err := evolvedb.New(
//	    evolvedb.WithDatabaseURL("postgres://localhost/mydb"),
//	    evolvedb.WithNamespace("app"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	if err := client.Setup(); err != nil {
//	    log.Fatal(err)
//	}
package evolvedb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hlop3z/evolvedb/internal/dialect"
	"github.com/hlop3z/evolvedb/internal/engine"
	"github.com/hlop3z/evolvedb/internal/schema"
)

// Client is the main entry point for the evolvedb engine.
type Client struct {
	db      *sql.DB
	dialect dialect.Dialect
	config  *Config
	store   *engine.Store
}

// New creates a new Client with the given options.
//
// At minimum, WithDatabaseURL must be provided.
// The dialect will be auto-detected from the URL if not explicitly set.
func New(opts ...Option) (*Client, error) {
	cfg := &Config{
		Timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.DatabaseURL == "" {
		return nil, ErrMissingDatabaseURL
	}

	if cfg.Dialect == "" {
		cfg.Dialect = detectDialect(cfg.DatabaseURL)
	}

	d := dialect.Get(cfg.Dialect)
	if d == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDialect, cfg.Dialect)
	}

	db, err := openDatabase(cfg.DatabaseURL, cfg.Dialect)
	if err != nil {
		return nil, &ConnectionError{
			URL:     redactURL(cfg.DatabaseURL),
			Dialect: cfg.Dialect,
			Cause:   err,
		}
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &ConnectionError{
			URL:     redactURL(cfg.DatabaseURL),
			Dialect: cfg.Dialect,
			Cause:   err,
		}
	}

	// Keep session time zone stable so timestamp comparisons and the shadow
	// column triggers behave the same everywhere.
	if cfg.Dialect == "postgres" {
		if _, err := db.ExecContext(ctx, "SET timezone = 'UTC'"); err != nil {
			db.Close()
			return nil, &ConnectionError{
				URL:     redactURL(cfg.DatabaseURL),
				Dialect: cfg.Dialect,
				Cause:   fmt.Errorf("failed to set UTC timezone: %w", err),
			}
		}
	}

	store := engine.New(db, d, engine.Options{
		Namespace:      cfg.Namespace,
		TableOverrides: cfg.TableOverrides,
		AutoDedupe:     cfg.AutoDedupe,
		CustomIndexes:  toSchemaIndexes(cfg.Indexes),
		Logger:         cfg.Logger,
	})

	return &Client{
		db:      db,
		dialect: d,
		config:  cfg,
		store:   store,
	}, nil
}

// Close closes the database connection and releases resources.
func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// DB returns the underlying database connection.
// Use with caution - prefer the high-level methods when possible.
func (c *Client) DB() *sql.DB {
	return c.db
}

// Dialect returns the database dialect name.
func (c *Client) Dialect() string {
	return c.dialect.Name()
}

// Config returns a copy of the client configuration.
func (c *Client) Config() Config {
	return *c.config
}

// context returns a context with the configured timeout.
func (c *Client) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), c.config.Timeout)
}

// Setup runs the full startup migration sequence: ensure the namespace,
// synchronize every platform table, run one-time column type promotions,
// tighten uniqueness constraints (deduplicating first when auto-dedupe is on)
// and apply automatic and custom indexes. Every step is idempotent; Setup is
// meant to run on every process start.
func (c *Client) Setup() error {
	ctx, cancel := c.context()
	defer cancel()
	return c.store.Setup(ctx)
}

// PromoteColumnType widens a column to the target type in place, using a cast
// of the existing values. It reports whether a change was made; promoting a
// column that already has the target type is a no-op.
func (c *Client) PromoteColumnType(table, column string, target ColumnType) (PromoteResult, error) {
	st := schema.ColumnType(target)
	if !st.Valid() {
		return PromoteResult{}, fmt.Errorf("evolvedb: unknown column type %q", target)
	}

	ctx, cancel := c.context()
	defer cancel()

	res, err := c.store.Promote.PromoteColumnType(ctx, table, column, st)
	if err != nil {
		return PromoteResult{}, err
	}
	return PromoteResult{Migrated: res.Migrated, PreviousType: res.PreviousType}, nil
}

// Deduplicate groups rows of table by keyColumns and deletes every row of each
// group except the one the keep policy selects.
func (c *Client) Deduplicate(table string, keyColumns []string, policy KeepPolicy) (DedupResult, error) {
	ctx, cancel := c.context()
	defer cancel()

	res, err := c.store.Dedupe.Deduplicate(ctx, table, keyColumns, policy.toEngine())
	if err != nil {
		return DedupResult{}, err
	}
	return DedupResult{Success: res.Success, DuplicatesRemoved: res.DuplicatesRemoved}, nil
}

// CreateIndex builds the given index. No-op if an index of that name already
// exists in the namespace.
func (c *Client) CreateIndex(def IndexDef) error {
	ctx, cancel := c.context()
	defer cancel()

	ix := def.toSchema()
	return c.store.Indexes.CreateIndex(ctx, &ix)
}

// DropIndex removes the named index. No-op if it does not exist.
func (c *Client) DropIndex(name string) error {
	ctx, cancel := c.context()
	defer cancel()
	return c.store.Indexes.DropIndex(ctx, name)
}

// ListIndexes returns every secondary index in the namespace, optionally
// restricted to one logical table (empty string means all).
func (c *Client) ListIndexes(table string) ([]IndexInfo, error) {
	ctx, cancel := c.context()
	defer cancel()

	infos, err := c.store.Indexes.ListIndexes(ctx, table)
	if err != nil {
		return nil, err
	}
	out := make([]IndexInfo, len(infos))
	for i, in := range infos {
		out[i] = toIndexInfo(in)
	}
	return out, nil
}

// DescribeIndex returns full details for one index including access method
// and cumulative usage counters, or nil if the index does not exist.
func (c *Client) DescribeIndex(name string) (*IndexDetails, error) {
	ctx, cancel := c.context()
	defer cancel()

	det, err := c.store.Indexes.DescribeIndex(ctx, name)
	if err != nil || det == nil {
		return nil, err
	}
	return &IndexDetails{
		IndexInfo:     toIndexInfo(det.IndexInfo),
		Method:        det.Method,
		Scans:         det.Scans,
		TuplesRead:    det.TuplesRead,
		TuplesFetched: det.TuplesFetched,
	}, nil
}

// Tables returns the names of the built-in platform tables.
func (c *Client) Tables() []string {
	tables := c.store.Tables()
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = t.Name
	}
	return names
}

// detectDialect auto-detects the database dialect from the connection URL.
func detectDialect(url string) string {
	url = strings.ToLower(url)

	switch {
	case strings.HasPrefix(url, "postgres://"),
		strings.HasPrefix(url, "postgresql://"):
		return "postgres"

	case strings.HasPrefix(url, "sqlite://"),
		strings.HasPrefix(url, "sqlite3://"),
		strings.HasPrefix(url, "file:"):
		return "sqlite"

	case strings.HasSuffix(url, ".db"),
		strings.HasSuffix(url, ".sqlite"),
		strings.HasSuffix(url, ".sqlite3"):
		return "sqlite"
	}

	// Default to postgres if no match
	return "postgres"
}

// openDatabase opens a database connection based on the dialect.
func openDatabase(url, dialectName string) (*sql.DB, error) {
	var driverName string
	var dsn string

	switch dialectName {
	case "postgres":
		driverName = "postgres"
		dsn = url

	case "sqlite":
		driverName = "sqlite"
		dsn = convertSQLiteURL(url)

	default:
		return nil, fmt.Errorf("unsupported dialect: %s", dialectName)
	}

	return sql.Open(driverName, dsn)
}

// convertSQLiteURL converts a sqlite:// URL to a file path, or returns the
// path as-is. Query parameters (e.g. ?mode=memory) pass through untouched.
func convertSQLiteURL(url string) string {
	url = strings.TrimPrefix(url, "sqlite://")
	url = strings.TrimPrefix(url, "sqlite3://")
	url = strings.TrimPrefix(url, "file:")
	return url
}

// redactURL masks the password portion of a connection URL for display.
func redactURL(url string) string {
	start := strings.Index(url, "://")
	if start == -1 {
		return url
	}
	start += 3

	end := strings.Index(url[start:], "@")
	if end == -1 {
		return url
	}
	end += start

	credentials := url[start:end]
	if colonIdx := strings.Index(credentials, ":"); colonIdx != -1 {
		user := credentials[:colonIdx]
		return url[:start] + user + ":***@" + url[end+1:]
	}

	return url
}
