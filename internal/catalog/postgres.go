package catalog

import (
	"context"
	"database/sql"

	"github.com/hlop3z/evolvedb/internal/dialect"
	"github.com/hlop3z/evolvedb/internal/everr"
	"github.com/hlop3z/evolvedb/internal/schema"
)

type postgresCatalog struct {
	db      *sql.DB
	dialect dialect.Dialect
}

func (c *postgresCatalog) SchemaExists(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM pg_namespace WHERE nspname = $1)
	`, name).Scan(&exists)

	if err != nil {
		return false, everr.WrapSQL(err, "check namespace existence", name)
	}
	return exists, nil
}

func (c *postgresCatalog) TableExists(ctx context.Context, p schema.Physical) (bool, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pg_tables
			WHERE schemaname = COALESCE(NULLIF($1, ''), current_schema())
				AND tablename = $2
		)
	`, p.Schema, p.Table).Scan(&exists)

	if err != nil {
		return false, everr.WrapSQL(err, "check table existence", p.String())
	}
	return exists, nil
}

func (c *postgresCatalog) Columns(ctx context.Context, p schema.Physical) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema())
			AND table_name = $2
		ORDER BY ordinal_position
	`, p.Schema, p.Table)
	if err != nil {
		return nil, everr.WrapSQL(err, "list columns", p.String())
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, everr.WrapSQL(err, "scan column name", p.String())
		}
		columns = append(columns, name)
	}

	return columns, rows.Err()
}

func (c *postgresCatalog) ColumnType(ctx context.Context, p schema.Physical, column string) (string, bool, error) {
	var dataType string
	err := c.db.QueryRowContext(ctx, `
		SELECT data_type
		FROM information_schema.columns
		WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema())
			AND table_name = $2
			AND column_name = $3
	`, p.Schema, p.Table, column).Scan(&dataType)

	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, everr.WrapSQL(err, "inspect column type", p.String())
	}
	return dataType, true, nil
}

func (c *postgresCatalog) ConstraintExists(ctx context.Context, p schema.Physical, name string) (bool, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM information_schema.table_constraints
			WHERE table_schema = COALESCE(NULLIF($1, ''), current_schema())
				AND table_name = $2
				AND constraint_name = $3
		)
	`, p.Schema, p.Table, name).Scan(&exists)

	if err != nil {
		return false, everr.WrapSQL(err, "check constraint existence", p.String())
	}
	return exists, nil
}

func (c *postgresCatalog) IndexExists(ctx context.Context, namespace, name string) (bool, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM pg_indexes
			WHERE schemaname = COALESCE(NULLIF($1, ''), current_schema())
				AND indexname = $2
		)
	`, namespace, name).Scan(&exists)

	if err != nil {
		return false, everr.WrapSQL(err, "check index existence", name)
	}
	return exists, nil
}

// listIndexesQuery aggregates index columns into a Postgres array literal, in
// key order, alongside uniqueness, on-disk size and the full definition.
const listIndexesQuery = `
	SELECT
		i.relname AS index_name,
		t.relname AS table_name,
		ix.indisunique AS is_unique,
		array_agg(a.attname ORDER BY k.ord)::text AS columns,
		pg_relation_size(i.oid) AS size_bytes,
		pg_get_indexdef(i.oid) AS definition
	FROM pg_index ix
	JOIN pg_class t ON t.oid = ix.indrelid
	JOIN pg_class i ON i.oid = ix.indexrelid
	JOIN pg_namespace ns ON ns.oid = t.relnamespace
	JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord) ON TRUE
	JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
	WHERE ns.nspname = COALESCE(NULLIF($1, ''), current_schema())
		AND ($2 = '' OR t.relname = $2)
		AND NOT ix.indisprimary
	GROUP BY i.relname, t.relname, ix.indisunique, i.oid
	ORDER BY i.relname
`

func (c *postgresCatalog) ListIndexes(ctx context.Context, namespace, table string) ([]IndexInfo, error) {
	rows, err := c.db.QueryContext(ctx, listIndexesQuery, namespace, table)
	if err != nil {
		return nil, everr.WrapSQL(err, "list indexes", table)
	}
	defer rows.Close()

	var indexes []IndexInfo
	for rows.Next() {
		var info IndexInfo
		var columnsLit string

		if err := rows.Scan(&info.Name, &info.Table, &info.Unique, &columnsLit, &info.SizeBytes, &info.Definition); err != nil {
			return nil, everr.WrapSQL(err, "scan index", table)
		}

		info.Columns, err = ParseArrayLiteral(columnsLit)
		if err != nil {
			return nil, everr.Wrap(everr.ErrSQLExecution, err, "parse index column list").
				WithIndex(info.Name)
		}

		indexes = append(indexes, info)
	}

	return indexes, rows.Err()
}

// describeIndexQuery adds the access method and the cumulative usage counters
// from the statistics collector to the listing columns.
const describeIndexQuery = `
	SELECT
		i.relname AS index_name,
		t.relname AS table_name,
		ix.indisunique AS is_unique,
		array_agg(a.attname ORDER BY k.ord)::text AS columns,
		pg_relation_size(i.oid) AS size_bytes,
		pg_get_indexdef(i.oid) AS definition,
		am.amname AS method,
		COALESCE(MAX(s.idx_scan), 0) AS scans,
		COALESCE(MAX(s.idx_tup_read), 0) AS tuples_read,
		COALESCE(MAX(s.idx_tup_fetch), 0) AS tuples_fetched
	FROM pg_index ix
	JOIN pg_class t ON t.oid = ix.indrelid
	JOIN pg_class i ON i.oid = ix.indexrelid
	JOIN pg_am am ON am.oid = i.relam
	JOIN pg_namespace ns ON ns.oid = t.relnamespace
	JOIN LATERAL unnest(ix.indkey) WITH ORDINALITY AS k(attnum, ord) ON TRUE
	JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = k.attnum
	LEFT JOIN pg_stat_user_indexes s ON s.indexrelid = i.oid
	WHERE ns.nspname = COALESCE(NULLIF($1, ''), current_schema())
		AND i.relname = $2
	GROUP BY i.relname, t.relname, ix.indisunique, i.oid, am.amname
`

func (c *postgresCatalog) DescribeIndex(ctx context.Context, namespace, name string) (*IndexDetails, error) {
	var det IndexDetails
	var columnsLit string

	err := c.db.QueryRowContext(ctx, describeIndexQuery, namespace, name).Scan(
		&det.Name,
		&det.Table,
		&det.Unique,
		&columnsLit,
		&det.SizeBytes,
		&det.Definition,
		&det.Method,
		&det.Scans,
		&det.TuplesRead,
		&det.TuplesFetched,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, everr.WrapSQL(err, "describe index", name)
	}

	det.Columns, err = ParseArrayLiteral(columnsLit)
	if err != nil {
		return nil, everr.Wrap(everr.ErrSQLExecution, err, "parse index column list").
			WithIndex(name)
	}

	return &det, nil
}
