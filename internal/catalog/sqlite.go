package catalog

import (
	"context"
	"database/sql"

	"github.com/hlop3z/evolvedb/internal/dialect"
	"github.com/hlop3z/evolvedb/internal/everr"
	"github.com/hlop3z/evolvedb/internal/schema"
)

type sqliteCatalog struct {
	db      *sql.DB
	dialect dialect.Dialect
}

// physName folds the namespace prefix the same way the SQLite dialect does.
func (c *sqliteCatalog) physName(p schema.Physical) string {
	if p.Schema == "" {
		return p.Table
	}
	return p.Schema + "_" + p.Table
}

// SchemaExists always reports true: SQLite has no schema namespaces, the
// prefix convention needs no creation step.
func (c *sqliteCatalog) SchemaExists(ctx context.Context, name string) (bool, error) {
	return true, nil
}

func (c *sqliteCatalog) TableExists(ctx context.Context, p schema.Physical) (bool, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM sqlite_master
			WHERE type = 'table' AND name = ?
		)
	`, c.physName(p)).Scan(&exists)

	if err != nil {
		return false, everr.WrapSQL(err, "check table existence", p.String())
	}
	return exists, nil
}

func (c *sqliteCatalog) Columns(ctx context.Context, p schema.Physical) ([]string, error) {
	// PRAGMA table_info returns: cid, name, type, notnull, dflt_value, pk
	rows, err := c.db.QueryContext(ctx,
		"PRAGMA table_info("+c.dialect.QuoteIdent(c.physName(p))+")")
	if err != nil {
		return nil, everr.WrapSQL(err, "list columns", p.String())
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var cid, notNull, pk int
		var name, dataType string
		var defaultVal sql.NullString

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultVal, &pk); err != nil {
			return nil, everr.WrapSQL(err, "scan column", p.String())
		}
		columns = append(columns, name)
	}

	return columns, rows.Err()
}

func (c *sqliteCatalog) ColumnType(ctx context.Context, p schema.Physical, column string) (string, bool, error) {
	rows, err := c.db.QueryContext(ctx,
		"PRAGMA table_info("+c.dialect.QuoteIdent(c.physName(p))+")")
	if err != nil {
		return "", false, everr.WrapSQL(err, "inspect column type", p.String())
	}
	defer rows.Close()

	for rows.Next() {
		var cid, notNull, pk int
		var name, dataType string
		var defaultVal sql.NullString

		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultVal, &pk); err != nil {
			return "", false, everr.WrapSQL(err, "scan column", p.String())
		}
		if name == column {
			return dataType, true, nil
		}
	}

	return "", false, rows.Err()
}

// ConstraintExists checks the unique index standing in for the constraint,
// since SQLite tightens uniqueness through indexes rather than ALTER TABLE.
func (c *sqliteCatalog) ConstraintExists(ctx context.Context, p schema.Physical, name string) (bool, error) {
	return c.IndexExists(ctx, p.Schema, name)
}

func (c *sqliteCatalog) IndexExists(ctx context.Context, namespace, name string) (bool, error) {
	var exists bool
	err := c.db.QueryRowContext(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM sqlite_master
			WHERE type = 'index' AND name = ?
		)
	`, name).Scan(&exists)

	if err != nil {
		return false, everr.WrapSQL(err, "check index existence", name)
	}
	return exists, nil
}

func (c *sqliteCatalog) ListIndexes(ctx context.Context, namespace, table string) ([]IndexInfo, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT name, tbl_name, COALESCE(sql, '')
		FROM sqlite_master
		WHERE type = 'index'
			AND name NOT LIKE 'sqlite_%'
			AND (? = '' OR tbl_name = ?)
		ORDER BY name
	`, table, table)
	if err != nil {
		return nil, everr.WrapSQL(err, "list indexes", table)
	}
	defer rows.Close()

	var indexes []IndexInfo
	for rows.Next() {
		var info IndexInfo
		if err := rows.Scan(&info.Name, &info.Table, &info.Definition); err != nil {
			return nil, everr.WrapSQL(err, "scan index", table)
		}
		indexes = append(indexes, info)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// PRAGMA statements cannot join; fill columns and uniqueness per index.
	for i := range indexes {
		if err := c.fillIndex(ctx, &indexes[i]); err != nil {
			return nil, err
		}
	}

	return indexes, nil
}

func (c *sqliteCatalog) DescribeIndex(ctx context.Context, namespace, name string) (*IndexDetails, error) {
	infos, err := c.ListIndexes(ctx, namespace, "")
	if err != nil {
		return nil, err
	}
	for _, info := range infos {
		if info.Name == name {
			// SQLite keeps no per-index usage statistics; counters stay zero.
			return &IndexDetails{IndexInfo: info, Method: "btree"}, nil
		}
	}
	return nil, nil
}

// fillIndex populates Columns and Unique from PRAGMA index_info / index_list.
func (c *sqliteCatalog) fillIndex(ctx context.Context, info *IndexInfo) error {
	rows, err := c.db.QueryContext(ctx,
		"PRAGMA index_info("+c.dialect.QuoteIdent(info.Name)+")")
	if err != nil {
		return everr.WrapSQL(err, "inspect index columns", info.Table)
	}
	defer rows.Close()

	for rows.Next() {
		var seqno, cid int
		var colName sql.NullString
		if err := rows.Scan(&seqno, &cid, &colName); err != nil {
			return everr.WrapSQL(err, "scan index column", info.Table)
		}
		if colName.Valid {
			info.Columns = append(info.Columns, colName.String)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	listRows, err := c.db.QueryContext(ctx,
		"PRAGMA index_list("+c.dialect.QuoteIdent(info.Table)+")")
	if err != nil {
		return everr.WrapSQL(err, "inspect index list", info.Table)
	}
	defer listRows.Close()

	for listRows.Next() {
		var seq, unique, partial int
		var name, origin string
		if err := listRows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return everr.WrapSQL(err, "scan index list", info.Table)
		}
		if name == info.Name {
			info.Unique = unique == 1
		}
	}

	return listRows.Err()
}
