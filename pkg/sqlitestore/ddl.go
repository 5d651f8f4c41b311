package sqlitestore

import (
	"context"
	"fmt"
	"strings"
)

// Column declares one user column for CreateTable.
type Column struct {
	Name    string
	Type    string // TEXT, INTEGER, REAL, BLOB or NUMERIC
	NotNull bool
}

var columnTypes = map[string]bool{
	"TEXT":    true,
	"INTEGER": true,
	"REAL":    true,
	"BLOB":    true,
	"NUMERIC": true,
}

// CreateTable creates the backing table when it does not exist yet: a TEXT
// primary key under the id field, an INTEGER position column, the given user
// columns, and a covering index over (partition keys..., position) for the
// group-scoped queries the ordering engine issues. Every partition-key field
// must appear in cols.
func (b *Backend) CreateTable(ctx context.Context, cols []Column) error {
	defs := []string{
		b.cfg.IDField + " TEXT PRIMARY KEY",
		b.cfg.PositionField + " INTEGER",
	}
	seen := map[string]bool{b.cfg.IDField: true, b.cfg.PositionField: true}
	for _, c := range cols {
		if err := validIdent(c.Name); err != nil {
			return err
		}
		if seen[c.Name] {
			continue
		}
		typ := strings.ToUpper(c.Type)
		if typ == "" {
			typ = "TEXT"
		}
		if !columnTypes[typ] {
			return fmt.Errorf("sqlitestore: column %s: unsupported type %q", c.Name, c.Type)
		}
		def := c.Name + " " + typ
		if c.NotNull {
			def += " NOT NULL"
		}
		defs = append(defs, def)
		seen[c.Name] = true
	}
	for _, f := range b.cfg.PositionFilter {
		if !seen[f] {
			return fmt.Errorf("sqlitestore: create %s: positionFilter field %q missing from columns", b.cfg.Table, f)
		}
	}

	create := "CREATE TABLE IF NOT EXISTS " + b.cfg.Table + " (" + strings.Join(defs, ", ") + ")"
	if _, err := b.db.ExecContext(ctx, create); err != nil {
		return fmt.Errorf("sqlitestore: create %s: %w", b.cfg.Table, err)
	}

	indexCols := append(append([]string{}, b.cfg.PositionFilter...), b.cfg.PositionField)
	index := "CREATE INDEX IF NOT EXISTS idx_" + b.cfg.Table + "_" + b.cfg.PositionField +
		" ON " + b.cfg.Table + " (" + strings.Join(indexCols, ", ") + ")"
	if _, err := b.db.ExecContext(ctx, index); err != nil {
		return fmt.Errorf("sqlitestore: index %s: %w", b.cfg.Table, err)
	}
	return nil
}
