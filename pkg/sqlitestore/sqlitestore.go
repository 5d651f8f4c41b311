// Package sqlitestore is the relational storage backend: open-map records in
// a single sqlite table, with the position primitives the ordering engine
// needs. SQL statements are assembled dynamically from validated identifiers
// with all values parameterized.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/store"
)

// dbtx is satisfied by *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Backend implements store.TxBackend over one sqlite table.
type Backend struct {
	db  dbtx
	sdb *sql.DB
	cfg store.Config
}

// Open opens (or creates) a sqlite database ready for concurrent store use:
// immediate transactions, WAL journaling, foreign keys on, a busy timeout,
// and a single pooled connection so writers queue instead of erroring.
func Open(ctx context.Context, path string) (*sql.DB, error) {
	dsn := path
	if !strings.HasPrefix(path, "file:") {
		dsn = "file:" + path + "?mode=rwc&_txlock=immediate"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA foreign_keys=ON",
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlitestore: %s: %w", pragma, err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitestore: ping %s: %w", path, err)
	}
	return db, nil
}

// New builds a backend for one table. Every identifier the configuration
// will ever put into SQL text is validated here; a bad config never yields a
// working backend.
func New(db *sql.DB, cfg store.Config) (*Backend, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	for _, name := range append([]string{cfg.Table, cfg.IDField, cfg.PositionField}, cfg.PositionFilter...) {
		if err := validIdent(name); err != nil {
			return nil, err
		}
	}
	return &Backend{db: db, sdb: db, cfg: cfg}, nil
}

// Begin opens the transaction a write operation runs in. sqlite runs every
// transaction serializable; with _txlock=immediate the write lock is taken
// here rather than at the first write.
func (b *Backend) Begin(ctx context.Context) (*sql.Tx, error) {
	return b.sdb.BeginTx(ctx, nil)
}

// TX returns a backend bound to tx, satisfying store.TxBackend.
func (b *Backend) TX(tx *sql.Tx) store.Backend {
	return b.WithTx(tx)
}

// WithTx is TX with a concrete return for callers composing their own
// transactions.
func (b *Backend) WithTx(tx *sql.Tx) *Backend {
	clone := *b
	clone.db = tx
	return &clone
}

func (b *Backend) Insert(ctx context.Context, rec store.Record) error {
	cols := sortedKeys(rec)
	if len(cols) == 0 {
		return fmt.Errorf("sqlitestore: insert into %s: empty record", b.cfg.Table)
	}
	args := make([]any, 0, len(cols))
	marks := make([]string, 0, len(cols))
	for _, c := range cols {
		if err := validIdent(c); err != nil {
			return err
		}
		v, err := bindValue(c, rec[c])
		if err != nil {
			return err
		}
		args = append(args, v)
		marks = append(marks, "?")
	}
	q := "INSERT INTO " + b.cfg.Table + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ")"
	if _, err := b.db.ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("sqlitestore: insert into %s: %w", b.cfg.Table, err)
	}
	return nil
}

func (b *Backend) Update(ctx context.Context, id string, changes store.Record) error {
	if len(changes) == 0 {
		return nil
	}
	cols := sortedKeys(changes)
	sets := make([]string, 0, len(cols))
	args := make([]any, 0, len(cols)+1)
	for _, c := range cols {
		if err := validIdent(c); err != nil {
			return err
		}
		v, err := bindValue(c, changes[c])
		if err != nil {
			return err
		}
		sets = append(sets, c+" = ?")
		args = append(args, v)
	}
	args = append(args, id)
	q := "UPDATE " + b.cfg.Table + " SET " + strings.Join(sets, ", ") + " WHERE " + b.cfg.IDField + " = ?"
	res, err := b.db.ExecContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("sqlitestore: update %s: %w", b.cfg.Table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlitestore: update %s: rows affected: %w", b.cfg.Table, err)
	}
	if n == 0 {
		return fmt.Errorf("sqlitestore: update %s id %s: %w", b.cfg.Table, id, store.ErrNotFound)
	}
	return nil
}

func (b *Backend) Delete(ctx context.Context, id string) error {
	q := "DELETE FROM " + b.cfg.Table + " WHERE " + b.cfg.IDField + " = ?"
	res, err := b.db.ExecContext(ctx, q, id)
	if err != nil {
		return fmt.Errorf("sqlitestore: delete from %s: %w", b.cfg.Table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlitestore: delete from %s: rows affected: %w", b.cfg.Table, err)
	}
	if n == 0 {
		return fmt.Errorf("sqlitestore: delete from %s id %s: %w", b.cfg.Table, id, store.ErrNotFound)
	}
	return nil
}

func (b *Backend) Get(ctx context.Context, id string) (store.Record, error) {
	q := "SELECT * FROM " + b.cfg.Table + " WHERE " + b.cfg.IDField + " = ? LIMIT 1"
	rows, err := b.db.QueryContext(ctx, q, id)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: get from %s: %w", b.cfg.Table, err)
	}
	defer rows.Close()
	recs, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("sqlitestore: get from %s id %s: %w", b.cfg.Table, id, store.ErrNotFound)
	}
	return recs[0], nil
}

func (b *Backend) List(ctx context.Context, q store.Query) ([]store.Record, error) {
	where, args, err := compileGroup(q.Group)
	if err != nil {
		return nil, err
	}
	sb := strings.Builder{}
	sb.WriteString("SELECT * FROM ")
	sb.WriteString(b.cfg.Table)
	sb.WriteString(" WHERE ")
	sb.WriteString(where)
	if q.OrderByPos {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(b.cfg.PositionField)
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT ?")
		args = append(args, int64(q.Limit))
	}
	rows, err := b.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: list %s: %w", b.cfg.Table, err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (b *Backend) MaxPosition(ctx context.Context, g store.Group) (int64, bool, error) {
	where, args, err := compileGroup(g)
	if err != nil {
		return 0, false, err
	}
	q := "SELECT MAX(" + b.cfg.PositionField + ") FROM " + b.cfg.Table + " WHERE " + where
	var max sql.NullInt64
	if err := b.db.QueryRowContext(ctx, q, args...).Scan(&max); err != nil {
		return 0, false, fmt.Errorf("sqlitestore: max position in %s: %w", b.cfg.Table, err)
	}
	if !max.Valid {
		return 0, false, nil
	}
	return max.Int64, true, nil
}

func (b *Backend) PositionOf(ctx context.Context, id string, g store.Group) (int64, bool, error) {
	where, args, err := compileGroup(g)
	if err != nil {
		return 0, false, err
	}
	q := "SELECT COALESCE(" + b.cfg.PositionField + ", 0) FROM " + b.cfg.Table +
		" WHERE " + b.cfg.IDField + " = ? AND " + where + " LIMIT 1"
	var pos int64
	err = b.db.QueryRowContext(ctx, q, append([]any{id}, args...)...).Scan(&pos)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("sqlitestore: position of %s in %s: %w", id, b.cfg.Table, err)
	}
	return pos, true, nil
}

// ShiftFrom vacates a slot: one set-based update, no per-row ordering to
// depend on.
func (b *Backend) ShiftFrom(ctx context.Context, g store.Group, from int64) error {
	where, args, err := compileGroup(g)
	if err != nil {
		return err
	}
	q := "UPDATE " + b.cfg.Table + " SET " + b.cfg.PositionField + " = " + b.cfg.PositionField +
		" + 1 WHERE " + where + " AND " + b.cfg.PositionField + " >= ?"
	if _, err := b.db.ExecContext(ctx, q, append(args, from)...); err != nil {
		return fmt.Errorf("sqlitestore: shift %s: %w", b.cfg.Table, err)
	}
	return nil
}
