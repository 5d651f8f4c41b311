package position

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/store"
)

// Renumber rewrites the positions of every record in g to the dense sequence
// 1..N, preserving the current order. Inserts and moves only ever open gaps,
// deletes leave them behind; renumbering is maintenance, not something the
// engine needs for correctness.
//
// When the backend supports transactions the whole pass runs inside one.
// Returns the number of rows whose position changed.
func Renumber(ctx context.Context, b store.Backend, cfg store.Config, g store.Group) (int, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return 0, err
	}

	backend := b
	var tx *sql.Tx
	if tb, ok := b.(store.TxBackend); ok {
		var err error
		tx, err = tb.Begin(ctx)
		if err != nil {
			return 0, fmt.Errorf("position: begin renumber on %s: %w", cfg.Table, err)
		}
		defer rollbackQuiet(tx, cfg.Logger)
		backend = tb.TX(tx)
	}

	rows, err := backend.List(ctx, store.Query{Group: g, OrderByPos: true})
	if err != nil {
		return 0, err
	}

	changed := 0
	for i, rec := range rows {
		id, ok := rec[cfg.IDField].(string)
		if !ok || id == "" {
			return 0, fmt.Errorf("position: renumber on %s: record without %s", cfg.Table, cfg.IDField)
		}
		want := int64(i + 1)
		if cur, ok := store.Int64(rec[cfg.PositionField]); ok && cur == want {
			continue
		}
		if err := backend.Update(ctx, id, store.Record{cfg.PositionField: want}); err != nil {
			return 0, err
		}
		changed++
	}

	if tx != nil {
		if err := tx.Commit(); err != nil {
			return 0, fmt.Errorf("position: commit renumber on %s: %w", cfg.Table, err)
		}
	}
	cfg.Logger.DebugContext(ctx, "renumbered group",
		slog.String("table", cfg.Table),
		slog.Int("rows", len(rows)),
		slog.Int("changed", changed),
	)
	return changed, nil
}

func rollbackQuiet(tx *sql.Tx, log *slog.Logger) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Error("renumber rollback failed", slog.String("error", err.Error()))
	}
}
