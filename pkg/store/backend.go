package store

import (
	"context"
	"database/sql"
	"fmt"

	json "github.com/goccy/go-json"
)

// Record is a stored row keyed by column name, as scanned back from a
// backend.
type Record = map[string]any

// Body is an incoming payload. Values stay raw until the write step so hooks
// can inspect or rewrite individual fields without re-encoding the rest.
type Body = map[string]json.RawMessage

// GroupField is one partition-key constraint. A nil Value selects rows where
// the column is NULL; NULL is a matchable group value, not a wildcard.
type GroupField struct {
	Name  string
	Value any
}

// Group is an ordered set of partition-key constraints. The empty Group
// matches every row in the table.
type Group []GroupField

// Query selects rows for List.
type Query struct {
	Group      Group
	OrderByPos bool
	Limit      int
}

// Backend is the storage plugin surface. Implementations persist records in
// a single relational table and answer the position primitives the ordering
// engine is built on.
type Backend interface {
	Insert(ctx context.Context, rec Record) error
	Update(ctx context.Context, id string, changes Record) error
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (Record, error)
	List(ctx context.Context, q Query) ([]Record, error)

	// MaxPosition reports the highest position inside g. ok is false when
	// the group holds no positioned rows.
	MaxPosition(ctx context.Context, g Group) (max int64, ok bool, err error)

	// PositionOf reports the position of the row with the given id,
	// constrained to g. A row that exists in g without a position reports
	// position 0 with ok true; ok is false only when no such row exists.
	PositionOf(ctx context.Context, id string, g Group) (pos int64, ok bool, err error)

	// ShiftFrom increments the position of every row in g at or above
	// from, as one set-based update.
	ShiftFrom(ctx context.Context, g Group, from int64) error
}

// TxBackend is implemented by backends that can scope work to a database
// transaction. The store runs each write operation inside one transaction
// when the backend supports it; that transaction is what serializes
// concurrent writers within a group.
type TxBackend interface {
	Backend
	Begin(ctx context.Context) (*sql.Tx, error)
	TX(tx *sql.Tx) Backend
}

// Int64 normalizes the numeric representations a position value can take
// after a database scan or a JSON decode.
func Int64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case float64:
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}

// DecodeBody materializes a payload into a Record. JSON numbers come back as
// float64.
func DecodeBody(b Body) (Record, error) {
	rec := make(Record, len(b))
	for k, raw := range b {
		var v any
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, fmt.Errorf("store: decode body field %q: %w", k, err)
		}
		rec[k] = v
	}
	return rec, nil
}
