// Package storetest provides an in-memory Backend for exercising store
// pipelines without a database. It mirrors the relational backend's
// observable behavior, including NULL group matching, but offers no
// transactions.
package storetest

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/store"
)

// Backend keeps records in a map guarded by one mutex. Individual calls are
// safe for concurrent use; multi-call sequences are not serialized, matching
// what a transactionless store can promise.
type Backend struct {
	idField  string
	posField string

	mu    sync.Mutex
	rows  map[string]store.Record
	order []string
}

func New(cfg store.Config) *Backend {
	cfg = cfg.WithDefaults()
	return &Backend{
		idField:  cfg.IDField,
		posField: cfg.PositionField,
		rows:     make(map[string]store.Record),
	}
}

func (b *Backend) Insert(_ context.Context, rec store.Record) error {
	id, ok := rec[b.idField].(string)
	if !ok || id == "" {
		return fmt.Errorf("storetest: insert without %s", b.idField)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.rows[id]; exists {
		return fmt.Errorf("storetest: duplicate id %s", id)
	}
	b.rows[id] = maps.Clone(rec)
	b.order = append(b.order, id)
	return nil
}

func (b *Backend) Update(_ context.Context, id string, changes store.Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.rows[id]
	if !ok {
		return fmt.Errorf("storetest: update %s: %w", id, store.ErrNotFound)
	}
	for k, v := range changes {
		rec[k] = v
	}
	return nil
}

func (b *Backend) Delete(_ context.Context, id string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.rows[id]; !ok {
		return fmt.Errorf("storetest: delete %s: %w", id, store.ErrNotFound)
	}
	delete(b.rows, id)
	for i, other := range b.order {
		if other == id {
			b.order = append(b.order[:i], b.order[i+1:]...)
			break
		}
	}
	return nil
}

func (b *Backend) Get(_ context.Context, id string) (store.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.rows[id]
	if !ok {
		return nil, fmt.Errorf("storetest: get %s: %w", id, store.ErrNotFound)
	}
	return maps.Clone(rec), nil
}

func (b *Backend) List(_ context.Context, q store.Query) ([]store.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]store.Record, 0, len(b.order))
	for _, id := range b.order {
		rec := b.rows[id]
		if !matches(rec, q.Group) {
			continue
		}
		out = append(out, maps.Clone(rec))
	}
	if q.OrderByPos {
		sort.SliceStable(out, func(i, j int) bool {
			pi, iok := store.Int64(out[i][b.posField])
			pj, jok := store.Int64(out[j][b.posField])
			if iok != jok {
				return !iok // unpositioned rows sort first, like SQL NULLs
			}
			return pi < pj
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func (b *Backend) MaxPosition(_ context.Context, g store.Group) (int64, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var max int64
	found := false
	for _, rec := range b.rows {
		if !matches(rec, g) {
			continue
		}
		pos, ok := store.Int64(rec[b.posField])
		if !ok {
			continue
		}
		if !found || pos > max {
			max = pos
			found = true
		}
	}
	return max, found, nil
}

func (b *Backend) PositionOf(_ context.Context, id string, g store.Group) (int64, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	rec, ok := b.rows[id]
	if !ok || !matches(rec, g) {
		return 0, false, nil
	}
	pos, _ := store.Int64(rec[b.posField])
	return pos, true, nil
}

func (b *Backend) ShiftFrom(_ context.Context, g store.Group, from int64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, rec := range b.rows {
		if !matches(rec, g) {
			continue
		}
		pos, ok := store.Int64(rec[b.posField])
		if !ok || pos < from {
			continue
		}
		rec[b.posField] = pos + 1
	}
	return nil
}

// Len reports the number of stored records.
func (b *Backend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.rows)
}

func matches(rec store.Record, g store.Group) bool {
	for _, f := range g {
		v, present := rec[f.Name]
		if f.Value == nil {
			if present && v != nil {
				return false
			}
			continue
		}
		if !present || !equalValue(v, f.Value) {
			return false
		}
	}
	return true
}

// equalValue compares loosely across the numeric representations that JSON
// decoding and position arithmetic produce.
func equalValue(a, b any) bool {
	if af, aok := toFloat(a); aok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}
