// Package store is a record-store core: CRUD operations dispatched through
// an ordered pipeline of lifecycle hooks, with persistence delegated to a
// pluggable Backend. Records are open maps against a single relational
// table; plugins attach behavior (validation, position maintenance) to the
// pipeline stages.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/idwrap"
)

// Config describes one store. Field names refer to body keys and table
// columns interchangeably.
type Config struct {
	// Table is the backing relation. Required.
	Table string

	// IDField names the record identifier. Defaults to "id".
	IDField string

	// PositionField names the ordering column. Defaults to "position".
	PositionField string

	// PositionFilter lists the partition-key fields that scope ordering.
	// Records sharing identical values for these fields form one ordered
	// group. Empty means the whole table is a single group.
	PositionFilter []string

	// BeforeIDField names the body field carrying the placement
	// directive. Defaults to "beforeId". The field is consumed by the
	// positioning plugin and never persisted.
	BeforeIDField string

	// IDFunc generates identifiers for inserts that carry none. Defaults
	// to ULID text ids.
	IDFunc func() string

	// Logger receives operational logging. Defaults to a discard logger.
	Logger *slog.Logger
}

// WithDefaults returns a copy of c with the defaults filled in.
func (c Config) WithDefaults() Config {
	if c.IDField == "" {
		c.IDField = "id"
	}
	if c.PositionField == "" {
		c.PositionField = "position"
	}
	if c.BeforeIDField == "" {
		c.BeforeIDField = "beforeId"
	}
	if c.IDFunc == nil {
		c.IDFunc = idwrap.NewText
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	return c
}

// Validate checks a defaulted config. Errors here are fatal: constructors
// refuse the config and the store never serves a request.
func (c Config) Validate() error {
	if c.Table == "" {
		return errors.New("store: config: table is required")
	}
	if c.IDField == c.PositionField {
		return fmt.Errorf("store: config: idField and positionField are both %q", c.IDField)
	}
	if c.BeforeIDField == c.PositionField {
		return fmt.Errorf("store: config: beforeIdField and positionField are both %q", c.PositionField)
	}
	seen := make(map[string]bool, len(c.PositionFilter))
	for _, f := range c.PositionFilter {
		if f == "" {
			return errors.New("store: config: positionFilter holds an empty field name")
		}
		if f == c.PositionField {
			return fmt.Errorf("store: config: positionFilter must not include the position field %q", f)
		}
		if seen[f] {
			return fmt.Errorf("store: config: positionFilter lists %q twice", f)
		}
		seen[f] = true
	}
	return nil
}

// Store dispatches CRUD requests through the hook pipeline and a Backend.
type Store struct {
	cfg     Config
	backend Backend
	hooks   *Hooks
	log     *slog.Logger
}

// New builds a store. hooks may be nil for a bare pipeline. The config is
// validated here; a store is never constructed from a bad one.
func New(cfg Config, backend Backend, hooks *Hooks) (*Store, error) {
	if backend == nil {
		return nil, ErrNilBackend
	}
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if hooks == nil {
		hooks = NewHooks()
	}
	return &Store{cfg: cfg, backend: backend, hooks: hooks, log: cfg.Logger}, nil
}

// Config returns the store's defaulted configuration.
func (s *Store) Config() Config {
	return s.cfg
}

// Backend returns the store's backend, unbound to any transaction.
func (s *Store) Backend() Backend {
	return s.backend
}

// Insert runs the create pipeline and returns the written record. When the
// body carries no identifier one is generated.
func (s *Store) Insert(ctx context.Context, body Body) (Record, error) {
	if body == nil {
		body = Body{}
	}
	req := &Request{Kind: KindCreate, Params: map[string]string{}, Body: body}
	return s.write(ctx, req, "")
}

// Update runs the update pipeline against an existing record. The prior row
// is fetched first and exposed to hooks as Request.Record; a missing id is
// ErrNotFound.
func (s *Store) Update(ctx context.Context, id string, body Body) (Record, error) {
	if body == nil {
		body = Body{}
	}
	req := &Request{Kind: KindUpdate, Params: map[string]string{}, Body: body}
	return s.write(ctx, req, id)
}

// Put upserts: it updates the record with the given id, or creates it when
// none exists.
func (s *Store) Put(ctx context.Context, id string, body Body) (Record, error) {
	if body == nil {
		body = Body{}
	}
	req := &Request{Kind: KindUpsert, Params: map[string]string{}, Body: body}
	return s.write(ctx, req, id)
}

// Delete removes a record. The prior row is fetched first so delete hooks
// can see what is going away.
func (s *Store) Delete(ctx context.Context, id string) error {
	req := &Request{Kind: KindDelete, Params: map[string]string{}, Body: Body{}}
	_, err := s.write(ctx, req, id)
	return err
}

// Get fetches one record and runs the after-read hooks on it.
func (s *Store) Get(ctx context.Context, id string) (Record, error) {
	rec, err := s.backend.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	req := &Request{
		Kind:    KindFetch,
		Params:  map[string]string{s.cfg.IDField: id},
		Record:  rec,
		Result:  rec,
		Backend: s.backend,
	}
	if err := s.hooks.run(ctx, req, StageAfterRead); err != nil {
		return nil, err
	}
	return req.Result, nil
}

// List fetches records matching q and runs the after-read hooks once over
// the result set.
func (s *Store) List(ctx context.Context, q Query) ([]Record, error) {
	rows, err := s.backend.List(ctx, q)
	if err != nil {
		return nil, err
	}
	req := &Request{
		Kind:    KindList,
		Params:  map[string]string{},
		Rows:    rows,
		Backend: s.backend,
	}
	if err := s.hooks.run(ctx, req, StageAfterRead); err != nil {
		return nil, err
	}
	return req.Rows, nil
}

// write drives the shared pipeline for all mutating kinds. When the backend
// supports transactions the whole pipeline, position work included, runs
// inside one; concurrent writers within a group serialize on it, never on
// in-process locks.
func (s *Store) write(ctx context.Context, req *Request, id string) (Record, error) {
	backend := s.backend
	if tb, ok := s.backend.(TxBackend); ok {
		tx, err := tb.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("store: begin %s on %s: %w", req.Kind, s.cfg.Table, err)
		}
		defer s.rollback(tx)
		backend = tb.TX(tx)
		req.Tx = tx
	}
	req.Backend = backend
	if id != "" {
		req.Params[s.cfg.IDField] = id
	}

	switch req.Kind {
	case KindUpdate, KindUpsert, KindDelete:
		rec, err := backend.Get(ctx, id)
		switch {
		case err == nil:
			req.Record = rec
		case errors.Is(err, ErrNotFound) && req.Kind == KindUpsert:
			// Upsert of a new id creates the row.
		default:
			return nil, err
		}
	}

	if req.Kind != KindDelete {
		if err := s.hooks.run(ctx, req, StageValidate); err != nil {
			return nil, err
		}
	}
	if err := s.hooks.run(ctx, req, StageBeforeWrite); err != nil {
		return nil, err
	}
	if err := s.persist(ctx, req, id); err != nil {
		return nil, err
	}
	if err := s.hooks.run(ctx, req, StageAfterWrite); err != nil {
		return nil, err
	}

	if req.Tx != nil {
		if err := req.Tx.Commit(); err != nil {
			return nil, fmt.Errorf("store: commit %s on %s: %w", req.Kind, s.cfg.Table, err)
		}
	}
	s.log.DebugContext(ctx, "store write",
		slog.String("table", s.cfg.Table),
		slog.String("kind", req.Kind.String()),
	)
	return req.Result, nil
}

// persist is the write step between the before- and after-write stages. It
// turns the body into a record and hands it to the backend.
func (s *Store) persist(ctx context.Context, req *Request, id string) error {
	switch req.Kind {
	case KindCreate:
		rec, err := DecodeBody(req.Body)
		if err != nil {
			return err
		}
		if _, ok := rec[s.cfg.IDField]; !ok {
			rec[s.cfg.IDField] = s.cfg.IDFunc()
		}
		if err := req.Backend.Insert(ctx, rec); err != nil {
			return err
		}
		req.Result = rec

	case KindUpdate, KindUpsert:
		changes, err := DecodeBody(req.Body)
		if err != nil {
			return err
		}
		delete(changes, s.cfg.IDField)
		if req.Record == nil {
			changes[s.cfg.IDField] = id
			if err := req.Backend.Insert(ctx, changes); err != nil {
				return err
			}
			req.Result = changes
			return nil
		}
		if err := req.Backend.Update(ctx, id, changes); err != nil {
			return err
		}
		rec, err := req.Backend.Get(ctx, id)
		if err != nil {
			return err
		}
		req.Result = rec

	case KindDelete:
		if err := req.Backend.Delete(ctx, id); err != nil {
			return err
		}
		req.Result = req.Record
	}
	return nil
}

// rollback is a no-op after commit; real rollback failures are logged, not
// returned, since the operation error is already on its way to the caller.
func (s *Store) rollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		s.log.Error("transaction rollback failed",
			slog.String("table", s.cfg.Table),
			slog.String("error", err.Error()),
		)
	}
}
