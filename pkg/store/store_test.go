package store_test

import (
	"context"
	"errors"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/store"
	"github.com/mobily-enterprises/jsonreststores-3/pkg/store/storetest"
)

func newTestStore(t *testing.T, cfg store.Config, hooks *store.Hooks) (*store.Store, *storetest.Backend) {
	t.Helper()
	backend := storetest.New(cfg)
	st, err := store.New(cfg, backend, hooks)
	require.NoError(t, err, "failed to construct store")
	return st, backend
}

func body(t *testing.T, src string) store.Body {
	t.Helper()
	var b store.Body
	require.NoError(t, json.Unmarshal([]byte(src), &b), "failed to decode test body")
	return b
}

func TestStore_InsertGeneratesID(t *testing.T) {
	ctx := context.Background()
	st, backend := newTestStore(t, store.Config{Table: "tasks"}, nil)

	rec, err := st.Insert(ctx, body(t, `{"title":"write tests"}`))
	require.NoError(t, err, "insert failed")

	id, ok := rec["id"].(string)
	require.True(t, ok, "expected a string id, got %T", rec["id"])
	assert.NotEmpty(t, id)
	assert.Equal(t, "write tests", rec["title"])
	assert.Equal(t, 1, backend.Len())

	got, err := st.Get(ctx, id)
	require.NoError(t, err, "get after insert failed")
	assert.Equal(t, rec["title"], got["title"])
}

func TestStore_InsertKeepsExplicitID(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore(t, store.Config{Table: "tasks"}, nil)

	rec, err := st.Insert(ctx, body(t, `{"id":"task-1","title":"explicit"}`))
	require.NoError(t, err, "insert failed")
	assert.Equal(t, "task-1", rec["id"])
}

func TestStore_HookOrder(t *testing.T) {
	ctx := context.Background()
	hooks := store.NewHooks()

	var calls []string
	trace := func(label string) store.Hook {
		return func(_ context.Context, req *store.Request) error {
			calls = append(calls, label)
			assert.Equal(t, store.KindCreate, req.Kind)
			return nil
		}
	}
	hooks.Register(store.KindCreate, store.StageValidate, trace("validate-1"))
	hooks.Register(store.KindCreate, store.StageValidate, trace("validate-2"))
	hooks.Register(store.KindCreate, store.StageBeforeWrite, trace("before"))
	hooks.Register(store.KindCreate, store.StageAfterWrite, func(_ context.Context, req *store.Request) error {
		calls = append(calls, "after")
		assert.NotNil(t, req.Result, "write step must run before afterWrite")
		return nil
	})

	st, _ := newTestStore(t, store.Config{Table: "tasks"}, hooks)
	_, err := st.Insert(ctx, body(t, `{"title":"ordered"}`))
	require.NoError(t, err, "insert failed")
	assert.Equal(t, []string{"validate-1", "validate-2", "before", "after"}, calls)
}

func TestStore_HookErrorHaltsPipeline(t *testing.T) {
	ctx := context.Background()
	hooks := store.NewHooks()
	boom := errors.New("rejected")

	ranBeforeWrite := false
	hooks.Register(store.KindCreate, store.StageValidate, func(context.Context, *store.Request) error {
		return boom
	})
	hooks.Register(store.KindCreate, store.StageBeforeWrite, func(context.Context, *store.Request) error {
		ranBeforeWrite = true
		return nil
	})

	st, backend := newTestStore(t, store.Config{Table: "tasks"}, hooks)
	_, err := st.Insert(ctx, body(t, `{"title":"doomed"}`))
	require.ErrorIs(t, err, boom)
	assert.False(t, ranBeforeWrite, "later stage ran after a hook failure")
	assert.Equal(t, 0, backend.Len(), "failed insert must not persist")
}

func TestStore_HookCanRewriteBody(t *testing.T) {
	ctx := context.Background()
	hooks := store.NewHooks()
	hooks.Register(store.KindCreate, store.StageBeforeWrite, func(_ context.Context, req *store.Request) error {
		req.Body["status"] = json.RawMessage(`"open"`)
		delete(req.Body, "secret")
		return nil
	})

	st, _ := newTestStore(t, store.Config{Table: "tasks"}, hooks)
	rec, err := st.Insert(ctx, body(t, `{"title":"x","secret":"hide me"}`))
	require.NoError(t, err, "insert failed")
	assert.Equal(t, "open", rec["status"])
	_, leaked := rec["secret"]
	assert.False(t, leaked, "field removed by a hook reached storage")
}

func TestStore_Update(t *testing.T) {
	ctx := context.Background()
	st, _ := newTestStore(t, store.Config{Table: "tasks"}, nil)

	_, err := st.Insert(ctx, body(t, `{"id":"t1","title":"old","done":false}`))
	require.NoError(t, err, "seed insert failed")

	rec, err := st.Update(ctx, "t1", body(t, `{"title":"new"}`))
	require.NoError(t, err, "update failed")
	assert.Equal(t, "new", rec["title"])
	assert.Equal(t, false, rec["done"], "untouched field lost on update")

	_, err = st.Update(ctx, "missing", body(t, `{"title":"x"}`))
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestStore_UpdateExposesPriorRecord(t *testing.T) {
	ctx := context.Background()
	hooks := store.NewHooks()

	var prior store.Record
	hooks.Register(store.KindUpdate, store.StageBeforeWrite, func(_ context.Context, req *store.Request) error {
		prior = req.Record
		return nil
	})

	st, _ := newTestStore(t, store.Config{Table: "tasks"}, hooks)
	_, err := st.Insert(ctx, body(t, `{"id":"t1","title":"before"}`))
	require.NoError(t, err, "seed insert failed")

	_, err = st.Update(ctx, "t1", body(t, `{"title":"after"}`))
	require.NoError(t, err, "update failed")
	require.NotNil(t, prior, "update hooks must see the previously fetched row")
	assert.Equal(t, "before", prior["title"])
}

func TestStore_Put(t *testing.T) {
	ctx := context.Background()
	st, backend := newTestStore(t, store.Config{Table: "tasks"}, nil)

	rec, err := st.Put(ctx, "t1", body(t, `{"title":"created"}`))
	require.NoError(t, err, "upsert create failed")
	assert.Equal(t, "t1", rec["id"])
	assert.Equal(t, "created", rec["title"])
	assert.Equal(t, 1, backend.Len())

	rec, err = st.Put(ctx, "t1", body(t, `{"title":"updated"}`))
	require.NoError(t, err, "upsert update failed")
	assert.Equal(t, "updated", rec["title"])
	assert.Equal(t, 1, backend.Len(), "upsert of an existing id must not add a row")
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()
	hooks := store.NewHooks()

	var seen store.Record
	ranValidate := false
	hooks.Register(store.KindDelete, store.StageValidate, func(context.Context, *store.Request) error {
		ranValidate = true
		return nil
	})
	hooks.Register(store.KindDelete, store.StageBeforeWrite, func(_ context.Context, req *store.Request) error {
		seen = req.Record
		return nil
	})

	st, backend := newTestStore(t, store.Config{Table: "tasks"}, hooks)
	_, err := st.Insert(ctx, body(t, `{"id":"t1","title":"bye"}`))
	require.NoError(t, err, "seed insert failed")

	require.NoError(t, st.Delete(ctx, "t1"), "delete failed")
	assert.Equal(t, 0, backend.Len())
	require.NotNil(t, seen, "delete hooks must see the row being removed")
	assert.Equal(t, "bye", seen["title"])
	assert.False(t, ranValidate, "validation does not apply to deletes")

	require.ErrorIs(t, st.Delete(ctx, "t1"), store.ErrNotFound)
}

func TestStore_ListRunsAfterReadHooks(t *testing.T) {
	ctx := context.Background()
	hooks := store.NewHooks()
	hooks.Register(store.KindList, store.StageAfterRead, func(_ context.Context, req *store.Request) error {
		for _, rec := range req.Rows {
			delete(rec, "secret")
		}
		return nil
	})

	st, _ := newTestStore(t, store.Config{Table: "tasks"}, hooks)
	for _, src := range []string{
		`{"id":"a","title":"one","secret":"s1"}`,
		`{"id":"b","title":"two","secret":"s2"}`,
	} {
		_, err := st.Insert(ctx, body(t, src))
		require.NoError(t, err, "seed insert failed")
	}

	rows, err := st.List(ctx, store.Query{})
	require.NoError(t, err, "list failed")
	require.Len(t, rows, 2)
	for _, rec := range rows {
		_, leaked := rec["secret"]
		assert.False(t, leaked, "afterRead hook did not run over list rows")
	}
}

func TestStore_BodyDecodeError(t *testing.T) {
	ctx := context.Background()
	st, backend := newTestStore(t, store.Config{Table: "tasks"}, nil)

	_, err := st.Insert(ctx, store.Body{"title": json.RawMessage(`{broken`)})
	require.Error(t, err, "broken body field must fail the write")
	assert.Contains(t, err.Error(), "title")
	assert.Equal(t, 0, backend.Len())
}

func TestNew_NilBackend(t *testing.T) {
	_, err := store.New(store.Config{Table: "tasks"}, nil, nil)
	require.ErrorIs(t, err, store.ErrNilBackend)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     store.Config
		wantErr string
	}{
		{
			name:    "missing_table",
			cfg:     store.Config{},
			wantErr: "table is required",
		},
		{
			name:    "id_field_collides_with_position",
			cfg:     store.Config{Table: "tasks", IDField: "position"},
			wantErr: "idField and positionField",
		},
		{
			name:    "before_id_collides_with_position",
			cfg:     store.Config{Table: "tasks", BeforeIDField: "position"},
			wantErr: "beforeIdField and positionField",
		},
		{
			name:    "filter_holds_empty_name",
			cfg:     store.Config{Table: "tasks", PositionFilter: []string{"workspaceId", ""}},
			wantErr: "empty field name",
		},
		{
			name:    "filter_includes_position_field",
			cfg:     store.Config{Table: "tasks", PositionFilter: []string{"position"}},
			wantErr: "must not include the position field",
		},
		{
			name:    "filter_lists_field_twice",
			cfg:     store.Config{Table: "tasks", PositionFilter: []string{"workspaceId", "workspaceId"}},
			wantErr: "twice",
		},
		{
			name: "valid",
			cfg:  store.Config{Table: "tasks", PositionFilter: []string{"workspaceId", "lane"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.WithDefaults().Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := store.Config{Table: "tasks"}.WithDefaults()
	assert.Equal(t, "id", cfg.IDField)
	assert.Equal(t, "position", cfg.PositionField)
	assert.Equal(t, "beforeId", cfg.BeforeIDField)
	require.NotNil(t, cfg.IDFunc)
	assert.NotEmpty(t, cfg.IDFunc())
	require.NotNil(t, cfg.Logger)
}
