package position

import (
	"context"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/logger/mocklogger"
	"github.com/mobily-enterprises/jsonreststores-3/pkg/store"
	"github.com/mobily-enterprises/jsonreststores-3/pkg/store/storetest"
)

func newPositionedStore(t *testing.T, cfg store.Config) (*store.Store, *storetest.Backend) {
	t.Helper()
	backend := storetest.New(cfg)
	hooks := store.NewHooks()

	plug, err := New(cfg)
	require.NoError(t, err, "failed to build positioning plugin")
	require.NoError(t, hooks.Use(plug), "failed to install positioning plugin")

	st, err := store.New(cfg, backend, hooks)
	require.NoError(t, err, "failed to construct store")
	return st, backend
}

func jsonBody(t *testing.T, src string) store.Body {
	t.Helper()
	var b store.Body
	require.NoError(t, json.Unmarshal([]byte(src), &b), "failed to decode test body")
	return b
}

// boardOrder returns the ids of a group in position order, with their
// positions, for whole-board assertions.
func boardOrder(t *testing.T, st *store.Store, g store.Group) (ids []string, positions []int64) {
	t.Helper()
	rows, err := st.List(context.Background(), store.Query{Group: g, OrderByPos: true})
	require.NoError(t, err, "list failed")
	for _, rec := range rows {
		id, _ := rec["id"].(string)
		pos, _ := store.Int64(rec["position"])
		ids = append(ids, id)
		positions = append(positions, pos)
	}
	return ids, positions
}

func TestPlugin_SequentialInsertsNumberFromOne(t *testing.T) {
	ctx := context.Background()
	st, _ := newPositionedStore(t, store.Config{Table: "tasks"})

	for i, id := range []string{"A", "B", "C"} {
		rec, err := st.Insert(ctx, jsonBody(t, `{"id":"`+id+`","title":"t"}`))
		require.NoError(t, err, "insert %s failed", id)
		pos, ok := store.Int64(rec["position"])
		require.True(t, ok, "insert %s produced no numeric position", id)
		assert.Equal(t, int64(i+1), pos)
	}
}

func TestPlugin_InsertBeforeShiftsTail(t *testing.T) {
	ctx := context.Background()
	st, _ := newPositionedStore(t, store.Config{Table: "tasks"})

	for _, id := range []string{"A", "B", "C"} {
		_, err := st.Insert(ctx, jsonBody(t, `{"id":"`+id+`"}`))
		require.NoError(t, err, "seed insert failed")
	}

	rec, err := st.Insert(ctx, jsonBody(t, `{"id":"D","beforeId":"B"}`))
	require.NoError(t, err, "insert before B failed")

	_, hasDirective := rec["beforeId"]
	assert.False(t, hasDirective, "the directive field must never be persisted")

	ids, positions := boardOrder(t, st, nil)
	assert.Equal(t, []string{"A", "D", "B", "C"}, ids)
	assert.Equal(t, []int64{1, 2, 3, 4}, positions)
}

func TestPlugin_InsertWithNullGoesLast(t *testing.T) {
	ctx := context.Background()
	st, _ := newPositionedStore(t, store.Config{Table: "tasks"})

	for _, id := range []string{"A", "B"} {
		_, err := st.Insert(ctx, jsonBody(t, `{"id":"`+id+`"}`))
		require.NoError(t, err, "seed insert failed")
	}

	rec, err := st.Insert(ctx, jsonBody(t, `{"id":"C","beforeId":null}`))
	require.NoError(t, err, "insert with null directive failed")
	pos, _ := store.Int64(rec["position"])
	assert.Equal(t, int64(3), pos)
}

func TestPlugin_BadReferencesGoLast(t *testing.T) {
	ctx := context.Background()
	cfg := store.Config{Table: "tasks", PositionFilter: []string{"lane"}}
	st, _ := newPositionedStore(t, cfg)

	for _, src := range []string{
		`{"id":"A","lane":"todo"}`,
		`{"id":"B","lane":"todo"}`,
		`{"id":"X","lane":"done"}`,
	} {
		_, err := st.Insert(ctx, jsonBody(t, src))
		require.NoError(t, err, "seed insert failed")
	}

	t.Run("dangling_id", func(t *testing.T) {
		rec, err := st.Insert(ctx, jsonBody(t, `{"id":"C","lane":"todo","beforeId":"ghost"}`))
		require.NoError(t, err, "a dangling reference must not fail the insert")
		pos, _ := store.Int64(rec["position"])
		assert.Equal(t, int64(3), pos)
	})

	t.Run("id_in_another_group", func(t *testing.T) {
		rec, err := st.Insert(ctx, jsonBody(t, `{"id":"D","lane":"todo","beforeId":"X"}`))
		require.NoError(t, err, "an out-of-group reference must not fail the insert")
		pos, _ := store.Int64(rec["position"])
		assert.Equal(t, int64(4), pos)

		rows, err := st.List(ctx, store.Query{Group: store.Group{{Name: "lane", Value: "done"}}})
		require.NoError(t, err)
		require.Len(t, rows, 1)
		xpos, _ := store.Int64(rows[0]["position"])
		assert.Equal(t, int64(1), xpos, "the referenced group must stay untouched")
	})
}

func TestPlugin_GroupsNumberIndependently(t *testing.T) {
	ctx := context.Background()
	cfg := store.Config{Table: "tasks", PositionFilter: []string{"lane"}}
	st, _ := newPositionedStore(t, cfg)

	for _, src := range []string{
		`{"id":"A","lane":"todo"}`,
		`{"id":"X","lane":"done"}`,
		`{"id":"B","lane":"todo"}`,
		`{"id":"Y","lane":"done"}`,
		`{"id":"N1"}`,
	} {
		_, err := st.Insert(ctx, jsonBody(t, src))
		require.NoError(t, err, "insert failed")
	}

	_, todoPos := boardOrder(t, st, store.Group{{Name: "lane", Value: "todo"}})
	assert.Equal(t, []int64{1, 2}, todoPos)

	_, donePos := boardOrder(t, st, store.Group{{Name: "lane", Value: "done"}})
	assert.Equal(t, []int64{1, 2}, donePos)

	// Rows without a lane form their own NULL group.
	_, nullPos := boardOrder(t, st, store.Group{{Name: "lane", Value: nil}})
	assert.Equal(t, []int64{1}, nullPos)
}

func TestPlugin_UpdateWithoutDirectiveKeepsPosition(t *testing.T) {
	ctx := context.Background()
	st, _ := newPositionedStore(t, store.Config{Table: "tasks"})

	for _, id := range []string{"A", "B", "C"} {
		_, err := st.Insert(ctx, jsonBody(t, `{"id":"`+id+`"}`))
		require.NoError(t, err, "seed insert failed")
	}

	rec, err := st.Update(ctx, "B", jsonBody(t, `{"title":"renamed"}`))
	require.NoError(t, err, "update failed")
	pos, _ := store.Int64(rec["position"])
	assert.Equal(t, int64(2), pos, "an update without a directive must keep the slot")

	ids, positions := boardOrder(t, st, nil)
	assert.Equal(t, []string{"A", "B", "C"}, ids)
	assert.Equal(t, []int64{1, 2, 3}, positions)
}

func TestPlugin_UpdateWithDirectiveMoves(t *testing.T) {
	ctx := context.Background()
	st, _ := newPositionedStore(t, store.Config{Table: "tasks"})

	for _, id := range []string{"A", "B", "C"} {
		_, err := st.Insert(ctx, jsonBody(t, `{"id":"`+id+`"}`))
		require.NoError(t, err, "seed insert failed")
	}

	_, err := st.Update(ctx, "C", jsonBody(t, `{"beforeId":"A"}`))
	require.NoError(t, err, "move failed")

	ids, _ := boardOrder(t, st, nil)
	assert.Equal(t, []string{"C", "A", "B"}, ids)
}

func TestPlugin_UpdateWithNullMovesToEnd(t *testing.T) {
	ctx := context.Background()
	st, _ := newPositionedStore(t, store.Config{Table: "tasks"})

	for _, id := range []string{"A", "B", "C"} {
		_, err := st.Insert(ctx, jsonBody(t, `{"id":"`+id+`"}`))
		require.NoError(t, err, "seed insert failed")
	}

	rec, err := st.Update(ctx, "A", jsonBody(t, `{"beforeId":null}`))
	require.NoError(t, err, "move to end failed")
	pos, _ := store.Int64(rec["position"])
	assert.Equal(t, int64(4), pos)

	ids, _ := boardOrder(t, st, nil)
	assert.Equal(t, []string{"B", "C", "A"}, ids)
}

func TestPlugin_SelfReferenceKeepsOrder(t *testing.T) {
	ctx := context.Background()
	st, _ := newPositionedStore(t, store.Config{Table: "tasks"})

	for _, id := range []string{"A", "B", "C"} {
		_, err := st.Insert(ctx, jsonBody(t, `{"id":"`+id+`"}`))
		require.NoError(t, err, "seed insert failed")
	}

	_, err := st.Update(ctx, "B", jsonBody(t, `{"beforeId":"B"}`))
	require.NoError(t, err, "a self reference must not fail the update")

	ids, _ := boardOrder(t, st, nil)
	assert.Equal(t, []string{"A", "B", "C"}, ids, "a self reference must leave the order alone")
}

func TestPlugin_GroupChangeCarriesNumber(t *testing.T) {
	ctx := context.Background()
	cfg := store.Config{Table: "tasks", PositionFilter: []string{"lane"}}
	st, _ := newPositionedStore(t, cfg)

	for _, src := range []string{
		`{"id":"A","lane":"todo"}`,
		`{"id":"B","lane":"todo"}`,
		`{"id":"C","lane":"todo"}`,
	} {
		_, err := st.Insert(ctx, jsonBody(t, src))
		require.NoError(t, err, "seed insert failed")
	}

	rec, err := st.Update(ctx, "C", jsonBody(t, `{"lane":"done"}`))
	require.NoError(t, err, "lane change failed")
	assert.Equal(t, "done", rec["lane"])
	pos, _ := store.Int64(rec["position"])
	assert.Equal(t, int64(3), pos, "a group change without a directive keeps the number")
}

func TestPlugin_UpsertCreatePlacesLast(t *testing.T) {
	ctx := context.Background()
	st, _ := newPositionedStore(t, store.Config{Table: "tasks"})

	_, err := st.Insert(ctx, jsonBody(t, `{"id":"A"}`))
	require.NoError(t, err, "seed insert failed")

	rec, err := st.Put(ctx, "B", jsonBody(t, `{"title":"new"}`))
	require.NoError(t, err, "upsert create failed")
	pos, _ := store.Int64(rec["position"])
	assert.Equal(t, int64(2), pos)
}

func TestPlugin_DeleteLeavesGapInsertFillsEnd(t *testing.T) {
	ctx := context.Background()
	st, _ := newPositionedStore(t, store.Config{Table: "tasks"})

	for _, id := range []string{"A", "B", "C"} {
		_, err := st.Insert(ctx, jsonBody(t, `{"id":"`+id+`"}`))
		require.NoError(t, err, "seed insert failed")
	}
	require.NoError(t, st.Delete(ctx, "B"), "delete failed")

	ids, positions := boardOrder(t, st, nil)
	assert.Equal(t, []string{"A", "C"}, ids)
	assert.Equal(t, []int64{1, 3}, positions, "deletes leave gaps behind")

	rec, err := st.Insert(ctx, jsonBody(t, `{"id":"D"}`))
	require.NoError(t, err, "insert after delete failed")
	pos, _ := store.Int64(rec["position"])
	assert.Equal(t, int64(4), pos, "place-last counts from the maximum, not the row count")
}

func TestPlugin_LogsResolution(t *testing.T) {
	ctx := context.Background()
	logger, handler := mocklogger.NewMockLogger()
	st, _ := newPositionedStore(t, store.Config{Table: "tasks", Logger: logger})

	_, err := st.Insert(ctx, jsonBody(t, `{"id":"A"}`))
	require.NoError(t, err, "insert failed")
	assert.True(t, handler.Contains("position resolved"), "expected a resolution debug line")
}

func TestNew_RejectsBadConfig(t *testing.T) {
	_, err := New(store.Config{})
	require.Error(t, err, "a missing table must fail construction")

	_, err = New(store.Config{Table: "tasks", BeforeIDField: "position"})
	require.Error(t, err, "a directive field shadowing the position column must fail construction")
}
