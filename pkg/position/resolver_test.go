package position

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/store"
	"github.com/mobily-enterprises/jsonreststores-3/pkg/store/storetest"
)

var (
	laneTodo = store.Group{{Name: "lane", Value: "todo"}}
	laneDone = store.Group{{Name: "lane", Value: "done"}}
)

func seededBackend(t *testing.T) *storetest.Backend {
	t.Helper()
	ctx := context.Background()
	b := storetest.New(store.Config{Table: "tasks", PositionFilter: []string{"lane"}})
	rows := []store.Record{
		{"id": "A", "lane": "todo", "position": int64(1)},
		{"id": "B", "lane": "todo", "position": int64(2)},
		{"id": "C", "lane": "todo", "position": int64(3)},
		{"id": "X", "lane": "done", "position": int64(1)},
	}
	for _, rec := range rows {
		require.NoError(t, b.Insert(ctx, rec), "seed insert failed")
	}
	return b
}

func TestResolveInsert(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		group store.Group
		d     Directive
		want  Placement
	}{
		{
			name:  "no_directive_goes_last",
			group: laneTodo,
			d:     Directive{Kind: DirectiveAbsent},
			want:  Placement{Position: 4},
		},
		{
			name:  "explicit_place_last",
			group: laneTodo,
			d:     Directive{Kind: DirectivePlaceLast},
			want:  Placement{Position: 4},
		},
		{
			name:  "before_takes_the_target_slot",
			group: laneTodo,
			d:     Directive{Kind: DirectiveBefore, BeforeID: "B"},
			want:  Placement{Position: 2, Shift: true},
		},
		{
			name:  "before_first_takes_slot_one",
			group: laneTodo,
			d:     Directive{Kind: DirectiveBefore, BeforeID: "A"},
			want:  Placement{Position: 1, Shift: true},
		},
		{
			name:  "dangling_reference_goes_last",
			group: laneTodo,
			d:     Directive{Kind: DirectiveBefore, BeforeID: "ghost"},
			want:  Placement{Position: 4},
		},
		{
			name:  "reference_outside_the_group_goes_last",
			group: laneTodo,
			d:     Directive{Kind: DirectiveBefore, BeforeID: "X"},
			want:  Placement{Position: 4},
		},
		{
			name:  "empty_group_starts_at_one",
			group: store.Group{{Name: "lane", Value: "archive"}},
			d:     Directive{Kind: DirectivePlaceLast},
			want:  Placement{Position: 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := seededBackend(t)
			got, err := ResolveInsert(ctx, b, tt.group, tt.d)
			require.NoError(t, err, "resolution must not fail on a live backend")
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveUpdate(t *testing.T) {
	ctx := context.Background()
	two := int64(2)

	tests := []struct {
		name  string
		group store.Group
		d     Directive
		id    string
		prior *int64
		want  Placement
	}{
		{
			name:  "absent_keeps_prior",
			group: laneTodo,
			d:     Directive{Kind: DirectiveAbsent},
			id:    "B",
			prior: &two,
			want:  Placement{Position: 2},
		},
		{
			name:  "absent_without_prior_looks_the_row_up",
			group: laneTodo,
			d:     Directive{Kind: DirectiveAbsent},
			id:    "C",
			want:  Placement{Position: 3},
		},
		{
			name:  "absent_and_unplaceable_goes_last",
			group: laneTodo,
			d:     Directive{Kind: DirectiveAbsent},
			id:    "ghost",
			want:  Placement{Position: 4},
		},
		{
			name:  "before_moves_to_the_target_slot",
			group: laneTodo,
			d:     Directive{Kind: DirectiveBefore, BeforeID: "A"},
			id:    "C",
			want:  Placement{Position: 1, Shift: true},
		},
		{
			name:  "dangling_reference_goes_last",
			group: laneTodo,
			d:     Directive{Kind: DirectiveBefore, BeforeID: "ghost"},
			id:    "C",
			want:  Placement{Position: 4},
		},
		{
			name:  "explicit_null_goes_last",
			group: laneTodo,
			d:     Directive{Kind: DirectivePlaceLast},
			id:    "A",
			want:  Placement{Position: 4},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := seededBackend(t)
			got, err := ResolveUpdate(ctx, b, tt.group, tt.d, tt.id, tt.prior)
			require.NoError(t, err, "resolution must not fail on a live backend")
			assert.Equal(t, tt.want, got)
		})
	}
}

// A record moved into another group with no directive carries its number
// along; the unscoped lookup finds it even though it is not in the target
// group yet.
func TestResolveUpdate_GroupChangeKeepsNumber(t *testing.T) {
	ctx := context.Background()
	b := seededBackend(t)

	got, err := ResolveUpdate(ctx, b, laneDone, Directive{Kind: DirectiveAbsent}, "C", nil)
	require.NoError(t, err)
	assert.Equal(t, Placement{Position: 3}, got)
}

func TestApplyShiftsOnlyWhenAsked(t *testing.T) {
	ctx := context.Background()

	b := seededBackend(t)
	pos, err := Apply(ctx, b, laneTodo, Placement{Position: 2, Shift: true})
	require.NoError(t, err)
	assert.Equal(t, int64(2), pos)
	for id, want := range map[string]int64{"A": 1, "B": 3, "C": 4, "X": 1} {
		rec, err := b.Get(ctx, id)
		require.NoError(t, err)
		got, _ := store.Int64(rec["position"])
		assert.Equal(t, want, got, "row %s after shift", id)
	}

	b = seededBackend(t)
	_, err = Apply(ctx, b, laneTodo, Placement{Position: 4})
	require.NoError(t, err)
	for id, want := range map[string]int64{"A": 1, "B": 2, "C": 3} {
		rec, err := b.Get(ctx, id)
		require.NoError(t, err)
		got, _ := store.Int64(rec["position"])
		assert.Equal(t, want, got, "row %s must not move on a shiftless placement", id)
	}
}
