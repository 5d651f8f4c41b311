package position

import (
	"context"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/store"
)

// Placement is a resolved target position. Shift reports whether existing
// rows at or above Position must move aside before the assignment.
type Placement struct {
	Position int64
	Shift    bool
}

// ResolveInsert computes the position for a record entering group g.
//
// Every branch that cannot produce a definite slot falls through to
// place-last; resolution never fails on its own, only on storage errors.
func ResolveInsert(ctx context.Context, b store.Backend, g store.Group, d Directive) (Placement, error) {
	if d.Kind == DirectiveBefore {
		pos, ok, err := b.PositionOf(ctx, d.BeforeID, g)
		if err != nil {
			return Placement{}, err
		}
		if ok {
			// The referenced row's slot becomes the target; rows from
			// there on are shifted aside. A reference outside the group,
			// or to no row at all, is not an error: the record simply
			// goes last.
			return Placement{Position: pos, Shift: true}, nil
		}
	}
	return placeLast(ctx, b, g)
}

// ResolveUpdate computes the position for an existing record. prior is the
// record's current position when the caller already fetched the row; nil
// otherwise.
//
// An absent directive keeps the record where it is. When the prior position
// is unknown it is looked up by id across the whole table (the record may be
// moving groups; its number travels with it). Only when no position can be
// determined at all does the record go last.
func ResolveUpdate(ctx context.Context, b store.Backend, g store.Group, d Directive, id string, prior *int64) (Placement, error) {
	switch d.Kind {
	case DirectiveAbsent:
		if prior != nil {
			return Placement{Position: *prior}, nil
		}
		if id != "" {
			pos, ok, err := b.PositionOf(ctx, id, nil)
			if err != nil {
				return Placement{}, err
			}
			if ok && pos != 0 {
				return Placement{Position: pos}, nil
			}
		}
		return placeLast(ctx, b, g)

	case DirectiveBefore:
		pos, ok, err := b.PositionOf(ctx, d.BeforeID, g)
		if err != nil {
			return Placement{}, err
		}
		if ok {
			return Placement{Position: pos, Shift: true}, nil
		}
		return placeLast(ctx, b, g)

	default: // DirectivePlaceLast
		return placeLast(ctx, b, g)
	}
}

// placeLast is the shared primitive behind every absence and failure branch:
// one past the group's maximum, position 1 in an empty group.
func placeLast(ctx context.Context, b store.Backend, g store.Group) (Placement, error) {
	max, ok, err := b.MaxPosition(ctx, g)
	if err != nil {
		return Placement{}, err
	}
	if !ok {
		return Placement{Position: 1}, nil
	}
	return Placement{Position: max + 1}, nil
}
