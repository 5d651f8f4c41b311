package position

import (
	"context"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/store"
)

// Apply executes a placement: when the target slot is occupied, every row in
// g at or above it moves up by one in a single set-based update, leaving the
// slot vacant for the caller to assign. The shift either applies to all
// qualifying rows or, on error, to none; the surrounding transaction is what
// keeps a failed request from leaving a partial shift behind.
func Apply(ctx context.Context, b store.Backend, g store.Group, p Placement) (int64, error) {
	if p.Shift {
		if err := b.ShiftFrom(ctx, g, p.Position); err != nil {
			return 0, err
		}
	}
	return p.Position, nil
}
