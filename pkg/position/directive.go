// Package position keeps a user-visible ordering column consistent under
// concurrent inserts, moves and deletes, scoped to arbitrary partition keys.
// It plugs into a store pipeline as a before-write hook: the placement
// directive is read from the request body, the target position is resolved
// against the current group, conflicting rows are shifted aside in one
// set-based update, and the resolved position is written back into the body
// for the backend to persist.
package position

import (
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/store"
)

// DirectiveKind is the three-way placement instruction. Absent and explicit
// null are distinct on purpose: on updates the former keeps the current
// position while the latter moves the record to the end.
type DirectiveKind uint8

const (
	DirectiveAbsent DirectiveKind = iota
	DirectivePlaceLast
	DirectiveBefore
)

// Directive is the decoded placement instruction of one request.
type Directive struct {
	Kind     DirectiveKind
	BeforeID string
}

func (d Directive) String() string {
	switch d.Kind {
	case DirectivePlaceLast:
		return "place-last"
	case DirectiveBefore:
		return "before " + d.BeforeID
	default:
		return "absent"
	}
}

// ExtractDirective reads and removes the directive field from the body. The
// field never reaches storage; whatever its value, extraction cannot fail.
// Unusable values (arrays, objects, broken JSON) degrade to place-last, the
// same fate as a dangling reference.
func ExtractDirective(body store.Body, field string) Directive {
	raw, present := body[field]
	if !present {
		return Directive{Kind: DirectiveAbsent}
	}
	delete(body, field)

	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return Directive{Kind: DirectivePlaceLast}
	}
	switch id := v.(type) {
	case nil:
		return Directive{Kind: DirectivePlaceLast}
	case string:
		return Directive{Kind: DirectiveBefore, BeforeID: id}
	case float64:
		// Numeric identifiers arrive as JSON numbers; match them through
		// their literal text.
		return Directive{Kind: DirectiveBefore, BeforeID: strconv.FormatFloat(id, 'f', -1, 64)}
	default:
		return Directive{Kind: DirectivePlaceLast}
	}
}
