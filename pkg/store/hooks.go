package store

import (
	"context"
	"fmt"
)

// Kind identifies the operation a request is performing.
type Kind uint8

const (
	KindCreate Kind = iota + 1
	KindUpdate
	KindUpsert
	KindDelete
	KindFetch
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindUpdate:
		return "update"
	case KindUpsert:
		return "upsert"
	case KindDelete:
		return "delete"
	case KindFetch:
		return "fetch"
	case KindList:
		return "list"
	default:
		return "unknown"
	}
}

// Stage is a lifecycle point hooks can attach to. Stages run in declaration
// order; the backend write happens between StageBeforeWrite and
// StageAfterWrite and is owned by the store itself.
type Stage uint8

const (
	StageValidate Stage = iota + 1
	StageBeforeWrite
	StageAfterWrite
	StageAfterRead
)

func (s Stage) String() string {
	switch s {
	case StageValidate:
		return "validate"
	case StageBeforeWrite:
		return "beforeWrite"
	case StageAfterWrite:
		return "afterWrite"
	case StageAfterRead:
		return "afterRead"
	default:
		return "unknown"
	}
}

// Hook is one lifecycle callback. It may mutate the request body in place.
// Returning an error halts the remaining hooks of the stage and aborts the
// operation.
type Hook func(ctx context.Context, req *Request) error

// Plugin contributes hooks to one or more stages. Install runs once at setup
// time; an error there is a configuration error and construction fails.
type Plugin interface {
	Name() string
	Install(h *Hooks) error
}

type hookKey struct {
	kind  Kind
	stage Stage
}

// Hooks holds the lifecycle callbacks for a store, keyed by operation kind
// and stage. Registration order is execution order. Hooks is not safe for
// concurrent mutation; register everything before the store serves requests.
type Hooks struct {
	table map[hookKey][]Hook
}

func NewHooks() *Hooks {
	return &Hooks{table: make(map[hookKey][]Hook)}
}

// Register appends fn to the hook chain for the given kind and stage.
func (h *Hooks) Register(kind Kind, stage Stage, fn Hook) {
	key := hookKey{kind: kind, stage: stage}
	h.table[key] = append(h.table[key], fn)
}

// Use installs a plugin.
func (h *Hooks) Use(p Plugin) error {
	if err := p.Install(h); err != nil {
		return fmt.Errorf("store: install plugin %s: %w", p.Name(), err)
	}
	return nil
}

func (h *Hooks) run(ctx context.Context, req *Request, stage Stage) error {
	req.Stage = stage
	for _, fn := range h.table[hookKey{kind: req.Kind, stage: stage}] {
		if err := fn(ctx, req); err != nil {
			return err
		}
	}
	return nil
}
