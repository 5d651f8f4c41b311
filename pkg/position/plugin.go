package position

import (
	"context"
	"log/slog"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/store"
)

// Plugin adapts the positioning engine to the store pipeline. It installs a
// before-write hook on create, update and upsert that resolves the target
// position and writes it into the body under the configured position field,
// consuming the directive field along the way. The backend then persists the
// position like any other column.
type Plugin struct {
	cfg store.Config
	log *slog.Logger
}

// New validates the configuration and builds the plugin. cfg is the same
// configuration the store itself runs on; errors here are construction-time
// fatal, before any request is served.
func New(cfg store.Config) (*Plugin, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Plugin{cfg: cfg, log: cfg.Logger}, nil
}

func (p *Plugin) Name() string {
	return "position"
}

func (p *Plugin) Install(h *store.Hooks) error {
	for _, kind := range []store.Kind{store.KindCreate, store.KindUpdate, store.KindUpsert} {
		h.Register(kind, store.StageBeforeWrite, p.hook)
	}
	return nil
}

// hook must finish before the backend write: the body it leaves behind is
// what gets persisted.
func (p *Plugin) hook(ctx context.Context, req *store.Request) error {
	d := ExtractDirective(req.Body, p.cfg.BeforeIDField)
	g := GroupFor(p.cfg.PositionFilter, req.Body, req.Record)

	var placement Placement
	var err error
	if req.Kind == store.KindCreate {
		placement, err = ResolveInsert(ctx, req.Backend, g, d)
	} else {
		id := req.ID(p.cfg.IDField)
		placement, err = ResolveUpdate(ctx, req.Backend, g, d, id, priorPosition(req.Record, p.cfg.PositionField))
	}
	if err != nil {
		return err
	}

	pos, err := Apply(ctx, req.Backend, g, placement)
	if err != nil {
		return err
	}
	req.Body[p.cfg.PositionField] = json.RawMessage(strconv.FormatInt(pos, 10))

	p.log.DebugContext(ctx, "position resolved",
		slog.String("table", p.cfg.Table),
		slog.String("kind", req.Kind.String()),
		slog.String("directive", d.String()),
		slog.Int64("position", pos),
		slog.Bool("shifted", placement.Shift),
	)
	return nil
}

// priorPosition pulls the current position out of a fetched record. A
// missing, null or zero value counts as undetermined.
func priorPosition(rec store.Record, field string) *int64 {
	if rec == nil {
		return nil
	}
	pos, ok := store.Int64(rec[field])
	if !ok || pos == 0 {
		return nil
	}
	return &pos
}
