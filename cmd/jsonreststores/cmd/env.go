package cmd

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/spf13/viper"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/position"
	"github.com/mobily-enterprises/jsonreststores-3/pkg/sqlitestore"
	"github.com/mobily-enterprises/jsonreststores-3/pkg/store"
	"github.com/mobily-enterprises/jsonreststores-3/pkg/storecfg"
	"github.com/mobily-enterprises/jsonreststores-3/pkg/validate"
)

// env is everything a command needs: the open database, the store registry,
// and the raw backends for maintenance operations.
type env struct {
	log      *slog.Logger
	db       *sql.DB
	registry *store.Registry
	backends map[string]*sqlitestore.Backend
	defs     map[string]storecfg.StoreDef
}

// openEnv loads the definitions file, opens the database and wires every
// defined store: sqlite backend, positioning plugin, validation rules.
func openEnv(ctx context.Context) (*env, error) {
	logger := newLogger()

	defsPath := viper.GetString("stores")
	file, err := storecfg.Load(defsPath)
	if err != nil {
		return nil, err
	}
	if len(file.Stores) == 0 {
		return nil, fmt.Errorf("no stores defined in %s", defsPath)
	}

	db, err := sqlitestore.Open(ctx, viper.GetString("db"))
	if err != nil {
		return nil, err
	}
	ok := false
	defer func() {
		if !ok {
			db.Close()
		}
	}()

	e := &env{
		log:      logger,
		db:       db,
		registry: store.NewRegistry(),
		backends: make(map[string]*sqlitestore.Backend, len(file.Stores)),
		defs:     make(map[string]storecfg.StoreDef, len(file.Stores)),
	}
	for _, def := range file.Stores {
		cfg := def.Config()
		cfg.Logger = logger

		backend, err := sqlitestore.New(db, cfg)
		if err != nil {
			return nil, fmt.Errorf("store %s: %w", def.Name, err)
		}

		hooks := store.NewHooks()
		pos, err := position.New(cfg)
		if err != nil {
			return nil, fmt.Errorf("store %s: %w", def.Name, err)
		}
		if err := hooks.Use(pos); err != nil {
			return nil, fmt.Errorf("store %s: %w", def.Name, err)
		}
		if len(def.Rules) > 0 {
			vp, err := validate.New(def.Rules)
			if err != nil {
				return nil, fmt.Errorf("store %s: %w", def.Name, err)
			}
			if err := hooks.Use(vp); err != nil {
				return nil, fmt.Errorf("store %s: %w", def.Name, err)
			}
		}

		st, err := store.New(cfg, backend, hooks)
		if err != nil {
			return nil, fmt.Errorf("store %s: %w", def.Name, err)
		}
		if err := e.registry.Add(def.Name, st); err != nil {
			return nil, err
		}
		e.backends[def.Name] = backend
		e.defs[def.Name] = def
	}

	ok = true
	return e, nil
}

func (e *env) Close() {
	if err := e.db.Close(); err != nil {
		e.log.Error("closing database", slog.String("error", err.Error()))
	}
}
