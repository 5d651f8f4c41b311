// Package storecfg loads declarative store definitions from YAML. A
// definitions file names each store, its table and columns, the positioning
// configuration and the validation rules; the CLI turns definitions into
// live stores at startup.
package storecfg

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/idwrap"
	"github.com/mobily-enterprises/jsonreststores-3/pkg/store"
	"github.com/mobily-enterprises/jsonreststores-3/pkg/validate"
)

// File is a parsed definitions document.
type File struct {
	Stores []StoreDef `yaml:"stores"`
}

// StoreDef declares one store.
type StoreDef struct {
	Name           string          `yaml:"name"`
	Table          string          `yaml:"table"`
	IDField        string          `yaml:"idField"`
	IDGenerator    string          `yaml:"idGenerator"` // "ulid" (default) or "uuid"
	PositionField  string          `yaml:"positionField"`
	PositionFilter []string        `yaml:"positionFilter"`
	BeforeIDField  string          `yaml:"beforeIdField"`
	Columns        []ColumnDef     `yaml:"columns"`
	Rules          []validate.Rule `yaml:"rules"`
}

// ColumnDef declares one user column of the backing table.
type ColumnDef struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	NotNull bool   `yaml:"notNull"`
}

// Load reads and parses a definitions file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("storecfg: read %s: %w", path, err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("storecfg: parse %s: %w", path, err)
	}
	return f, nil
}

// Parse decodes a definitions document. Unknown keys are errors so typos
// surface at startup instead of silently configuring nothing.
func Parse(data []byte) (*File, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return &File{}, nil
		}
		return nil, err
	}

	seen := make(map[string]bool, len(f.Stores))
	for _, def := range f.Stores {
		if def.Name == "" {
			return nil, errors.New("store definition without a name")
		}
		if def.Table == "" {
			return nil, fmt.Errorf("store %s: table is required", def.Name)
		}
		if seen[def.Name] {
			return nil, fmt.Errorf("store %s defined twice", def.Name)
		}
		seen[def.Name] = true
		switch def.IDGenerator {
		case "", "ulid", "uuid":
		default:
			return nil, fmt.Errorf("store %s: unknown idGenerator %q", def.Name, def.IDGenerator)
		}
	}
	return &f, nil
}

// Config maps the definition onto a store configuration. The logger is left
// for the caller to attach.
func (d StoreDef) Config() store.Config {
	return store.Config{
		Table:          d.Table,
		IDField:        d.IDField,
		PositionField:  d.PositionField,
		PositionFilter: d.PositionFilter,
		BeforeIDField:  d.BeforeIDField,
		IDFunc:         d.idFunc(),
	}
}

func (d StoreDef) idFunc() func() string {
	if d.IDGenerator == "uuid" {
		return uuid.NewString
	}
	return idwrap.NewText
}
