// Package idwrap provides the ULID-backed record identifier used across the
// stores. Identifiers travel in their canonical 26-character text form, both
// in JSON payloads and in database columns.
package idwrap

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
)

type ID struct {
	ulid ulid.ULID
}

// New returns a fresh identifier for the current time.
func New() ID {
	return ID{ulid: ulid.Make()}
}

// NewText generates a fresh identifier and returns its text form. It is the
// default id generator for stores.
func NewText() string {
	return ulid.Make().String()
}

// Parse reads an identifier from its canonical text form.
func Parse(text string) (ID, error) {
	u, err := ulid.ParseStrict(text)
	if err != nil {
		return ID{}, fmt.Errorf("idwrap: parse %q: %w", text, err)
	}
	return ID{ulid: u}, nil
}

func MustParse(text string) ID {
	id, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) String() string {
	return id.ulid.String()
}

func (id ID) Bytes() []byte {
	return id.ulid[:]
}

func (id ID) IsZero() bool {
	return id.ulid == ulid.ULID{}
}

func (id ID) Compare(other ID) int {
	return id.ulid.Compare(other.ulid)
}

// Time returns the timestamp embedded in the identifier.
func (id ID) Time() time.Time {
	return time.UnixMilli(int64(id.ulid.Time()))
}

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.ulid.String()), nil
}

func (id *ID) UnmarshalText(data []byte) error {
	parsed, err := Parse(string(data))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Value stores the identifier as TEXT rather than a 16-byte blob so rows stay
// readable in ad-hoc queries and NDJSON exports.
func (id ID) Value() (driver.Value, error) {
	return id.ulid.String(), nil
}

func (id *ID) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return id.UnmarshalText([]byte(v))
	case []byte:
		return id.UnmarshalText(v)
	default:
		return fmt.Errorf("idwrap: cannot scan %T into ID", src)
	}
}
