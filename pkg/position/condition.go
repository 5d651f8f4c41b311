package position

import (
	json "github.com/goccy/go-json"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/store"
)

// GroupFor builds the partition predicate for a record. Each configured
// field is read from the body first, then from the previously fetched record
// (so updates that leave the partition key untouched stay in their group).
// A field absent from both, or carrying an explicit null, becomes an IS NULL
// constraint; there is no "ignore this field" outcome, and no error one.
//
// An empty field list yields the empty Group, which matches every row: the
// table is one global ordering.
func GroupFor(fields []string, body store.Body, record store.Record) store.Group {
	if len(fields) == 0 {
		return nil
	}
	g := make(store.Group, 0, len(fields))
	for _, f := range fields {
		if raw, ok := body[f]; ok {
			var v any
			if err := json.Unmarshal(raw, &v); err == nil {
				g = append(g, store.GroupField{Name: f, Value: v})
				continue
			}
		}
		if record != nil {
			if v, ok := record[f]; ok {
				g = append(g, store.GroupField{Name: f, Value: v})
				continue
			}
		}
		g = append(g, store.GroupField{Name: f, Value: nil})
	}
	return g
}
