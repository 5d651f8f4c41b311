package cmd

import (
	"fmt"
	"strings"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/store"
)

// parseWhere turns repeated --where field=value flags into a group
// predicate. The literal value "null" selects rows where the field is NULL.
func parseWhere(exprs []string) (store.Group, error) {
	if len(exprs) == 0 {
		return nil, nil
	}
	g := make(store.Group, 0, len(exprs))
	for _, e := range exprs {
		field, value, ok := strings.Cut(e, "=")
		if !ok || field == "" {
			return nil, fmt.Errorf("invalid --where %q: want field=value", e)
		}
		if value == "null" {
			g = append(g, store.GroupField{Name: field, Value: nil})
			continue
		}
		g = append(g, store.GroupField{Name: field, Value: value})
	}
	return g, nil
}
