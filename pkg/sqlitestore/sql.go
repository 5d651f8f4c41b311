package sqlitestore

import (
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/store"
)

// SQL text is assembled from configuration and record keys, so identifiers
// are validated strictly and every value travels as a bound parameter.
var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validIdent(name string) error {
	if !identRe.MatchString(name) {
		return fmt.Errorf("sqlitestore: invalid identifier %q", name)
	}
	return nil
}

// compileGroup renders a partition predicate. An empty group matches the
// whole table; a nil value becomes an IS NULL test.
func compileGroup(g store.Group) (string, []any, error) {
	if len(g) == 0 {
		return "1=1", nil, nil
	}
	parts := make([]string, 0, len(g))
	args := make([]any, 0, len(g))
	for _, f := range g {
		if err := validIdent(f.Name); err != nil {
			return "", nil, err
		}
		if f.Value == nil {
			parts = append(parts, f.Name+" IS NULL")
			continue
		}
		v, err := bindValue(f.Name, f.Value)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, f.Name+" = ?")
		args = append(args, v)
	}
	return strings.Join(parts, " AND "), args, nil
}

// bindValue maps a record value onto a driver parameter. Structured values
// persist as JSON text.
func bindValue(col string, v any) (any, error) {
	switch t := v.(type) {
	case nil, string, bool, float64, int64, []byte:
		return v, nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case json.Number:
		return t.String(), nil
	case map[string]any, []any:
		data, err := json.Marshal(t)
		if err != nil {
			return nil, fmt.Errorf("sqlitestore: encode %s: %w", col, err)
		}
		return string(data), nil
	default:
		return nil, fmt.Errorf("sqlitestore: unsupported value type %T for %s", v, col)
	}
}

// scanRecords drains rows into open maps keyed by column name. BLOB-scanned
// byte slices become strings so records stay JSON-encodable.
func scanRecords(rows *sql.Rows) ([]store.Record, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: read columns: %w", err)
	}
	var out []store.Record
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("sqlitestore: scan row: %w", err)
		}
		rec := make(store.Record, len(cols))
		for i, c := range cols {
			if b, ok := vals[i].([]byte); ok {
				rec[c] = string(b)
				continue
			}
			rec[c] = vals[i]
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlitestore: iterate rows: %w", err)
	}
	return out, nil
}

func sortedKeys(rec store.Record) []string {
	keys := make([]string, 0, len(rec))
	for k := range rec {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
