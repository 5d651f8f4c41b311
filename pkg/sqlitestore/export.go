package sqlitestore

import (
	"context"
	"errors"
	"fmt"
	"io"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/gzip"

	"github.com/mobily-enterprises/jsonreststores-3/pkg/store"
)

// Export writes the rows matching q to w as gzip-compressed NDJSON, one
// record per line. Pass an ordered query to get a stable dump.
func (b *Backend) Export(ctx context.Context, w io.Writer, q store.Query) (int, error) {
	rows, err := b.List(ctx, q)
	if err != nil {
		return 0, err
	}
	gz := gzip.NewWriter(w)
	enc := json.NewEncoder(gz)
	for i, rec := range rows {
		if err := enc.Encode(rec); err != nil {
			gz.Close()
			return i, fmt.Errorf("sqlitestore: export %s: %w", b.cfg.Table, err)
		}
	}
	if err := gz.Close(); err != nil {
		return len(rows), fmt.Errorf("sqlitestore: export %s: flush: %w", b.cfg.Table, err)
	}
	return len(rows), nil
}

// Import reads a gzip-compressed NDJSON stream and inserts every record with
// its stored fields intact, positions included. Run it inside a transaction
// via WithTx when a partial import must not survive a failure.
func (b *Backend) Import(ctx context.Context, r io.Reader) (int, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return 0, fmt.Errorf("sqlitestore: import %s: %w", b.cfg.Table, err)
	}
	defer gz.Close()

	dec := json.NewDecoder(gz)
	n := 0
	for {
		var rec store.Record
		if err := dec.Decode(&rec); err != nil {
			if errors.Is(err, io.EOF) {
				return n, nil
			}
			return n, fmt.Errorf("sqlitestore: import %s: decode record %d: %w", b.cfg.Table, n+1, err)
		}
		if err := b.Insert(ctx, rec); err != nil {
			return n, err
		}
		n++
	}
}
