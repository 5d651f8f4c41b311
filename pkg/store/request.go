package store

import "database/sql"

// Request is the mutable context threaded through the hook pipeline. One
// stage owns it at a time; hooks never run concurrently for a single
// request.
type Request struct {
	Kind  Kind
	Stage Stage

	// Params carries path-level identifiers, keyed by field name (the id
	// under the store's configured IDField). Hooks treat it as read-only.
	Params map[string]string

	// Body is the incoming payload for write kinds. Hooks may rewrite it;
	// the backend persists whatever is present when the write step runs.
	Body Body

	// Record is the previously fetched row, when the pipeline has one
	// (updates, upserts of existing rows, deletes).
	Record Record

	// Result is the row the operation produced: the written record for
	// writes, the fetched record for reads.
	Result Record

	// Rows holds list results for KindList.
	Rows []Record

	// Tx is the transaction the write runs in, nil when the backend does
	// not support transactions or for read kinds.
	Tx *sql.Tx

	// Backend is bound to Tx for the duration of the request. Hooks that
	// query or mutate storage must go through it.
	Backend Backend
}

// ID returns the request's record identifier under the given field name, or
// the empty string.
func (r *Request) ID(idField string) string {
	return r.Params[idField]
}
