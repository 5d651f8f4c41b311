// Package dbtest opens throwaway sqlite databases for tests.
package dbtest

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// GetTestDB returns an isolated in-memory database. Each call opens a
// uniquely named shared-cache database so parallel tests never see each
// other's tables. The caller closes it.
func GetTestDB(ctx context.Context) (*sql.DB, error) {
	connStr := fmt.Sprintf("file:testdb_%s?mode=memory&cache=shared", ulid.Make().String())
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
