package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pseudomuto/oraclekeeper/pkg/connection"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// SQLiteDialect is a journal dialect for SQLite, used to exercise the journal
// and executor against a real database/sql driver without Oracle.
type SQLiteDialect struct{}

// OpenSQLite opens a fresh SQLite database in a temporary directory. The
// database is closed when the test finishes.
func OpenSQLite(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "oraclekeeper.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.PingContext(t.Context()))
	return db
}

// OpenPool opens a fresh SQLite database wrapped in a connection.Pool.
func OpenPool(t *testing.T) *connection.Pool {
	t.Helper()
	return connection.New(OpenSQLite(t))
}

func (SQLiteDialect) Placeholder(int) string {
	return "?"
}

func (SQLiteDialect) QualifiedName(_, table string) string {
	return table
}

func (SQLiteDialect) TableExists(ctx context.Context, conn connection.Conn, _, table string) (bool, error) {
	rows, err := conn.QueryContext(ctx, "SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?", table)
	if err != nil {
		return false, err
	}
	defer func() { _ = rows.Close() }()

	var count int
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return false, err
		}
	}

	return count > 0, rows.Err()
}

func (SQLiteDialect) CreateTable(_, table string) []string {
	return []string{fmt.Sprintf(`CREATE TABLE %s (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	script_name VARCHAR(255) NOT NULL,
	applied_at TIMESTAMP NOT NULL,
	remark VARCHAR(255),
	failure_statement_index INTEGER,
	failure_remark VARCHAR(4000),
	script_hash VARCHAR(64)
)`, table)}
}

func (SQLiteDialect) IsNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "no such table")
}
