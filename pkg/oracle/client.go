package oracle

import (
	"context"
	"database/sql"
	"regexp"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/oraclekeeper/pkg/connection"
	go_ora "github.com/sijms/go-ora/v2"
)

// DriverName is the database/sql driver registered by go-ora.
const DriverName = "oracle"

// Client represents an Oracle database connection pool.
type Client struct {
	*connection.Pool
}

var plsqlPattern = regexp.MustCompile(
	`(?is)^(BEGIN|DECLARE|CREATE\s+(OR\s+REPLACE\s+)?((NON)?EDITIONABLE\s+)?(PROCEDURE|FUNCTION|PACKAGE|TRIGGER|TYPE|LIBRARY|JAVA))\b`,
)

// Open connects to the database identified by url and verifies the
// connection.
//
// Example:
//
//	client, err := oracle.Open(ctx, oracle.BuildURL("localhost", 1521, "FREEPDB1", "app", "secret"))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
func Open(ctx context.Context, url string) (*Client, error) {
	db, err := sql.Open(DriverName, url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open oracle connection")
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.Wrap(err, "failed to connect to oracle")
	}

	return &Client{
		Pool: connection.New(db, connection.WithStatementFilter(PrepareStatement)),
	}, nil
}

// BuildURL returns a go-ora connection URL.
func BuildURL(host string, port int, service, user, password string) string {
	return go_ora.BuildUrl(host, port, service, user, password, nil)
}

// Ping verifies the database is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return c.DB().PingContext(ctx)
}

// Version returns the database banner, e.g. "Oracle Database 23ai Free Release 23.0.0.0.0".
func (c *Client) Version(ctx context.Context) (string, error) {
	var banner string
	if err := c.DB().QueryRowContext(ctx, "SELECT banner FROM v$version WHERE ROWNUM = 1").Scan(&banner); err != nil {
		return "", errors.Wrap(err, "failed to query oracle version")
	}

	return banner, nil
}

// PrepareStatement turns a script statement into the text sent to the driver.
//
// Scripts follow SQL*Plus conventions where plain SQL statements may end with a
// semicolon. The driver rejects that terminator (ORA-00911), so it is removed.
// PL/SQL blocks and stored program units require theirs, and are left as is.
//
// Examples:
//   - "INSERT INTO t VALUES (1);" -> "INSERT INTO t VALUES (1)"
//   - "BEGIN NULL; END;" -> "BEGIN NULL; END;"
//   - "CREATE OR REPLACE PROCEDURE p AS BEGIN NULL; END;" -> unchanged
func PrepareStatement(stmt string) string {
	stmt = strings.TrimSpace(stmt)
	if IsPLSQL(stmt) {
		return stmt
	}

	return strings.TrimSpace(strings.TrimSuffix(stmt, ";"))
}

// IsPLSQL reports whether stmt is an anonymous PL/SQL block or creates a stored
// program unit. Leading comments are ignored.
func IsPLSQL(stmt string) bool {
	return plsqlPattern.MatchString(skipLeadingComments(stmt))
}

func skipLeadingComments(s string) string {
	for {
		s = strings.TrimSpace(s)

		switch {
		case strings.HasPrefix(s, "--"):
			idx := strings.IndexByte(s, '\n')
			if idx < 0 {
				return ""
			}
			s = s[idx+1:]
		case strings.HasPrefix(s, "/*"):
			idx := strings.Index(s, "*/")
			if idx < 0 {
				return ""
			}
			s = s[idx+2:]
		default:
			return s
		}
	}
}
