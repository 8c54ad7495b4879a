package oracle

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/oraclekeeper/pkg/connection"
	"github.com/pseudomuto/oraclekeeper/pkg/utils"
	"github.com/sijms/go-ora/v2/network"
)

// errTableNotFound is ORA-00942: table or view does not exist.
const errTableNotFound = 942

// Dialect implements journal.Dialect for Oracle.
type Dialect struct{}

// Placeholder returns ":n".
func (Dialect) Placeholder(n int) string {
	return ":" + strconv.Itoa(n)
}

// QualifiedName returns SCHEMA.TABLE, or TABLE when schema is empty.
func (Dialect) QualifiedName(schema, table string) string {
	return utils.QualifiedName(schema, table)
}

// TableExists probes the data dictionary: user_tables for the connected
// user, all_tables when a schema is given.
func (Dialect) TableExists(ctx context.Context, conn connection.Conn, schema, table string) (bool, error) {
	query := "SELECT COUNT(*) FROM user_tables WHERE table_name = :1"
	args := []any{utils.CanonicalIdentifier(table)}

	if strings.TrimSpace(schema) != "" {
		query = "SELECT COUNT(*) FROM all_tables WHERE owner = :1 AND table_name = :2"
		args = []any{utils.CanonicalIdentifier(schema), utils.CanonicalIdentifier(table)}
	}

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return false, err
	}
	defer func() { _ = rows.Close() }()

	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return false, err
		}
	}

	return count > 0, rows.Err()
}

// CreateTable returns the journal table DDL.
func (d Dialect) CreateTable(schema, table string) []string {
	return []string{fmt.Sprintf(`CREATE TABLE %s (
    id NUMBER(19) GENERATED BY DEFAULT ON NULL AS IDENTITY,
    script_name VARCHAR2(255) NOT NULL,
    applied_at TIMESTAMP NOT NULL,
    remark VARCHAR2(255),
    failure_statement_index NUMBER(10),
    failure_remark VARCHAR2(4000),
    script_hash VARCHAR2(64),
    CONSTRAINT %s PRIMARY KEY (id)
)`, d.QualifiedName(schema, table), primaryKeyName(table))}
}

// IsNotFound reports whether err is ORA-00942.
func (Dialect) IsNotFound(err error) bool {
	if err == nil {
		return false
	}

	var oraErr *network.OracleError
	if errors.As(err, &oraErr) {
		return oraErr.ErrCode == errTableNotFound
	}

	return strings.Contains(err.Error(), "ORA-00942")
}

func primaryKeyName(table string) string {
	name := "PK_" + utils.CanonicalIdentifier(table)
	if len(name) > 128 {
		name = name[:128]
	}

	return name
}
