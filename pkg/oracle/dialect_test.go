package oracle_test

import (
	"fmt"
	"testing"

	"github.com/pkg/errors"
	"github.com/pseudomuto/oraclekeeper/pkg/oracle"
	"github.com/sijms/go-ora/v2/network"
	"github.com/stretchr/testify/require"
)

func TestDialect_Placeholder(t *testing.T) {
	d := oracle.Dialect{}
	require.Equal(t, ":1", d.Placeholder(1))
	require.Equal(t, ":7", d.Placeholder(7))
}

func TestDialect_QualifiedName(t *testing.T) {
	d := oracle.Dialect{}
	require.Equal(t, "SCHEMAVERSIONS", d.QualifiedName("", "schemaversions"))
	require.Equal(t, "APP.SCHEMAVERSIONS", d.QualifiedName("app", "SchemaVersions"))
}

func TestDialect_CreateTable(t *testing.T) {
	stmts := oracle.Dialect{}.CreateTable("app", "journal")
	require.Len(t, stmts, 1)

	ddl := stmts[0]
	require.Contains(t, ddl, "CREATE TABLE APP.JOURNAL (")
	require.Contains(t, ddl, "id NUMBER(19) GENERATED BY DEFAULT ON NULL AS IDENTITY")
	require.Contains(t, ddl, "script_name VARCHAR2(255) NOT NULL")
	require.Contains(t, ddl, "applied_at TIMESTAMP NOT NULL")
	require.Contains(t, ddl, "failure_statement_index NUMBER(10)")
	require.Contains(t, ddl, "failure_remark VARCHAR2(4000)")
	require.Contains(t, ddl, "script_hash VARCHAR2(64)")
	require.Contains(t, ddl, "CONSTRAINT PK_JOURNAL PRIMARY KEY (id)")
}

func TestDialect_IsNotFound(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected bool
	}{
		{
			name:     "nil",
			err:      nil,
			expected: false,
		},
		{
			name:     "ORA-00942",
			err:      &network.OracleError{ErrCode: 942, ErrMsg: "ORA-00942: table or view does not exist"},
			expected: true,
		},
		{
			name:     "wrapped ORA-00942",
			err:      errors.Wrap(&network.OracleError{ErrCode: 942, ErrMsg: "ORA-00942: table or view does not exist"}, "query failed"),
			expected: true,
		},
		{
			name:     "other oracle error",
			err:      &network.OracleError{ErrCode: 1031, ErrMsg: "ORA-01031: insufficient privileges"},
			expected: false,
		},
		{
			name:     "message only",
			err:      fmt.Errorf("ORA-00942: table or view does not exist"),
			expected: true,
		},
		{
			name:     "unrelated",
			err:      errors.New("connection reset by peer"),
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.expected, oracle.Dialect{}.IsNotFound(tt.err))
		})
	}
}
