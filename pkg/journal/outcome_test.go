package journal_test

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/pseudomuto/oraclekeeper/pkg/connection"
	"github.com/pseudomuto/oraclekeeper/pkg/journal"
	"github.com/pseudomuto/oraclekeeper/pkg/script"
	"github.com/pseudomuto/oraclekeeper/pkg/testutil"
	"github.com/pseudomuto/oraclekeeper/pkg/utils"
	"github.com/stretchr/testify/require"
)

// flakyPool fails journal inserts while failInserts is set.
type flakyPool struct {
	*connection.Pool
	failInserts bool
}

type flakyConn struct {
	connection.Conn
	p *flakyPool
}

func (p *flakyPool) WithTx(ctx context.Context, fn func(context.Context, connection.Conn) error) error {
	return p.Pool.WithTx(ctx, func(ctx context.Context, conn connection.Conn) error {
		return fn(ctx, &flakyConn{Conn: conn, p: p})
	})
}

func (c *flakyConn) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	if c.p.failInserts && strings.HasPrefix(query, "INSERT INTO") {
		return nil, errors.New("connection reset")
	}

	return c.Conn.ExecContext(ctx, query, args...)
}

func TestJournal_RecordOutcome_FailedInsertKeepsCheckpoint(t *testing.T) {
	tests := []struct {
		name          string
		failureIndex  *int
		failureRemark *string
	}{
		{name: "new failure", failureIndex: utils.Ptr(2), failureRemark: utils.Ptr("second failure")},
		{name: "success", failureIndex: nil, failureRemark: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := &flakyPool{Pool: testutil.OpenPool(t)}
			j := journal.New(journal.Config{DB: db, Dialect: testutil.SQLiteDialect{}})
			ctx := t.Context()

			s := &script.Script{Name: "002_broken", Contents: brokenScript}
			require.NoError(t, j.RecordOutcome(ctx, s, nil, utils.Ptr(1), utils.Ptr("first failure")))

			db.failInserts = true
			err := j.RecordOutcome(ctx, s, nil, tt.failureIndex, tt.failureRemark)
			require.ErrorContains(t, err, "failed to insert journal entry: connection reset")

			index, err := j.FailureIndex(ctx, s.Name)
			require.NoError(t, err)
			require.Equal(t, 1, index)

			entries, err := j.Entries(ctx)
			require.NoError(t, err)
			require.Len(t, entries, 1)
			require.Equal(t, "first failure", *entries[0].FailureRemark)

			valid, err := j.Validate(ctx, s, nil)
			require.NoError(t, err)
			require.True(t, valid)
		})
	}
}
