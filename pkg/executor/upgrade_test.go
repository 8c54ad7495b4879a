package executor_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/pseudomuto/oraclekeeper/pkg/executor"
	"github.com/pseudomuto/oraclekeeper/pkg/script"
	"github.com/stretchr/testify/require"
)

func upgradeScripts(second string) []*script.Script {
	return []*script.Script{
		{Name: "001_create", Contents: "CREATE TABLE t (v INTEGER)\n/\n"},
		{Name: "002_seed", Contents: second},
		{Name: "003_more", Contents: "INSERT INTO t VALUES (3);\n/\n"},
	}
}

func TestExecutor_Upgrade(t *testing.T) {
	f := setup(t)
	ctx := t.Context()

	results, err := f.exec.Upgrade(ctx, upgradeScripts("INSERT INTO t VALUES (1);\n/\nBROKEN SQL;\n/\n"), nil)
	require.NoError(t, err)
	require.Len(t, results, 2, "execution stops at the first failure")

	require.Equal(t, "001_create", results[0].Script)
	require.Equal(t, executor.StatusSuccess, results[0].Status)
	require.Equal(t, 1, results[0].StatementsApplied)
	require.Equal(t, 1, results[0].TotalStatements)

	require.Equal(t, "002_seed", results[1].Script)
	require.Equal(t, executor.StatusFailed, results[1].Status)
	require.Equal(t, 1, results[1].StatementsApplied)
	require.Equal(t, 2, results[1].TotalStatements)

	var stmtErr *executor.StatementError
	require.True(t, errors.As(results[1].Error, &stmtErr))
	require.Equal(t, 1, stmtErr.Index)

	results, err = f.exec.Upgrade(ctx, upgradeScripts("INSERT INTO t VALUES (1);\n/\nINSERT INTO t VALUES (2);\n/\n"), nil)
	require.NoError(t, err)
	require.Len(t, results, 3)

	require.Equal(t, executor.StatusSkipped, results[0].Status)

	require.Equal(t, executor.StatusSuccess, results[1].Status)
	require.Equal(t, 1, results[1].ResumedAt)
	require.Equal(t, 2, results[1].StatementsApplied)
	require.NoError(t, results[1].Error)

	require.Equal(t, executor.StatusSuccess, results[2].Status)
	require.Equal(t, 0, results[2].ResumedAt)

	require.Equal(t, []int64{1, 2, 3}, f.values(t))

	completed, err := f.journal.ListCompletedScripts(ctx)
	require.NoError(t, err)
	require.Equal(t, []string{"001_create", "002_seed", "003_more"}, completed)
}

func TestExecutor_Upgrade_Drift(t *testing.T) {
	f := setup(t)
	ctx := t.Context()

	_, err := f.exec.Upgrade(ctx, upgradeScripts("INSERT INTO t VALUES (1);\n/\nBROKEN SQL;\n/\n"), nil)
	require.NoError(t, err)

	results, err := f.exec.Upgrade(ctx, upgradeScripts("INSERT INTO t VALUES (9);\n/\nINSERT INTO t VALUES (2);\n/\n"), nil)
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, executor.StatusFailed, results[1].Status)

	var drift *executor.DriftError
	require.True(t, errors.As(results[1].Error, &drift))
	require.Equal(t, "002_seed", drift.Script)
	require.Equal(t, []int64{1}, f.values(t))
}

func TestExecutor_Pending(t *testing.T) {
	f := setup(t)
	ctx := t.Context()
	scripts := upgradeScripts("INSERT INTO t VALUES (1);\n/\nBROKEN SQL;\n/\n")

	pending, err := f.exec.Pending(ctx, scripts)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	for _, p := range pending {
		require.Zero(t, p.ResumeIndex)
		require.Nil(t, p.FailureRemark)
	}

	_, err = f.exec.Upgrade(ctx, scripts, nil)
	require.NoError(t, err)

	pending, err = f.exec.Pending(ctx, scripts)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	require.Equal(t, "002_seed", pending[0].Script.Name)
	require.Equal(t, 1, pending[0].ResumeIndex)
	require.NotNil(t, pending[0].FailureRemark)
	require.Contains(t, *pending[0].FailureRemark, "syntax error")

	require.Equal(t, "003_more", pending[1].Script.Name)
	require.Zero(t, pending[1].ResumeIndex)
}

func TestExecutor_Upgrade_Lock(t *testing.T) {
	t.Run("held for the duration of the run", func(t *testing.T) {
		var calls []string
		lock := func(context.Context) (func(context.Context) error, error) {
			calls = append(calls, "acquire")
			return func(context.Context) error {
				calls = append(calls, "release")
				return nil
			}, nil
		}

		f := setup(t, func(c *executor.Config) { c.Lock = lock })
		results, err := f.exec.Upgrade(t.Context(), upgradeScripts("INSERT INTO t VALUES (1);\n/\n"), nil)
		require.NoError(t, err)
		require.Len(t, results, 3)
		require.Equal(t, []string{"acquire", "release"}, calls)
	})

	t.Run("nothing runs without the lock", func(t *testing.T) {
		lock := func(context.Context) (func(context.Context) error, error) {
			return nil, errors.New("held by another session")
		}

		f := setup(t, func(c *executor.Config) { c.Lock = lock })
		results, err := f.exec.Upgrade(t.Context(), upgradeScripts("INSERT INTO t VALUES (1);\n/\n"), nil)
		require.EqualError(t, err, "failed to acquire migration lock: held by another session")
		require.Nil(t, results)
		require.Empty(t, f.db.execs)
	})
}

func TestErrors(t *testing.T) {
	drift := &executor.DriftError{Script: "002_seed", Index: 1, Expected: "h1:a", Actual: "h1:b"}
	require.EqualError(t, drift, "script 002_seed changed before statement 1, which it previously failed at (expected h1:a, got h1:b)")

	cause := errors.New("ORA-00942: table or view does not exist")
	stmtErr := &executor.StatementError{Script: "002_seed", Index: 3, Statement: "SELECT * FROM nope", Err: cause}
	require.EqualError(t, stmtErr, "statement 3 of 002_seed failed: ORA-00942: table or view does not exist")
	require.ErrorIs(t, stmtErr, cause)
	require.Equal(t, cause, errors.Cause(stmtErr))
}
