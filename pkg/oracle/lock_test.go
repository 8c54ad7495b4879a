package oracle_test

import (
	"testing"

	"github.com/pseudomuto/oraclekeeper/pkg/oracle"
	"github.com/stretchr/testify/require"
)

func TestLockError(t *testing.T) {
	err := &oracle.LockError{Name: "oraclekeeper", Op: "REQUEST", Code: 2}
	require.EqualError(t, err, `DBMS_LOCK.REQUEST for "oraclekeeper" returned 2 (deadlock)`)

	err = &oracle.LockError{Name: "oraclekeeper", Op: "RELEASE", Code: 4}
	require.EqualError(t, err, `DBMS_LOCK.RELEASE for "oraclekeeper" returned 4 (not owned)`)
}
