package oracle

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pkg/errors"
)

// maxLockWait is DBMS_LOCK.MAXWAIT, the largest timeout REQUEST accepts.
const maxLockWait = 32767

const (
	requestLockSQL = `DECLARE
    l_handle VARCHAR2(128);
BEGIN
    DBMS_LOCK.ALLOCATE_UNIQUE(:1, l_handle);
    :2 := DBMS_LOCK.REQUEST(l_handle, DBMS_LOCK.X_MODE, :3, FALSE);
END;`

	releaseLockSQL = `DECLARE
    l_handle VARCHAR2(128);
BEGIN
    DBMS_LOCK.ALLOCATE_UNIQUE(:1, l_handle);
    :2 := DBMS_LOCK.RELEASE(l_handle);
END;`
)

// ErrLockTimeout is returned when another session holds the lock for longer
// than the requested timeout.
var ErrLockTimeout = errors.New("timed out waiting for migration lock")

type (
	// Lock is an exclusive DBMS_LOCK advisory lock held by a dedicated session.
	// The lock is released when Release is called or the session ends.
	Lock struct {
		conn *sql.Conn
		name string
	}

	// LockError reports an unexpected DBMS_LOCK return code.
	LockError struct {
		Name string
		Op   string
		Code int64
	}
)

func (e *LockError) Error() string {
	return fmt.Sprintf("DBMS_LOCK.%s for %q returned %d (%s)", e.Op, e.Name, e.Code, lockResultText(e.Code))
}

// Lock acquires the named exclusive lock, waiting at most timeout. Another
// run holding the lock makes this return ErrLockTimeout.
func (c *Client) Lock(ctx context.Context, name string, timeout time.Duration) (*Lock, error) {
	conn, err := c.DB().Conn(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to acquire lock session")
	}

	var result int64
	if _, err := conn.ExecContext(ctx, requestLockSQL, name, sql.Out{Dest: &result}, lockWaitSeconds(timeout)); err != nil {
		_ = conn.Close()
		return nil, errors.Wrapf(err, "failed to request lock %s", name)
	}

	switch result {
	case 0, 4: // granted, or already owned by this session
		return &Lock{conn: conn, name: name}, nil
	case 1:
		_ = conn.Close()
		return nil, errors.Wrapf(ErrLockTimeout, "lock %s", name)
	default:
		_ = conn.Close()
		return nil, &LockError{Name: name, Op: "REQUEST", Code: result}
	}
}

// Name returns the lock name.
func (l *Lock) Name() string {
	return l.name
}

// Release releases the lock and returns its session to the pool.
func (l *Lock) Release(ctx context.Context) error {
	defer func() { _ = l.conn.Close() }()

	var result int64
	if _, err := l.conn.ExecContext(ctx, releaseLockSQL, l.name, sql.Out{Dest: &result}); err != nil {
		return errors.Wrapf(err, "failed to release lock %s", l.name)
	}

	if result != 0 {
		return &LockError{Name: l.name, Op: "RELEASE", Code: result}
	}

	return nil
}

func lockWaitSeconds(timeout time.Duration) int64 {
	secs := int64(timeout / time.Second)
	switch {
	case secs < 0:
		return 0
	case secs > maxLockWait:
		return maxLockWait
	default:
		return secs
	}
}

func lockResultText(code int64) string {
	switch code {
	case 1:
		return "timeout"
	case 2:
		return "deadlock"
	case 3:
		return "parameter error"
	case 4:
		return "not owned"
	case 5:
		return "illegal lock handle"
	default:
		return "unknown"
	}
}
