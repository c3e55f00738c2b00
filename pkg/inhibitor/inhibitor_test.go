package inhibitor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type inhibitCall struct {
	what, who, why, mode string
}

type fakeConn struct {
	t      *testing.T
	calls  []inhibitCall
	err    error
	closed bool
}

func (c *fakeConn) Inhibit(what, who, why, mode string) (*os.File, error) {
	c.calls = append(c.calls, inhibitCall{what, who, why, mode})
	if c.err != nil {
		return nil, c.err
	}
	return os.Create(filepath.Join(c.t.TempDir(), "inhibit"))
}

func (c *fakeConn) Close() { c.closed = true }

func newTestLock(t *testing.T, conn *fakeConn) (*Lock, *int) {
	dials := 0
	l := New("raid-inhibitor", "RAID array unhealthy")
	l.What = "shutdown:sleep"
	l.Dial = func() (Conn, error) {
		dials++
		return conn, nil
	}
	return l, &dials
}

func TestAcquireRelease(t *testing.T) {
	conn := &fakeConn{t: t}
	l, dials := newTestLock(t, conn)

	require.NoError(t, l.Acquire("md0 - active, degraded, recover"))
	assert.True(t, l.IsHolding())
	require.Len(t, conn.calls, 1)
	assert.Equal(t, inhibitCall{"shutdown:sleep", "raid-inhibitor", "md0 - active, degraded, recover", "block"}, conn.calls[0])

	// Already holding: no second inhibit call.
	require.NoError(t, l.Acquire("other"))
	assert.Len(t, conn.calls, 1)

	require.NoError(t, l.Release())
	assert.False(t, l.IsHolding())

	// Release when not holding is a no-op.
	require.NoError(t, l.Release())

	require.NoError(t, l.Acquire(""))
	assert.Equal(t, "RAID array unhealthy", conn.calls[1].why)
	assert.Equal(t, 1, *dials, "connection is reused")
}

func TestAcquireInhibitError(t *testing.T) {
	conn := &fakeConn{t: t, err: errors.New("access denied")}
	l, _ := newTestLock(t, conn)

	err := l.Acquire("md0 - inactive")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	assert.False(t, l.IsHolding())
}

func TestAcquireDialError(t *testing.T) {
	l := New("raid-inhibitor", "x")
	l.Dial = func() (Conn, error) { return nil, errors.New("no system bus") }

	err := l.Acquire("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logind")
}

func TestUpdateAndClose(t *testing.T) {
	conn := &fakeConn{t: t}
	l, _ := newTestLock(t, conn)

	require.NoError(t, l.Acquire("first"))
	require.NoError(t, l.Update("second"))
	assert.True(t, l.IsHolding())
	require.Len(t, conn.calls, 2)
	assert.Equal(t, "second", conn.calls[1].why)

	require.NoError(t, l.Close())
	assert.False(t, l.IsHolding())
	assert.True(t, conn.closed)
}
