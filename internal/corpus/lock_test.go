package corpus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataDirLock_LockUnlock(t *testing.T) {
	lock := NewDataDirLock(t.TempDir())

	require.NoError(t, lock.Lock())
	assert.True(t, lock.IsLocked())
	assert.FileExists(t, lock.Path())

	require.NoError(t, lock.Unlock())
	assert.False(t, lock.IsLocked())
	assert.NoError(t, lock.Unlock(), "double unlock is a no-op")
}

func TestDataDirLock_TryLockContention(t *testing.T) {
	dir := t.TempDir()
	holder := NewDataDirLock(dir)
	require.NoError(t, holder.Lock())
	defer func() { _ = holder.Unlock() }()

	// flock locks are per open file description, so a second handle contends.
	other := NewDataDirLock(dir)
	ok, err := other.TryLock()
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, holder.Unlock())
	ok, err = other.TryLock()
	require.NoError(t, err)
	assert.True(t, ok)
	require.NoError(t, other.Unlock())
}
