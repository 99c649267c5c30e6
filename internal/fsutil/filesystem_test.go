package fsutil

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryFileSystemRoundTrip(t *testing.T) {
	t.Parallel()
	fs := NewMemoryFileSystem()

	require.NoError(t, fs.MkdirAll("a/b/c", 0755))
	assert.True(t, fs.Exists("a/b"))

	require.NoError(t, fs.WriteFile("a/b/c/x.txt", []byte("hello"), 0644))
	data, err := fs.ReadFile("a/b/c/x.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(data))

	_, err = fs.ReadFile("a/b/c/missing.txt")
	assert.Error(t, err)
}

func TestMemoryFileSystemCreateAndAppend(t *testing.T) {
	t.Parallel()
	fs := NewMemoryFileSystem()

	f, err := fs.Create("log.csv")
	require.NoError(t, err)
	_, err = f.Write([]byte("one\n"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	a, err := fs.OpenAppend("log.csv")
	require.NoError(t, err)
	_, err = a.Write([]byte("two\n"))
	require.NoError(t, err)
	require.NoError(t, a.Close())

	data, err := fs.ReadFile("log.csv")
	require.NoError(t, err)
	assert.Equal(t, "one\ntwo\n", string(data))
}

func TestMemoryFileSystemFailWrites(t *testing.T) {
	t.Parallel()
	fs := NewMemoryFileSystem()
	boom := errors.New("disk full")
	fs.FailWrites("lidar3d", boom)

	err := fs.WriteFile("session/lidar3d/top/frame.ply", []byte("x"), 0644)
	assert.ErrorIs(t, err, boom)

	// Other paths are unaffected.
	require.NoError(t, fs.WriteFile("session/images/front.png", []byte("x"), 0644))

	fs.FailWrites("lidar3d", nil)
	assert.NoError(t, fs.WriteFile("session/lidar3d/top/frame.ply", []byte("x"), 0644))
}
