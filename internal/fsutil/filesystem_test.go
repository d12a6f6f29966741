package fsutil

import (
	"errors"
	"io"
	"io/fs"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOSFileSystem_CreateMakesParents(t *testing.T) {
	fsys := OSFileSystem{}
	name := filepath.Join(t.TempDir(), "plots", "w.txt")

	w, err := fsys.Create(name)
	require.NoError(t, err)
	_, err = io.WriteString(w, "-1.5\n")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.True(t, fsys.Exists(name))
	data, err := fsys.ReadFile(name)
	require.NoError(t, err)
	assert.Equal(t, "-1.5\n", string(data))

	require.NoError(t, fsys.Remove(name))
	assert.False(t, fsys.Exists(name))
}

func TestOSFileSystem_WriteFileAndOpen(t *testing.T) {
	fsys := OSFileSystem{}
	name := filepath.Join(t.TempDir(), "a", "b", "grid.asc")
	require.NoError(t, fsys.WriteFile(name, []byte("ncols 2\n")))

	r, err := fsys.Open(name)
	require.NoError(t, err)
	defer r.Close()
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, "ncols 2\n", string(data))
}

func TestMemFS_CreateVisibleOnClose(t *testing.T) {
	m := NewMemFS()
	w, err := m.Create("out/w.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("1\n2\n"))
	require.NoError(t, err)

	data, err := m.ReadFile("out/w.txt")
	require.NoError(t, err)
	assert.Empty(t, data)

	require.NoError(t, w.Close())
	data, err = m.ReadFile("out/w.txt")
	require.NoError(t, err)
	assert.Equal(t, "1\n2\n", string(data))

	_, err = w.Write([]byte("x"))
	assert.ErrorIs(t, err, errClosed)
	assert.ErrorIs(t, w.Close(), errClosed)
}

func TestMemFS_MissingFile(t *testing.T) {
	m := NewMemFS()
	_, err := m.ReadFile("nope")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	_, err = m.Open("nope")
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.ErrorIs(t, m.Remove("nope"), fs.ErrNotExist)
	assert.False(t, m.Exists("nope"))
}

func TestMemFS_FilesSortedAndCleaned(t *testing.T) {
	m := NewMemFS()
	require.NoError(t, m.WriteFile("b.txt", nil))
	require.NoError(t, m.WriteFile("./a//c.txt", []byte("x")))
	assert.Equal(t, []string{"a/c.txt", "b.txt"}, m.Files())
	assert.True(t, m.Exists("a/c.txt"))
}

func TestMemFS_ReadFileReturnsCopy(t *testing.T) {
	m := NewMemFS()
	require.NoError(t, m.WriteFile("f", []byte("abc")))
	data, err := m.ReadFile("f")
	require.NoError(t, err)
	data[0] = 'z'
	again, err := m.ReadFile("f")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(again))
}

func TestWriteWith(t *testing.T) {
	m := NewMemFS()
	err := WriteWith(m, "x.txt", func(w io.Writer) error {
		_, err := io.WriteString(w, "ok")
		return err
	})
	require.NoError(t, err)
	data, _ := m.ReadFile("x.txt")
	assert.Equal(t, "ok", string(data))

	boom := errors.New("boom")
	err = WriteWith(m, "y.txt", func(io.Writer) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "write y.txt")
}
