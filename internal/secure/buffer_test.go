package secure

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSecureBuffer_Open(t *testing.T) {
	t.Parallel()

	// memguard zeroes the source buffer, so compare against a separate copy.
	secret := []byte("super-secret-data")
	expected := "super-secret-data"

	buf := NewSecureBuffer(secret)
	defer buf.Destroy()

	assert.Equal(t, len(expected), buf.Size())

	locked, err := buf.Open()
	require.NoError(t, err)
	defer locked.Destroy()

	assert.Equal(t, expected, string(locked.Bytes()))
}

func TestSecureBuffer_MultipleOpens(t *testing.T) {
	t.Parallel()

	buf := NewSecureBuffer([]byte("reusable"))
	defer buf.Destroy()

	for i := 0; i < 3; i++ {
		locked, err := buf.Open()
		require.NoError(t, err)
		assert.Equal(t, "reusable", string(locked.Bytes()))
		locked.Destroy()
	}
}

func TestSecureBuffer_Empty(t *testing.T) {
	t.Parallel()

	buf := NewSecureBuffer([]byte{})
	locked, err := buf.Open()
	require.NoError(t, err)
	defer locked.Destroy()

	assert.Empty(t, locked.Bytes())
	assert.Zero(t, buf.Size())
}

func TestSecureBuffer_Destroy(t *testing.T) {
	t.Parallel()

	buf := NewSecureBuffer([]byte("gone"))
	buf.Destroy()
	buf.Destroy()

	locked, err := buf.Open()
	require.NoError(t, err)
	defer locked.Destroy()

	assert.Empty(t, locked.Bytes())
	assert.Zero(t, buf.Size())
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "secrets.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"name":"a","value":"b"}]`), 0600))

	buf, err := ReadFile(path)
	require.NoError(t, err)
	defer buf.Destroy()

	locked, err := buf.Open()
	require.NoError(t, err)
	defer locked.Destroy()
	assert.Equal(t, `[{"name":"a","value":"b"}]`, string(locked.Bytes()))
}

func TestReadFile_EmptyAndMissing(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, nil, 0600))

	buf, err := ReadFile(empty)
	require.NoError(t, err)
	assert.Zero(t, buf.Size())

	_, err = ReadFile(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, os.WriteFile(path, []byte("old content that is longer"), 0600))

	data := []byte("[]\n")
	require.NoError(t, WriteFile(path, data, 0600))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(got))
	assert.Equal(t, []byte{0, 0, 0}, data, "source bytes are wiped")
}
