package transfer

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	dserrors "github.com/systmms/kvsync/internal/errors"
	"github.com/systmms/kvsync/internal/vault"
)

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secrets.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestReadFile(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, `[
  {"name": "db-pass", "value": "hunter2", "tags": {"env": "prod"}},
  {"name": "api-key", "value": "abc"},
  {"name": "nulltags", "value": "x", "tags": null}
]`)

	records, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, []vault.Record{
		{Name: "db-pass", Value: "hunter2", Tags: map[string]string{"env": "prod"}},
		{Name: "api-key", Value: "abc"},
		{Name: "nulltags", Value: "x"},
	}, records)
}

func TestReadFile_Malformed(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantMsg string
	}{
		{"not json", `{not json`, "invalid JSON"},
		{"object instead of array", `{"name": "a", "value": "b"}`, "schema validation failed"},
		{"array of strings", `["a", "b"]`, "schema validation failed"},
		{"numeric value", `[{"name": "a", "value": 1}]`, "schema validation failed"},
		{"bad record named by index", `[{"name": "a", "value": "b"}, {"name": 3}]`, "record 1"},
		{"non-string tag", `[{"name": "a", "value": "b", "tags": {"n": 1}}]`, "schema validation failed"},
		{"empty file", ``, "file is empty"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := ReadFile(writeTemp(t, tt.content))
			require.Error(t, err)
			assert.Equal(t, dserrors.KindMalformedInput, dserrors.KindOf(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestReadFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := ReadFile(filepath.Join(t.TempDir(), "missing.json"))
	require.Error(t, err)
	assert.Equal(t, dserrors.KindMalformedInput, dserrors.KindOf(err))
	assert.Contains(t, err.Error(), "File or directory not found")
}

func TestWriteFile_Format(t *testing.T) {
	t.Parallel()

	path := writeTemp(t, "previous content that must disappear entirely")
	err := WriteFile(path, []vault.Record{
		{Name: "db-pass", Value: "p<&>", Tags: map[string]string{"team": "core", "env": "prod"}},
	})
	require.NoError(t, err)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `[
    {
        "name": "db-pass",
        "value": "p<&>",
        "tags": {
            "env": "prod",
            "team": "core"
        }
    }
]
`, string(got))
}

func TestWriteFile_Empty(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "out.json")
	require.NoError(t, WriteFile(path, nil))

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]\n", string(got))
}
