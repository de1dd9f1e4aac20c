package testutil

import (
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dserrors "github.com/systmms/kvsync/internal/errors"
	"github.com/systmms/kvsync/internal/vault"
)

// AssertNoSecretLeak verifies that none of the secret values appear in output.
//
// Example usage:
//
//	AssertNoSecretLeak(t, logOutput, []string{"hunter2", "abc123"})
func AssertNoSecretLeak(t *testing.T, output string, secrets []string) {
	t.Helper()

	for _, secret := range secrets {
		assert.NotContains(t, output, secret,
			"Secret %q should be hidden, but appears in output", secret)
	}
}

// AssertTransferFile verifies that path holds exactly the records in want.
func AssertTransferFile(t *testing.T, path string, want []vault.Record) {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err, "Failed to read transfer file %s", path)

	var got []vault.Record
	require.NoError(t, json.Unmarshal(data, &got), "Transfer file %s is not a JSON array of records", path)
	if want == nil {
		want = []vault.Record{}
	}
	if got == nil {
		got = []vault.Record{}
	}
	assert.Equal(t, want, got, "Transfer file contents mismatch for %s", path)
}

// AssertFileContents verifies that a file exists and contains expected content.
func AssertFileContents(t *testing.T, path string, expected string) {
	t.Helper()

	assert.FileExists(t, path, "File should exist: %s", path)
	data, err := os.ReadFile(path)
	assert.NoError(t, err, "Failed to read file %s", path)
	assert.Equal(t, expected, string(data), "File contents mismatch for %s", path)
}

// AssertErrorKind verifies that err is classified as kind.
func AssertErrorKind(t *testing.T, err error, kind dserrors.Kind) {
	t.Helper()

	if assert.Error(t, err, "Expected a %s error", kind) {
		assert.Equal(t, kind, dserrors.KindOf(err), "Unexpected error kind for %v", err)
	}
}

// AssertLinesContain verifies that specific lines are present in multi-line output.
//
// Example usage:
//
//	AssertLinesContain(t, output, []string{"Login successful!", "Secrets saved to"})
func AssertLinesContain(t *testing.T, output string, expectedLines []string) {
	t.Helper()

	lines := strings.Split(output, "\n")

	for _, expected := range expectedLines {
		found := false
		for _, line := range lines {
			if strings.Contains(line, expected) {
				found = true
				break
			}
		}

		assert.True(t, found,
			"Expected to find line containing %q in output", expected)
	}
}
