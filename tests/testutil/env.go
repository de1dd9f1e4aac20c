package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/systmms/kvsync/internal/vault"
)

// LookupEnv returns an os.LookupEnv replacement backed by vars, so tests can
// resolve configuration without touching the process environment.
//
// Example usage:
//
//	cfg, err := config.Resolve(flags, LookupEnv(map[string]string{
//	    "AZURE_SUBSCRIPTION_ID": "sub-1",
//	}))
func LookupEnv(vars map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := vars[key]
		return v, ok
	}
}

// WriteTransferFile writes records as a transfer file in a fresh temp dir and
// returns its path.
func WriteTransferFile(t *testing.T, records []vault.Record) string {
	t.Helper()

	data, err := json.MarshalIndent(records, "", "    ")
	require.NoError(t, err)
	return WriteRawFile(t, "secrets.json", string(data))
}

// WriteRawFile writes content to name in a fresh temp dir and returns its path.
func WriteRawFile(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}
