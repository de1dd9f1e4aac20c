package commands

import (
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/systmms/kvsync/tests/testutil"
)

func TestDoctorCommand_AllHealthy(t *testing.T) {
	t.Parallel()

	r := newTestRun(t, targetEnv, "")
	require.NoError(t, os.WriteFile(r.path("kvsync.yaml"), []byte("backend: cli\n"), 0600))

	code := r.run("doctor")

	require.Equal(t, 0, code, r.stderr.String())
	out := r.stdout.String()
	assert.Contains(t, out, "CHECK")
	assert.Contains(t, out, "STATUS")
	testutil.AssertLinesContain(t, out, []string{
		"/usr/bin/az",
		"sub-1 (from environment)",
		"kv-test (from environment)",
		r.path("kvsync.yaml"),
		"authenticated (cli backend)",
		"Summary: 5/5 checks passed",
	})
	assert.Equal(t, []string{"GetAccountInfo"}, r.fake.Calls())
}

func TestDoctorCommand_Failures(t *testing.T) {
	t.Parallel()

	r := newTestRun(t, nil, "")
	r.app.LookPath = func(file string) (string, error) {
		return "", errors.New("executable file not found in $PATH")
	}
	r.fake.AccountErr = errors.New("Please run 'az login' to setup account.")

	code := r.run("doctor", "--verbose")

	assert.Equal(t, 1, code)
	out := r.stdout.String()
	testutil.AssertLinesContain(t, out, []string{
		"az not found",
		"not authenticated",
		"Summary: 1/5 checks passed",
		"subscription: Pass --subscription or set AZURE_SUBSCRIPTION_ID",
		"session: Run 'az login' or 'kvsync login' to authenticate",
	})
	assert.NotContains(t, r.fake.Calls(), "Login")
}

func TestDoctorCommand_SDKBackend(t *testing.T) {
	t.Parallel()

	r := newTestRun(t, map[string]string{
		"AZURE_SUBSCRIPTION_ID": "sub-1",
		"AZURE_KEYVAULT_NAME":   "kv-test",
		"AZURE_TENANT_ID":       "tenant",
		"AZURE_CLIENT_ID":       "client-1",
	}, "")
	r.app.LookPath = func(file string) (string, error) {
		return "", errors.New("executable file not found in $PATH")
	}

	code := r.run("doctor", "--backend", "sdk")

	require.Equal(t, 0, code, r.stdout.String())
	testutil.AssertLinesContain(t, r.stdout.String(), []string{
		"not needed for service principal",
		"service principal client-1 (secret from keyring)",
		"Summary: 6/6 checks passed",
	})
}

func TestCompletionCommand(t *testing.T) {
	t.Parallel()

	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			t.Parallel()

			r := newTestRun(t, nil, "")
			code := r.run("completion", shell)

			require.Equal(t, 0, code, r.stderr.String())
			assert.Contains(t, r.stdout.String(), "kvsync")
		})
	}
}
