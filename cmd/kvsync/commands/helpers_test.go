package commands

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/systmms/kvsync/internal/config"
	"github.com/systmms/kvsync/internal/logging"
	"github.com/systmms/kvsync/internal/vault"
	"github.com/systmms/kvsync/tests/fakes"
	"github.com/systmms/kvsync/tests/testutil"
)

type testRun struct {
	app    *App
	fake   *fakes.FakeVault
	keys   *memKeyring
	stdout *bytes.Buffer
	stderr *bytes.Buffer
	dir    string
}

type memKeyring struct {
	items map[string]string
}

func (k *memKeyring) Get(service, user string) (string, error) {
	v, ok := k.items[service+"/"+user]
	if !ok {
		return "", errors.New("secret not found in keyring")
	}
	return v, nil
}

func (k *memKeyring) Set(service, user, password string) error {
	k.items[service+"/"+user] = password
	return nil
}

// newTestRun wires an App to a kv-test fake with the given environment and stdin.
func newTestRun(t *testing.T, env map[string]string, stdin string) *testRun {
	t.Helper()

	fv := fakes.NewFakeVault("kv-test")
	fv.Add("db-pass", "hunter2", map[string]string{"env": "prod"})
	fv.Add("api-key", "abc123", map[string]string{"env": "dev"})

	r := &testRun{
		fake:   fv,
		keys:   &memKeyring{items: map[string]string{}},
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
		dir:    t.TempDir(),
	}
	r.app = &App{
		Stdin:     strings.NewReader(stdin),
		Stdout:    r.stdout,
		Stderr:    r.stderr,
		LookupEnv: testutil.LookupEnv(env),
		LookPath: func(file string) (string, error) {
			return "/usr/bin/" + file, nil
		},
		Executor: testutil.NewMockCommandExecutor(),
		Keyring:  r.keys,
		NewClient: func(cfg *config.Config, logger *logging.Logger) (vault.Client, error) {
			return fv, nil
		},
		Now: func() time.Time { return time.Unix(1700000000, 0) },
	}
	return r
}

func (r *testRun) path(name string) string {
	return filepath.Join(r.dir, name)
}

// run executes kvsync with args and returns the exit status. Config and
// dotenv files default to paths inside the run's temp dir.
func (r *testRun) run(args ...string) int {
	full := append([]string{
		"--config", r.path("kvsync.yaml"),
		"--env-file", r.path(".env"),
		"--no-color",
	}, args...)

	root := NewRootCommand(r.app, BuildInfo{Version: "test"})
	root.SetArgs(full)
	return r.app.Exit(root.Execute())
}

var targetEnv = map[string]string{
	config.EnvSubscription: "sub-1",
	config.EnvVaultName:    "kv-test",
}
