package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"time"

	"github.com/systmms/kvsync/internal/config"
	dserrors "github.com/systmms/kvsync/internal/errors"
	"github.com/systmms/kvsync/internal/logging"
	"github.com/systmms/kvsync/internal/vault"
	pkgexec "github.com/systmms/kvsync/pkg/exec"
)

// ClientFactory builds the vault client for a resolved configuration.
type ClientFactory func(cfg *config.Config, logger *logging.Logger) (vault.Client, error)

// App carries the process-level collaborators every command uses. Tests
// replace the streams, environment and client factory.
type App struct {
	Flags  config.Flags
	Config *config.Config
	Logger *logging.Logger

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	LookupEnv config.LookupEnv
	LookPath  func(file string) (string, error)
	Executor  pkgexec.Executor
	Keyring   vault.Keyring
	NewClient ClientFactory
	Now       func() time.Time
}

// NewApp wires the real terminal, environment, az executor and OS keyring.
func NewApp() *App {
	app := &App{
		Stdin:     os.Stdin,
		Stdout:    os.Stdout,
		Stderr:    os.Stderr,
		LookupEnv: os.LookupEnv,
		LookPath:  exec.LookPath,
		Executor:  pkgexec.DefaultExecutor(),
		Keyring:   vault.OSKeyring(),
		Now:       time.Now,
	}
	app.NewClient = app.defaultClient
	return app
}

// setup builds the logger and resolves the configuration from the parsed flags.
func (a *App) setup() error {
	a.Logger = logging.NewWithWriter(a.Stderr, a.Flags.Debug, a.Flags.NoColor)

	cfg, err := config.Resolve(a.Flags, a.LookupEnv)
	if err != nil {
		return err
	}
	a.Config = cfg
	a.Logger.Debug("backend=%s az=%s subscription from %q, vault from %q",
		cfg.Backend, cfg.AzPath, cfg.Sources["subscription"], cfg.Sources["vault"])
	return nil
}

// runContext bounds the run by the configured timeout, if any.
func (a *App) runContext(parent context.Context) (context.Context, context.CancelFunc) {
	if a.Config != nil && a.Config.Timeout > 0 {
		return context.WithTimeout(parent, a.Config.Timeout)
	}
	return context.WithCancel(parent)
}

func (a *App) azCLIClient(cfg *config.Config, logger *logging.Logger) *vault.AzCLIClient {
	return vault.NewAzCLIClient(
		vault.WithExecutor(a.Executor),
		vault.WithBinary(cfg.AzPath),
		vault.WithLogger(logger),
	)
}

// defaultClient returns the az CLI client, or for the sdk backend an
// azsecrets client that authenticates with a service principal when one is
// configured and with the default credential chain otherwise.
func (a *App) defaultClient(cfg *config.Config, logger *logging.Logger) (vault.Client, error) {
	cli := a.azCLIClient(cfg, logger)
	if cfg.Backend != config.BackendSDK {
		return cli, nil
	}

	creds, err := cfg.Credentials.ResolveClientSecret(a.Keyring)
	if err != nil {
		logger.Warn("Could not read client secret from keyring: %v", err)
	}
	cred, servicePrincipal, err := vault.NewCredential(creds)
	if err != nil {
		return nil, dserrors.E("credentials", dserrors.KindAuthFailure, err)
	}

	var session vault.Session = cli
	if servicePrincipal {
		logger.Debug("using service principal %s", creds.ClientID)
		session = &vault.TokenSession{Credential: cred, Logger: logger}
	}
	return vault.NewSDKClient(cred, session, vault.WithSDKLogger(logger)), nil
}

// Exit reports err and returns the process exit status. A declined
// confirmation prints a neutral message and exits 0.
func (a *App) Exit(err error) int {
	if err == nil {
		return 0
	}
	if dserrors.IsCancelled(err) {
		fmt.Fprintln(a.Stdout, "Operation cancelled.")
		return 0
	}

	err = dserrors.SimplifyError(err)
	fmt.Fprintf(a.Stderr, "Error: %v\n", err)

	var cmdErr dserrors.CommandError
	if dserrors.As(err, &cmdErr) && cmdErr.Suggestion == "" {
		if hint := dserrors.AzureSuggestion(err); hint != "" {
			fmt.Fprintf(a.Stderr, "  💡 %s\n", hint)
		}
	}
	return dserrors.ExitCode(err)
}
