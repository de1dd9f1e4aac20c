// Package session makes sure an authenticated Azure session and the right
// subscription are active before any vault operation runs.
package session

import (
	"context"
	"fmt"

	dserrors "github.com/systmms/kvsync/internal/errors"
	"github.com/systmms/kvsync/internal/logging"
	"github.com/systmms/kvsync/internal/vault"
)

// Manager drives the session half of a vault.Client.
type Manager struct {
	client vault.Session
	logger *logging.Logger
}

// New creates a session manager.
func New(client vault.Session, logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Manager{client: client, logger: logger}
}

// EnsureSession checks for a valid session and runs the login flow once if
// there is none. A failed login is an auth failure; there is no retry.
func (m *Manager) EnsureSession(ctx context.Context) error {
	err := m.client.GetAccountInfo(ctx)
	if err == nil {
		m.logger.Debug("Azure session is valid")
		return nil
	}
	m.logger.Debug("account check failed: %v", err)

	m.logger.Warn("You are not logged in to Azure. Initiating 'az login'...")
	if err := m.client.Login(ctx); err != nil {
		m.logger.Error("Azure login failed. Please try logging in manually.")
		return dserrors.E("login", dserrors.KindAuthFailure, dserrors.UserError{
			Message:    "Azure login failed",
			Suggestion: "Run 'az login' manually and retry",
			Err:        err,
		})
	}
	m.logger.Info("Login successful!")
	return nil
}

// SwitchSubscription selects subscription id. An empty id is a no-op.
func (m *Manager) SwitchSubscription(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}

	m.logger.Info("Switching to subscription: %s", id)
	if err := m.client.SelectSubscription(ctx, id); err != nil {
		m.logger.Error("Error switching to subscription %s.", id)
		var cmdErr dserrors.CommandError
		if dserrors.As(err, &cmdErr) {
			m.logger.Detail(cmdErr.Stderr)
		}
		return dserrors.E("select subscription", dserrors.KindRemoteCallFailure,
			fmt.Errorf("switch to subscription %s: %w", id, err))
	}
	m.logger.Info("Subscription switched successfully.")
	return nil
}
