package errors_test

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/systmms/kvsync/internal/errors"
)

// TestUserErrorFormatting verifies UserError displays properly
func TestUserErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.UserError{
		Message:    "Operation failed",
		Details:    "Connection timeout",
		Suggestion: "Check network connectivity",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "Operation failed")
	assert.Contains(t, errMsg, "Connection timeout")
	assert.Contains(t, errMsg, "Check network connectivity")
	assert.Contains(t, errMsg, "💡")
}

// TestConfigErrorFormatting verifies ConfigError displays with context
func TestConfigErrorFormatting(t *testing.T) {
	t.Parallel()

	err := errors.ConfigError{
		Field:      "subscription",
		Message:    "No subscription ID provided",
		Suggestion: "Set AZURE_SUBSCRIPTION_ID or use --subscription",
	}

	errMsg := err.Error()

	assert.Contains(t, errMsg, "subscription")
	assert.Contains(t, errMsg, "No subscription ID provided")
	assert.Contains(t, errMsg, "AZURE_SUBSCRIPTION_ID")
}

func TestCommandErrorIncludesStderr(t *testing.T) {
	t.Parallel()

	err := errors.CommandError{
		Command:  "az account set --subscription sub-1",
		ExitCode: 1,
		Stderr:   "ERROR: The subscription of 'sub-1' doesn't exist in cloud 'AzureCloud'.\n",
	}

	errMsg := err.Error()
	assert.Contains(t, errMsg, "az account set")
	assert.Contains(t, errMsg, "exit code: 1")
	assert.Contains(t, errMsg, "doesn't exist in cloud")
}

func TestKindOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want errors.Kind
	}{
		{"nil", nil, errors.KindUnknown},
		{"plain", stderrors.New("boom"), errors.KindUnknown},
		{"classified", errors.E("push", errors.KindMalformedInput, nil), errors.KindMalformedInput},
		{"wrapped", fmt.Errorf("run: %w", errors.E("pull", errors.KindRemoteCallFailure, stderrors.New("x"))), errors.KindRemoteCallFailure},
		{"config error", errors.ConfigError{Message: "missing"}, errors.KindConfigMissing},
		{"cancelled", errors.ErrCancelled, errors.KindUserCancelled},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, errors.KindOf(tt.err))
		})
	}
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, errors.ExitCode(nil))
	assert.Equal(t, 0, errors.ExitCode(errors.ErrCancelled))
	assert.Equal(t, 0, errors.ExitCode(fmt.Errorf("confirm: %w", errors.ErrCancelled)))
	assert.Equal(t, 1, errors.ExitCode(errors.E("session", errors.KindAuthFailure, nil)))
	assert.Equal(t, 1, errors.ExitCode(errors.ConfigError{Message: "missing"}))
	assert.Equal(t, 1, errors.ExitCode(stderrors.New("anything")))
}

func TestErrorMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "push: bad record", errors.E("push", errors.KindMalformedInput, stderrors.New("bad record")).Error())
	assert.Equal(t, "login: auth failure", errors.E("login", errors.KindAuthFailure, nil).Error())
	assert.Equal(t, "operation cancelled", errors.ErrCancelled.Error())
}

func TestAzureSuggestion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		errMsg   string
		contains string
	}{
		{"exec: \"az\": executable file not found in $PATH", "Install the Azure CLI"},
		{"Please run 'az login' to setup account.", "az login"},
		{"(Forbidden) The user does not have secrets get permission", "access policy"},
		{"(SecretNotFound) A secret with (name/id) x was not found", "case-sensitive"},
		{"Status: 429 throttled", "Wait a moment"},
	}

	for _, tt := range tests {
		t.Run(tt.errMsg, func(t *testing.T) {
			t.Parallel()
			assert.Contains(t, errors.AzureSuggestion(stderrors.New(tt.errMsg)), tt.contains)
		})
	}

	assert.Empty(t, errors.AzureSuggestion(nil))
	assert.Empty(t, errors.AzureSuggestion(stderrors.New("something unrelated")))
}

func TestSimplifyError(t *testing.T) {
	t.Parallel()

	assert.Nil(t, errors.SimplifyError(nil))

	ue := errors.UserError{Message: "already friendly"}
	assert.Equal(t, ue, errors.SimplifyError(ue))

	simplified := errors.SimplifyError(stderrors.New("open secrets.json: no such file or directory"))
	assert.Contains(t, simplified.Error(), "File or directory not found")

	wrapped := errors.E("push", errors.KindMalformedInput, stderrors.New("open x: permission denied"))
	simplified = errors.SimplifyError(wrapped)
	assert.Contains(t, simplified.Error(), "Permission denied")
	assert.Equal(t, errors.KindMalformedInput, errors.KindOf(simplified))
}
