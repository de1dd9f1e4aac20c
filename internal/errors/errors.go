package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a failure for the top-level handler.
type Kind int

const (
	// KindUnknown is any error that was not classified.
	KindUnknown Kind = iota
	// KindAuthFailure means no Azure session could be established.
	KindAuthFailure
	// KindConfigMissing means a required setting (subscription, vault) is absent or invalid.
	KindConfigMissing
	// KindMalformedInput means the transfer file or one of its records is invalid.
	KindMalformedInput
	// KindRemoteCallFailure means the vault client reported a failure.
	KindRemoteCallFailure
	// KindUserCancelled means the confirmation prompt was declined.
	KindUserCancelled
)

func (k Kind) String() string {
	switch k {
	case KindAuthFailure:
		return "auth failure"
	case KindConfigMissing:
		return "missing configuration"
	case KindMalformedInput:
		return "malformed input"
	case KindRemoteCallFailure:
		return "remote call failure"
	case KindUserCancelled:
		return "cancelled"
	default:
		return "error"
	}
}

// Error is a classified failure of a single operation.
type Error struct {
	Op   string
	Kind Kind
	Err  error
}

// E builds a classified error. Err may be nil.
func E(op string, kind Kind, err error) *Error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Err != nil:
		return e.Op + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Err.Error()
	case e.Op != "":
		return e.Op + ": " + e.Kind.String()
	default:
		return e.Kind.String()
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrCancelled is returned when the user declines the confirmation prompt.
var ErrCancelled = E("", KindUserCancelled, errors.New("operation cancelled"))

// KindOf returns the kind of the outermost classified error in the chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	var ce ConfigError
	if errors.As(err, &ce) {
		return KindConfigMissing
	}
	return KindUnknown
}

// As is errors.As, re-exported so callers importing this package under the
// errors name keep access to it.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// IsCancelled reports whether err means the user declined the operation.
func IsCancelled(err error) bool {
	return KindOf(err) == KindUserCancelled
}

// ExitCode maps an error to the process exit status.
func ExitCode(err error) int {
	if err == nil || IsCancelled(err) {
		return 0
	}
	return 1
}

// UserError represents an error that should be shown to the user with helpful context
type UserError struct {
	Message    string
	Suggestion string
	Details    string
	Err        error
}

func (e UserError) Error() string {
	var parts []string

	if e.Message != "" {
		parts = append(parts, e.Message)
	} else if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}

	if e.Details != "" {
		parts = append(parts, "\n  Details: "+e.Details)
	}

	if e.Suggestion != "" {
		parts = append(parts, "\n  💡 Try: "+e.Suggestion)
	}

	return strings.Join(parts, "")
}

func (e UserError) Unwrap() error {
	return e.Err
}

// ConfigError represents a configuration error with helpful context
type ConfigError struct {
	Field      string
	Value      interface{}
	Message    string
	Suggestion string
}

func (e ConfigError) Error() string {
	msg := "Configuration error"
	if e.Field != "" {
		msg += fmt.Sprintf(" in field '%s'", e.Field)
	}
	if e.Value != nil {
		msg += fmt.Sprintf(" (value: %v)", e.Value)
	}
	msg += ": " + e.Message

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// CommandError represents a command execution error
type CommandError struct {
	Command    string
	ExitCode   int
	Message    string
	Stderr     string
	Suggestion string
}

func (e CommandError) Error() string {
	msg := fmt.Sprintf("Command '%s' failed", e.Command)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" (exit code: %d)", e.ExitCode)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if stderr := strings.TrimSpace(e.Stderr); stderr != "" {
		msg += "\n" + stderr
	}

	if e.Suggestion != "" {
		msg += "\n  💡 " + e.Suggestion
	}

	return msg
}

// AzureSuggestion returns a hint for common az CLI and Key Vault failures.
func AzureSuggestion(err error) string {
	if err == nil {
		return ""
	}
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "executable file not found") || strings.Contains(errStr, "command not found"):
		return "Install the Azure CLI: https://learn.microsoft.com/cli/azure/install-azure-cli"
	case strings.Contains(errStr, "az login") || strings.Contains(errStr, "unauthorized") || strings.Contains(errStr, "401"):
		return "Run 'az login' or 'kvsync login' to authenticate"
	case strings.Contains(errStr, "forbidden") || strings.Contains(errStr, "403"):
		return "Check the Key Vault access policy or RBAC role: Get, List and Set on secrets are required"
	case strings.Contains(errStr, "secretnotfound") || strings.Contains(errStr, "404"):
		return "Verify the secret exists. Secret names are case-sensitive"
	case strings.Contains(errStr, "subscription"):
		return "List available subscriptions with 'az account list -o table'"
	case strings.Contains(errStr, "vault") && strings.Contains(errStr, "not found"):
		return "Check the vault name and that it lives in the selected subscription"
	case strings.Contains(errStr, "throttled") || strings.Contains(errStr, "429"):
		return "Key Vault throttled the request. Wait a moment and run again"
	}

	return ""
}

// SimplifyError simplifies complex error messages for users
func SimplifyError(err error) error {
	if err == nil {
		return nil
	}

	// Already a user-friendly error
	var ue UserError
	if errors.As(err, &ue) {
		return err
	}
	var ce ConfigError
	if errors.As(err, &ce) {
		return err
	}
	var cmdErr CommandError
	if errors.As(err, &cmdErr) {
		return err
	}

	errStr := err.Error()

	if strings.Contains(errStr, "permission denied") {
		return UserError{
			Message:    "Permission denied",
			Suggestion: "Check file permissions or run with appropriate privileges",
			Err:        err,
		}
	}

	if strings.Contains(errStr, "no such file or directory") {
		return UserError{
			Message:    "File or directory not found",
			Suggestion: "Verify the path exists and is spelled correctly",
			Err:        err,
		}
	}

	return err
}
