// Package testutil provides testing utilities for kvsync.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	pkgexec "github.com/systmms/kvsync/pkg/exec"
)

// MockCommandExecutor provides a configurable mock for the az CLI client.
type MockCommandExecutor struct {
	mu sync.Mutex

	// Responses maps command patterns to their mock responses.
	// Key format: "command arg1 arg2" (space-separated command and args)
	Responses map[string]MockResponse

	// DefaultResponse is used when no matching pattern is found.
	DefaultResponse *MockResponse

	// RecordedCalls stores all calls made to Execute and RunInteractive for verification.
	RecordedCalls []RecordedCall

	// StrictMode causes Execute to fail if no matching response is found.
	StrictMode bool
}

// MockResponse defines the expected output for a mocked command.
type MockResponse struct {
	Stdout   []byte
	Stderr   []byte
	Err      error
	ExitCode int // Used to simulate exit codes when Err is nil
}

// RecordedCall stores information about a command execution.
type RecordedCall struct {
	Command     string
	Args        []string
	Interactive bool
}

// Line returns the call as a single space-separated string.
func (c RecordedCall) Line() string {
	return buildKey(c.Command, c.Args)
}

var _ pkgexec.Executor = (*MockCommandExecutor)(nil)

// NewMockCommandExecutor creates a new strict mock executor with empty responses.
func NewMockCommandExecutor() *MockCommandExecutor {
	return &MockCommandExecutor{
		Responses:     make(map[string]MockResponse),
		RecordedCalls: make([]RecordedCall, 0),
		StrictMode:    true,
	}
}

// Execute returns the mocked response for the given command.
func (m *MockCommandExecutor) Execute(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	resp, err := m.lookup(name, args, false)
	if err != nil {
		return nil, nil, err
	}
	return resp.Stdout, resp.Stderr, resp.Err
}

// RunInteractive records the call and returns the configured error.
func (m *MockCommandExecutor) RunInteractive(ctx context.Context, name string, args ...string) error {
	resp, err := m.lookup(name, args, true)
	if err != nil {
		return err
	}
	return resp.Err
}

func (m *MockCommandExecutor) lookup(name string, args []string, interactive bool) (MockResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.RecordedCalls = append(m.RecordedCalls, RecordedCall{
		Command:     name,
		Args:        append([]string(nil), args...),
		Interactive: interactive,
	})

	key := buildKey(name, args)

	if resp, ok := m.Responses[key]; ok {
		return resp, nil
	}

	// Longest matching prefix wins so overlapping patterns stay deterministic.
	best := ""
	for pattern := range m.Responses {
		if matchesPattern(key, pattern) && len(pattern) > len(best) {
			best = pattern
		}
	}
	if best != "" {
		return m.Responses[best], nil
	}

	if m.DefaultResponse != nil {
		return *m.DefaultResponse, nil
	}

	if m.StrictMode {
		return MockResponse{}, fmt.Errorf("mock: no response configured for command: %s", key)
	}

	return MockResponse{Stdout: []byte{}, Stderr: []byte{}}, nil
}

// buildKey creates a lookup key from command and arguments.
func buildKey(name string, args []string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}

// matchesPattern reports whether key starts with pattern. A trailing "*"
// in the pattern is ignored.
func matchesPattern(key, pattern string) bool {
	return strings.HasPrefix(key, strings.TrimSuffix(pattern, "*"))
}

// AddResponse registers a mock response for a specific command pattern.
func (m *MockCommandExecutor) AddResponse(commandPattern string, response MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses[commandPattern] = response
}

// AddJSONResponse is a convenience method to add a JSON response.
func (m *MockCommandExecutor) AddJSONResponse(commandPattern string, jsonData string) {
	m.AddResponse(commandPattern, MockResponse{
		Stdout: []byte(jsonData),
		Stderr: []byte{},
	})
}

// AddValueResponse marshals v and registers it as the command's stdout.
func (m *MockCommandExecutor) AddValueResponse(commandPattern string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("mock: marshal response: %v", err))
	}
	m.AddJSONResponse(commandPattern, string(data))
}

// AddErrorResponse adds an error response for a command pattern.
func (m *MockCommandExecutor) AddErrorResponse(commandPattern string, errMsg string, exitCode int) {
	m.AddResponse(commandPattern, MockResponse{
		Stdout:   []byte{},
		Stderr:   []byte(errMsg),
		Err:      fmt.Errorf("exit status %d", exitCode),
		ExitCode: exitCode,
	})
}

// Calls returns a copy of every recorded call in order.
func (m *MockCommandExecutor) Calls() []RecordedCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedCall(nil), m.RecordedCalls...)
}

// CallsWithPrefix returns recorded calls whose joined command line starts with prefix.
func (m *MockCommandExecutor) CallsWithPrefix(prefix string) []RecordedCall {
	var matches []RecordedCall
	for _, call := range m.Calls() {
		if strings.HasPrefix(call.Line(), prefix) {
			matches = append(matches, call)
		}
	}
	return matches
}

// CallCount returns the number of recorded calls.
func (m *MockCommandExecutor) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.RecordedCalls)
}

// Reset clears all recorded calls and responses.
func (m *MockCommandExecutor) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Responses = make(map[string]MockResponse)
	m.RecordedCalls = make([]RecordedCall, 0)
	m.DefaultResponse = nil
}

// AzMockResponses provides pre-configured responses for the Azure CLI.
type AzMockResponses struct{}

// AccountShow returns a mock `az account show` response for a signed-in user.
func (AzMockResponses) AccountShow(subscriptionID string) MockResponse {
	return MockResponse{
		Stdout: []byte(fmt.Sprintf(`{
			"environmentName": "AzureCloud",
			"id": "%s",
			"isDefault": true,
			"name": "Test Subscription",
			"state": "Enabled",
			"tenantId": "00000000-0000-0000-0000-000000000001",
			"user": {"name": "user@example.com", "type": "user"}
		}`, subscriptionID)),
	}
}

// NotLoggedIn returns the failure `az account show` produces without a session.
func (AzMockResponses) NotLoggedIn() MockResponse {
	return MockResponse{
		Stderr:   []byte("ERROR: Please run 'az login' to setup account.\n"),
		Err:      fmt.Errorf("exit status 1"),
		ExitCode: 1,
	}
}

// SecretIDs returns a `az keyvault secret list --query [].id` response.
func (AzMockResponses) SecretIDs(vault string, names ...string) MockResponse {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		ids = append(ids, SecretID(vault, name))
	}
	data, _ := json.Marshal(ids)
	return MockResponse{Stdout: data}
}

// SecretShow returns a `az keyvault secret show` response projected to name/value/tags.
func (AzMockResponses) SecretShow(name, value string, tags map[string]string) MockResponse {
	data, _ := json.Marshal(map[string]interface{}{
		"name":  name,
		"value": value,
		"tags":  tags,
	})
	return MockResponse{Stdout: data}
}

// SecretID builds the Key Vault identifier az reports for a secret.
func SecretID(vault, name string) string {
	return fmt.Sprintf("https://%s.vault.azure.net/secrets/%s", vault, name)
}
