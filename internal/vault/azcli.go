package vault

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	dserrors "github.com/systmms/kvsync/internal/errors"
	"github.com/systmms/kvsync/internal/logging"
	pkgexec "github.com/systmms/kvsync/pkg/exec"
)

// DefaultAzBinary is the Azure CLI executable looked up on PATH.
const DefaultAzBinary = "az"

const showQuery = "{name: name, value: value, tags: tags}"

// AzCLIClient implements Client by invoking the Azure CLI.
type AzCLIClient struct {
	binary   string
	executor pkgexec.Executor
	logger   *logging.Logger
}

// AzCLIOption configures an AzCLIClient.
type AzCLIOption func(*AzCLIClient)

// WithExecutor sets the executor used to run az (for testing).
func WithExecutor(executor pkgexec.Executor) AzCLIOption {
	return func(c *AzCLIClient) {
		c.executor = executor
	}
}

// WithBinary overrides the az executable path.
func WithBinary(binary string) AzCLIOption {
	return func(c *AzCLIClient) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(logger *logging.Logger) AzCLIOption {
	return func(c *AzCLIClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewAzCLIClient creates an az CLI backed client.
func NewAzCLIClient(opts ...AzCLIOption) *AzCLIClient {
	c := &AzCLIClient{
		binary:   DefaultAzBinary,
		executor: pkgexec.DefaultExecutor(),
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Binary returns the az executable the client invokes.
func (c *AzCLIClient) Binary() string {
	return c.binary
}

// ListSecrets runs `az keyvault secret list` with a JMESPath query that keeps
// only identifiers of secrets matching filter.
func (c *AzCLIClient) ListSecrets(ctx context.Context, vault string, filter map[string]string) ([]string, error) {
	stdout, err := c.run(ctx, "keyvault", "secret", "list",
		"--vault-name", vault,
		"--query", ListQuery(filter),
		"-o", "json")
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := json.Unmarshal(stdout, &ids); err != nil {
		return nil, fmt.Errorf("parse secret list for vault %s: %w", vault, err)
	}
	return ids, nil
}

// ShowSecret runs `az keyvault secret show --id` projected to name, value and tags.
func (c *AzCLIClient) ShowSecret(ctx context.Context, id string) (Record, error) {
	stdout, err := c.run(ctx, "keyvault", "secret", "show",
		"--id", id,
		"--query", showQuery,
		"-o", "json")
	if err != nil {
		return Record{}, err
	}

	var rec Record
	if err := json.Unmarshal(stdout, &rec); err != nil {
		return Record{}, fmt.Errorf("parse secret %s: %w", id, err)
	}
	return rec, nil
}

// SetSecret runs `az keyvault secret set`.
func (c *AzCLIClient) SetSecret(ctx context.Context, vault, name, value string, tags []string) error {
	args := []string{"keyvault", "secret", "set",
		"--vault-name", vault,
		"--name", name,
		"--value", value,
	}
	if len(tags) > 0 {
		args = append(args, "--tags")
		args = append(args, tags...)
	}
	// The value is on the command line; keep it out of debug output.
	c.logger.Debug("%s keyvault secret set --vault-name %s --name %s --value %s", c.binary, vault, name, logging.Secret(value))
	_, err := c.exec(ctx, args)
	return err
}

// GetAccountInfo runs `az account show`.
func (c *AzCLIClient) GetAccountInfo(ctx context.Context) error {
	_, err := c.run(ctx, "account", "show")
	return err
}

// Login runs `az login` attached to the terminal.
func (c *AzCLIClient) Login(ctx context.Context) error {
	c.logger.Debug("%s login", c.binary)
	if err := c.executor.RunInteractive(ctx, c.binary, "login"); err != nil {
		return dserrors.CommandError{
			Command:  c.binary + " login",
			ExitCode: pkgexec.ExitCode(err),
			Message:  err.Error(),
		}
	}
	return nil
}

// SelectSubscription runs `az account set --subscription`.
func (c *AzCLIClient) SelectSubscription(ctx context.Context, id string) error {
	_, err := c.run(ctx, "account", "set", "--subscription", id)
	return err
}

func (c *AzCLIClient) run(ctx context.Context, args ...string) ([]byte, error) {
	c.logger.Debug("%s %s", c.binary, strings.Join(args, " "))
	return c.exec(ctx, args)
}

func (c *AzCLIClient) exec(ctx context.Context, args []string) ([]byte, error) {
	stdout, stderr, err := c.executor.Execute(ctx, c.binary, args...)
	if err != nil {
		return nil, dserrors.CommandError{
			Command:  c.binary + " " + commandName(args),
			ExitCode: pkgexec.ExitCode(err),
			Message:  err.Error(),
			Stderr:   string(stderr),
		}
	}
	return stdout, nil
}

// commandName keeps the leading subcommand words and drops flags and their
// values, so errors never echo a secret value.
func commandName(args []string) string {
	var words []string
	for _, a := range args {
		if strings.HasPrefix(a, "-") {
			break
		}
		words = append(words, a)
	}
	return strings.Join(words, " ")
}

// ListQuery builds the JMESPath expression selecting identifiers of secrets
// whose tags equal every filter entry. Keys are emitted in sorted order.
func ListQuery(filter map[string]string) string {
	if len(filter) == 0 {
		return "[].id"
	}
	clauses := make([]string, 0, len(filter))
	for _, k := range SortedKeys(filter) {
		clauses = append(clauses, fmt.Sprintf("tags.%s == %s", jmesIdentifier(k), jmesRawString(filter[k])))
	}
	return fmt.Sprintf("[?%s].id", strings.Join(clauses, " && "))
}

var bareIdentifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// jmesIdentifier quotes tag keys that are not bare JMESPath identifiers,
// such as keys containing dashes.
func jmesIdentifier(key string) string {
	if bareIdentifier.MatchString(key) {
		return key
	}
	quoted, _ := json.Marshal(key)
	return string(quoted)
}

func jmesRawString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", `\'`) + "'"
}

var _ Client = (*AzCLIClient)(nil)
