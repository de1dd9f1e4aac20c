// Package config resolves kvsync's runtime configuration once at startup.
//
// Every value is taken from the first source that sets it: command-line
// flags, the process environment, the dotenv file, then the YAML defaults
// file. Neither file has to exist.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	dserrors "github.com/systmms/kvsync/internal/errors"
	"github.com/systmms/kvsync/internal/vault"
)

// Environment variables consulted after flags.
const (
	EnvSubscription = "AZURE_SUBSCRIPTION_ID"
	EnvVaultName    = "AZURE_KEYVAULT_NAME"
	EnvTenantID     = "AZURE_TENANT_ID"
	EnvClientID     = "AZURE_CLIENT_ID"
	EnvClientSecret = "AZURE_CLIENT_SECRET"
)

// Backends.
const (
	BackendCLI = "cli"
	BackendSDK = "sdk"
)

// Defaults.
const (
	DefaultConfigPath = "kvsync.yaml"
	DefaultEnvFile    = ".env"
	DefaultAzPath     = "az"
)

// LookupEnv has the signature of os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// Flags holds the raw command-line values. Empty means not given.
type Flags struct {
	Direction    string
	Filename     string
	VaultName    string
	Subscription string
	Tags         []string
	NamePattern  string
	Verbose      bool
	Backend      string
	AssumeYes    bool
	ConfigPath   string
	EnvFile      string
	MetricsFile  string
	Timeout      time.Duration
	AzPath       string
	Debug        bool
	NoColor      bool
}

// File is the YAML defaults file.
type File struct {
	Subscription string            `yaml:"subscription"`
	Vault        string            `yaml:"vault"`
	Backend      string            `yaml:"backend"`
	AzPath       string            `yaml:"az_path"`
	MetricsFile  string            `yaml:"metrics_file"`
	Timeout      time.Duration     `yaml:"timeout"`
	Tags         map[string]string `yaml:"tags"`
}

// Config is the resolved configuration passed to every component.
type Config struct {
	Direction    string
	Filename     string
	VaultName    string
	Subscription string
	Tags         map[string]string
	NamePattern  string
	Verbose      bool
	Backend      string
	AssumeYes    bool
	MetricsFile  string
	Timeout      time.Duration
	AzPath       string
	Debug        bool
	NoColor      bool

	Credentials vault.CredentialConfig

	// Sources records where Subscription and VaultName came from, for doctor.
	Sources map[string]string
}

// Resolve builds a Config from flags, the environment and the optional files.
func Resolve(flags Flags, lookup LookupEnv) (*Config, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	dotenv, err := readDotenv(flags.EnvFile)
	if err != nil {
		return nil, err
	}
	file, err := LoadFile(flags.ConfigPath)
	if err != nil {
		return nil, err
	}

	env := func(key string) (string, string) {
		if v, ok := lookup(key); ok && v != "" {
			return v, "environment"
		}
		if v := dotenv[key]; v != "" {
			return v, flags.EnvFile
		}
		return "", ""
	}

	cfg := &Config{
		Direction:   flags.Direction,
		Filename:    flags.Filename,
		NamePattern: flags.NamePattern,
		Verbose:     flags.Verbose,
		AssumeYes:   flags.AssumeYes,
		Debug:       flags.Debug,
		NoColor:     flags.NoColor,
		Sources:     make(map[string]string),
	}

	cfg.Subscription, cfg.Sources["subscription"] = pick(flags.Subscription, env, EnvSubscription, file.Subscription, flags.ConfigPath)
	cfg.VaultName, cfg.Sources["vault"] = pick(flags.VaultName, env, EnvVaultName, file.Vault, flags.ConfigPath)

	cfg.Backend = firstNonEmpty(flags.Backend, file.Backend, BackendCLI)
	cfg.AzPath = firstNonEmpty(flags.AzPath, file.AzPath, DefaultAzPath)
	cfg.MetricsFile = firstNonEmpty(flags.MetricsFile, file.MetricsFile)
	cfg.Timeout = flags.Timeout
	if cfg.Timeout == 0 {
		cfg.Timeout = file.Timeout
	}

	if len(flags.Tags) > 0 {
		if cfg.Tags, err = ParseTags(flags.Tags); err != nil {
			return nil, err
		}
	} else {
		cfg.Tags = file.Tags
	}

	cfg.Credentials.TenantID, _ = env(EnvTenantID)
	cfg.Credentials.ClientID, _ = env(EnvClientID)
	cfg.Credentials.ClientSecret, _ = env(EnvClientSecret)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func pick(flag string, env func(string) (string, string), key, fileValue, filePath string) (string, string) {
	if flag != "" {
		return flag, "flag"
	}
	if v, src := env(key); v != "" {
		return v, src
	}
	if fileValue != "" {
		return fileValue, filePath
	}
	return "", ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendCLI, BackendSDK:
	default:
		return dserrors.ConfigError{
			Field:      "backend",
			Value:      c.Backend,
			Message:    "unknown backend",
			Suggestion: "Use 'cli' (az CLI) or 'sdk' (Azure SDK)",
		}
	}
	if c.Timeout < 0 {
		return dserrors.ConfigError{
			Field:   "timeout",
			Value:   c.Timeout,
			Message: "timeout must not be negative",
		}
	}
	return nil
}

// RequireTarget checks that a subscription and a vault name were resolved.
func (c *Config) RequireTarget() error {
	if c.Subscription == "" {
		return dserrors.ConfigError{
			Field:      "subscription",
			Message:    "Azure subscription ID is not set",
			Suggestion: "Pass --subscription or set " + EnvSubscription,
		}
	}
	if c.VaultName == "" {
		return dserrors.ConfigError{
			Field:      "vaultname",
			Message:    "Key Vault name is not set",
			Suggestion: "Pass --vaultname or set " + EnvVaultName,
		}
	}
	return nil
}

// LoadFile parses the YAML defaults file. A missing file or empty path yields
// an empty File.
func LoadFile(path string) (File, error) {
	var f File
	if path == "" {
		return f, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return f, nil
		}
		return f, dserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, dserrors.ConfigError{
			Field:      "config",
			Value:      path,
			Message:    "invalid YAML syntax in configuration file",
			Suggestion: "Check for indentation errors, missing quotes, or invalid characters. Use a YAML validator",
		}
	}
	return f, nil
}

func readDotenv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}
	values, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, dserrors.ConfigError{
			Field:      "env-file",
			Value:      path,
			Message:    fmt.Sprintf("cannot parse dotenv file: %v", err),
			Suggestion: "Use KEY=value lines",
		}
	}
	return values, nil
}

// ParseTags turns key=value entries into a filter. Each entry is one pair,
// split at the first '='. Values are kept exactly as given, since Key Vault
// tag values may contain commas and spaces.
func ParseTags(entries []string) (map[string]string, error) {
	tags := make(map[string]string)
	for _, entry := range entries {
		k, v, ok := strings.Cut(entry, "=")
		if !ok || strings.TrimSpace(k) == "" {
			return nil, dserrors.ConfigError{
				Field:      "tags",
				Value:      entry,
				Message:    "tag filter must be key=value",
				Suggestion: "Use --tags env=prod --tags team=core",
			}
		}
		tags[k] = v
	}
	return tags, nil
}
