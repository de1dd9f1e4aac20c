package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/zalando/go-keyring"

	dserrors "github.com/systmms/kvsync/internal/errors"
	"github.com/systmms/kvsync/internal/logging"
)

// KeyringService is the OS keyring service under which service-principal
// client secrets are stored, keyed by client ID.
const KeyringService = "kvsync"

// keyVaultScope is the OAuth scope for the Key Vault data plane.
const keyVaultScope = "https://vault.azure.net/.default"

// Keyring reads and writes secrets in the OS keyring.
type Keyring interface {
	Get(service, user string) (string, error)
	Set(service, user, password string) error
}

type osKeyring struct{}

func (osKeyring) Get(service, user string) (string, error) {
	return keyring.Get(service, user)
}

func (osKeyring) Set(service, user, password string) error {
	return keyring.Set(service, user, password)
}

// OSKeyring returns the platform keyring (Keychain, Secret Service, Credential Manager).
func OSKeyring() Keyring {
	return osKeyring{}
}

// CredentialConfig selects how the SDK client authenticates.
type CredentialConfig struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

// CredentialConfigFromEnv reads the standard AZURE_* service-principal variables.
func CredentialConfigFromEnv(getenv func(string) string) CredentialConfig {
	return CredentialConfig{
		TenantID:     getenv("AZURE_TENANT_ID"),
		ClientID:     getenv("AZURE_CLIENT_ID"),
		ClientSecret: getenv("AZURE_CLIENT_SECRET"),
	}
}

// ServicePrincipal reports whether enough is configured to attempt
// client-secret authentication.
func (c CredentialConfig) ServicePrincipal() bool {
	return c.TenantID != "" && c.ClientID != ""
}

// ResolveClientSecret fills ClientSecret from the keyring when it is not set.
// A missing keyring entry is not an error; the caller falls back to the
// default credential chain.
func (c CredentialConfig) ResolveClientSecret(kr Keyring) (CredentialConfig, error) {
	if c.ClientSecret != "" || !c.ServicePrincipal() || kr == nil {
		return c, nil
	}
	secret, err := kr.Get(KeyringService, c.ClientID)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return c, nil
		}
		return c, fmt.Errorf("read client secret from keyring: %w", err)
	}
	c.ClientSecret = secret
	return c, nil
}

// SaveClientSecret stores the service-principal secret for clientID in the keyring.
func SaveClientSecret(kr Keyring, clientID, secret string) error {
	if clientID == "" || secret == "" {
		return dserrors.ConfigError{
			Field:      "AZURE_CLIENT_ID",
			Message:    "client ID and client secret are required to store a credential",
			Suggestion: "Set AZURE_CLIENT_ID and AZURE_CLIENT_SECRET",
		}
	}
	if err := kr.Set(KeyringService, clientID, secret); err != nil {
		return fmt.Errorf("write client secret to keyring: %w", err)
	}
	return nil
}

// NewCredential builds the token credential for cfg. It returns a client
// secret credential when a full service principal is configured and the
// default Azure credential chain otherwise.
func NewCredential(cfg CredentialConfig) (azcore.TokenCredential, bool, error) {
	if cfg.ServicePrincipal() && cfg.ClientSecret != "" {
		cred, err := azidentity.NewClientSecretCredential(cfg.TenantID, cfg.ClientID, cfg.ClientSecret, nil)
		if err != nil {
			return nil, false, fmt.Errorf("failed to create client secret credential: %w", err)
		}
		return cred, true, nil
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create Azure credential: %w", err)
	}
	return cred, false, nil
}

// TokenSession satisfies the session half of Client with a token credential.
// It is used with service principals, where there is nothing interactive to
// do and no subscription context to select for data-plane calls.
type TokenSession struct {
	Credential azcore.TokenCredential
	Logger     *logging.Logger
}

// GetAccountInfo acquires a Key Vault token to prove the credential works.
func (s *TokenSession) GetAccountInfo(ctx context.Context) error {
	_, err := s.Credential.GetToken(ctx, policy.TokenRequestOptions{Scopes: []string{keyVaultScope}})
	return err
}

// Login retries token acquisition; a service principal has no interactive flow.
func (s *TokenSession) Login(ctx context.Context) error {
	return s.GetAccountInfo(ctx)
}

// SelectSubscription is a no-op: Key Vault data-plane calls are addressed by vault URL.
func (s *TokenSession) SelectSubscription(ctx context.Context, id string) error {
	if s.Logger != nil {
		s.Logger.Debug("subscription %s not needed for service principal data-plane access", id)
	}
	return nil
}
