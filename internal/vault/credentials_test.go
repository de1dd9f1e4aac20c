package vault_test

import (
	"context"
	"errors"
	"testing"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"

	"github.com/systmms/kvsync/internal/vault"
)

type fakeKeyring struct {
	items  map[string]string
	getErr error
}

func (k *fakeKeyring) Get(service, user string) (string, error) {
	if k.getErr != nil {
		return "", k.getErr
	}
	v, ok := k.items[service+"/"+user]
	if !ok {
		return "", keyring.ErrNotFound
	}
	return v, nil
}

func (k *fakeKeyring) Set(service, user, password string) error {
	if k.items == nil {
		k.items = map[string]string{}
	}
	k.items[service+"/"+user] = password
	return nil
}

func TestCredentialConfigFromEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		"AZURE_TENANT_ID":     "tenant",
		"AZURE_CLIENT_ID":     "client",
		"AZURE_CLIENT_SECRET": "shh",
	}
	cfg := vault.CredentialConfigFromEnv(func(k string) string { return env[k] })

	assert.Equal(t, vault.CredentialConfig{TenantID: "tenant", ClientID: "client", ClientSecret: "shh"}, cfg)
	assert.True(t, cfg.ServicePrincipal())
	assert.False(t, vault.CredentialConfig{ClientID: "client"}.ServicePrincipal())
}

func TestResolveClientSecret(t *testing.T) {
	t.Parallel()

	kr := &fakeKeyring{}
	require.NoError(t, vault.SaveClientSecret(kr, "client", "from-keyring"))

	t.Run("env secret wins", func(t *testing.T) {
		t.Parallel()
		cfg, err := vault.CredentialConfig{TenantID: "t", ClientID: "client", ClientSecret: "env"}.ResolveClientSecret(kr)
		require.NoError(t, err)
		assert.Equal(t, "env", cfg.ClientSecret)
	})

	t.Run("keyring fills missing secret", func(t *testing.T) {
		t.Parallel()
		cfg, err := vault.CredentialConfig{TenantID: "t", ClientID: "client"}.ResolveClientSecret(kr)
		require.NoError(t, err)
		assert.Equal(t, "from-keyring", cfg.ClientSecret)
	})

	t.Run("missing entry is not an error", func(t *testing.T) {
		t.Parallel()
		cfg, err := vault.CredentialConfig{TenantID: "t", ClientID: "other"}.ResolveClientSecret(kr)
		require.NoError(t, err)
		assert.Empty(t, cfg.ClientSecret)
	})

	t.Run("keyring failure surfaces", func(t *testing.T) {
		t.Parallel()
		_, err := vault.CredentialConfig{TenantID: "t", ClientID: "client"}.ResolveClientSecret(&fakeKeyring{getErr: errors.New("dbus unavailable")})
		assert.ErrorContains(t, err, "dbus unavailable")
	})

	t.Run("no service principal skips keyring", func(t *testing.T) {
		t.Parallel()
		cfg, err := vault.CredentialConfig{}.ResolveClientSecret(&fakeKeyring{getErr: errors.New("should not be called")})
		require.NoError(t, err)
		assert.Empty(t, cfg.ClientSecret)
	})
}

func TestSaveClientSecretRequiresValues(t *testing.T) {
	t.Parallel()

	err := vault.SaveClientSecret(&fakeKeyring{}, "", "secret")
	assert.ErrorContains(t, err, "AZURE_CLIENT_ID")
}

func TestNewCredentialServicePrincipal(t *testing.T) {
	t.Parallel()

	cred, sp, err := vault.NewCredential(vault.CredentialConfig{
		TenantID:     "00000000-0000-0000-0000-000000000001",
		ClientID:     "00000000-0000-0000-0000-000000000002",
		ClientSecret: "secret",
	})
	require.NoError(t, err)
	assert.True(t, sp)
	assert.NotNil(t, cred)
}

type fakeCredential struct {
	err    error
	scopes []string
}

func (c *fakeCredential) GetToken(ctx context.Context, opts policy.TokenRequestOptions) (azcore.AccessToken, error) {
	c.scopes = opts.Scopes
	return azcore.AccessToken{Token: "t"}, c.err
}

func TestTokenSession(t *testing.T) {
	t.Parallel()

	cred := &fakeCredential{}
	s := &vault.TokenSession{Credential: cred}
	ctx := context.Background()

	require.NoError(t, s.GetAccountInfo(ctx))
	assert.Equal(t, []string{"https://vault.azure.net/.default"}, cred.scopes)
	require.NoError(t, s.SelectSubscription(ctx, "sub-1"))

	cred.err = errors.New("AADSTS7000215: Invalid client secret provided")
	assert.ErrorContains(t, s.Login(ctx), "Invalid client secret")
}
