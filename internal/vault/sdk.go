package vault

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"

	"github.com/systmms/kvsync/internal/logging"
)

// SecretsAPI is the subset of *azsecrets.Client the SDK client uses.
type SecretsAPI interface {
	GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error)
	SetSecret(ctx context.Context, name string, parameters azsecrets.SetSecretParameters, options *azsecrets.SetSecretOptions) (azsecrets.SetSecretResponse, error)
	NewListSecretPropertiesPager(options *azsecrets.ListSecretPropertiesOptions) *runtime.Pager[azsecrets.ListSecretPropertiesResponse]
}

// Session is the authentication half of Client.
type Session interface {
	GetAccountInfo(ctx context.Context) error
	Login(ctx context.Context) error
	SelectSubscription(ctx context.Context, id string) error
}

// APIFactory returns a SecretsAPI for a vault URL.
type APIFactory func(vaultURL string) (SecretsAPI, error)

// SDKClient implements Client on the Key Vault data plane.
type SDKClient struct {
	session Session
	factory APIFactory
	logger  *logging.Logger
	apis    map[string]SecretsAPI
}

// SDKOption configures an SDKClient.
type SDKOption func(*SDKClient)

// WithAPIFactory replaces how per-vault API clients are created (for testing).
func WithAPIFactory(factory APIFactory) SDKOption {
	return func(c *SDKClient) {
		c.factory = factory
	}
}

// WithSDKLogger sets the logger used for debug output.
func WithSDKLogger(logger *logging.Logger) SDKOption {
	return func(c *SDKClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewSDKClient creates a client that authenticates with cred for data-plane
// calls and uses session for login and subscription handling.
func NewSDKClient(cred azcore.TokenCredential, session Session, opts ...SDKOption) *SDKClient {
	c := &SDKClient{
		session: session,
		logger:  logging.Discard(),
		apis:    make(map[string]SecretsAPI),
		factory: func(vaultURL string) (SecretsAPI, error) {
			client, err := azsecrets.NewClient(vaultURL, cred, nil)
			if err != nil {
				return nil, fmt.Errorf("failed to create Key Vault client: %w", err)
			}
			return client, nil
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// VaultURL returns the data-plane URL for a vault name. Values that already
// look like URLs are returned with a trailing slash.
func VaultURL(vault string) string {
	if strings.Contains(vault, "://") {
		return strings.TrimSuffix(vault, "/") + "/"
	}
	return fmt.Sprintf("https://%s.vault.azure.net/", vault)
}

func (c *SDKClient) api(vaultURL string) (SecretsAPI, error) {
	if api, ok := c.apis[vaultURL]; ok {
		return api, nil
	}
	api, err := c.factory(vaultURL)
	if err != nil {
		return nil, err
	}
	c.apis[vaultURL] = api
	return api, nil
}

// ListSecrets pages through secret properties and filters tags locally.
func (c *SDKClient) ListSecrets(ctx context.Context, vault string, filter map[string]string) ([]string, error) {
	api, err := c.api(VaultURL(vault))
	if err != nil {
		return nil, err
	}

	ids := []string{}
	pager := api.NewListSecretPropertiesPager(nil)
	for pager.More() {
		page, err := pager.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list secrets in vault %s: %w", vault, err)
		}
		for _, props := range page.Value {
			if props == nil || props.ID == nil {
				continue
			}
			if !MatchesTags(derefTags(props.Tags), filter) {
				continue
			}
			ids = append(ids, string(*props.ID))
		}
	}
	c.logger.Debug("listed %d secrets in %s", len(ids), vault)
	return ids, nil
}

// ShowSecret fetches the secret addressed by a Key Vault identifier.
func (c *SDKClient) ShowSecret(ctx context.Context, id string) (Record, error) {
	vaultURL, name, version, err := ParseSecretID(id)
	if err != nil {
		return Record{}, err
	}
	api, err := c.api(vaultURL)
	if err != nil {
		return Record{}, err
	}

	resp, err := api.GetSecret(ctx, name, version, nil)
	if err != nil {
		return Record{}, fmt.Errorf("get secret %s: %w", name, err)
	}

	rec := Record{Name: name, Tags: derefTags(resp.Tags)}
	if resp.ID != nil && resp.ID.Name() != "" {
		rec.Name = resp.ID.Name()
	}
	if resp.Value != nil {
		rec.Value = *resp.Value
	}
	return rec, nil
}

// SetSecret writes a new version of the secret with the given tags.
func (c *SDKClient) SetSecret(ctx context.Context, vault, name, value string, tags []string) error {
	api, err := c.api(VaultURL(vault))
	if err != nil {
		return err
	}

	params := azsecrets.SetSecretParameters{
		Value: to.Ptr(value),
		Tags:  make(map[string]*string, len(tags)),
	}
	for _, pair := range tags {
		k, v, _ := strings.Cut(pair, "=")
		params.Tags[k] = to.Ptr(v)
	}

	c.logger.Debug("setting secret %s in %s", name, vault)
	if _, err := api.SetSecret(ctx, name, params, nil); err != nil {
		return fmt.Errorf("set secret %s: %w", name, err)
	}
	return nil
}

// GetAccountInfo delegates to the session.
func (c *SDKClient) GetAccountInfo(ctx context.Context) error {
	return c.session.GetAccountInfo(ctx)
}

// Login delegates to the session.
func (c *SDKClient) Login(ctx context.Context) error {
	return c.session.Login(ctx)
}

// SelectSubscription delegates to the session.
func (c *SDKClient) SelectSubscription(ctx context.Context, id string) error {
	return c.session.SelectSubscription(ctx, id)
}

// ParseSecretID splits a Key Vault secret identifier such as
// https://kv.vault.azure.net/secrets/name/version into its vault URL, name
// and optional version.
func ParseSecretID(id string) (vaultURL, name, version string, err error) {
	u, err := url.Parse(id)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", "", "", fmt.Errorf("invalid secret identifier %q", id)
	}
	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(parts) < 2 || parts[0] != "secrets" || parts[1] == "" {
		return "", "", "", fmt.Errorf("invalid secret identifier %q", id)
	}
	name = parts[1]
	if len(parts) > 2 {
		version = parts[2]
	}
	return fmt.Sprintf("%s://%s/", u.Scheme, u.Host), name, version, nil
}

func derefTags(tags map[string]*string) map[string]string {
	out := make(map[string]string, len(tags))
	for k, v := range tags {
		if v != nil {
			out[k] = *v
		}
	}
	return out
}

var _ Client = (*SDKClient)(nil)
