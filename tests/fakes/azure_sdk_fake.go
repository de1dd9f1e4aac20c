package fakes

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/security/keyvault/azsecrets"
)

// FakeAzureKeyVaultClient is an in-memory Key Vault data plane. It satisfies
// vault.SecretsAPI and serves listings in pages of PageSize.
type FakeAzureKeyVaultClient struct {
	VaultURL string
	PageSize int
	// Errors maps secret names to errors returned by GetSecret
	Errors map[string]error
	// ListErr fails the listing on its first page
	ListErr error
	// SetErr fails every SetSecret
	SetErr error
	// SetCalls records every SetSecret in order
	SetCalls []AzureSetCall

	mu      sync.Mutex
	secrets []*AzureSecretData
}

// AzureSecretData holds one secret in the fake vault.
type AzureSecretData struct {
	Name       string
	Value      *string
	Tags       map[string]*string
	Attributes *azsecrets.SecretAttributes
}

// AzureSetCall is one recorded SetSecret.
type AzureSetCall struct {
	Name       string
	Parameters azsecrets.SetSecretParameters
}

// NewFakeAzureKeyVaultClient creates an empty fake for vaultURL.
func NewFakeAzureKeyVaultClient(vaultURL string) *FakeAzureKeyVaultClient {
	return &FakeAzureKeyVaultClient{
		VaultURL: strings.TrimSuffix(vaultURL, "/") + "/",
		PageSize: 25,
		Errors:   make(map[string]error),
	}
}

// AddSecretWithTags adds or replaces a secret.
func (f *FakeAzureKeyVaultClient) AddSecretWithTags(name, value string, tags map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := time.Now()
	data := &AzureSecretData{
		Name:  name,
		Value: to.Ptr(value),
		Tags:  make(map[string]*string, len(tags)),
		Attributes: &azsecrets.SecretAttributes{
			Enabled:       to.Ptr(true),
			Created:       &now,
			Updated:       &now,
			RecoveryLevel: to.Ptr("Recoverable+Purgeable"),
		},
	}
	for k, v := range tags {
		data.Tags[k] = to.Ptr(v)
	}
	f.put(data)
}

// AddError configures GetSecret to fail for name.
func (f *FakeAzureKeyVaultClient) AddError(name string, err error) {
	f.Errors[name] = err
}

// ID returns the identifier the fake reports for name.
func (f *FakeAzureKeyVaultClient) ID(name string) string {
	return fmt.Sprintf("%ssecrets/%s/v1", f.VaultURL, name)
}

func (f *FakeAzureKeyVaultClient) put(data *AzureSecretData) {
	for i, s := range f.secrets {
		if s.Name == data.Name {
			f.secrets[i] = data
			return
		}
	}
	f.secrets = append(f.secrets, data)
}

func (f *FakeAzureKeyVaultClient) lookup(name string) *AzureSecretData {
	for _, s := range f.secrets {
		if s.Name == name {
			return s
		}
	}
	return nil
}

// GetSecret mocks the GetSecret operation
func (f *FakeAzureKeyVaultClient) GetSecret(ctx context.Context, name string, version string, options *azsecrets.GetSecretOptions) (azsecrets.GetSecretResponse, error) {
	if err, exists := f.Errors[name]; exists {
		return azsecrets.GetSecretResponse{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	data := f.lookup(name)
	if data == nil {
		return azsecrets.GetSecretResponse{}, AzureNotFoundError(name)
	}
	id := azsecrets.ID(f.ID(name))
	return azsecrets.GetSecretResponse{
		Secret: azsecrets.Secret{
			ID:         &id,
			Value:      data.Value,
			Tags:       data.Tags,
			Attributes: data.Attributes,
		},
	}, nil
}

// SetSecret mocks the SetSecret operation
func (f *FakeAzureKeyVaultClient) SetSecret(ctx context.Context, name string, parameters azsecrets.SetSecretParameters, options *azsecrets.SetSecretOptions) (azsecrets.SetSecretResponse, error) {
	if f.SetErr != nil {
		return azsecrets.SetSecretResponse{}, f.SetErr
	}

	f.mu.Lock()
	f.SetCalls = append(f.SetCalls, AzureSetCall{Name: name, Parameters: parameters})
	f.put(&AzureSecretData{Name: name, Value: parameters.Value, Tags: parameters.Tags})
	f.mu.Unlock()

	id := azsecrets.ID(f.ID(name))
	return azsecrets.SetSecretResponse{
		Secret: azsecrets.Secret{ID: &id, Value: parameters.Value, Tags: parameters.Tags},
	}, nil
}

// NewListSecretPropertiesPager pages through the secrets in insertion order.
func (f *FakeAzureKeyVaultClient) NewListSecretPropertiesPager(options *azsecrets.ListSecretPropertiesOptions) *runtime.Pager[azsecrets.ListSecretPropertiesResponse] {
	offset := 0
	return runtime.NewPager(runtime.PagingHandler[azsecrets.ListSecretPropertiesResponse]{
		More: func(page azsecrets.ListSecretPropertiesResponse) bool {
			return page.NextLink != nil
		},
		Fetcher: func(ctx context.Context, page *azsecrets.ListSecretPropertiesResponse) (azsecrets.ListSecretPropertiesResponse, error) {
			if f.ListErr != nil {
				return azsecrets.ListSecretPropertiesResponse{}, f.ListErr
			}

			f.mu.Lock()
			defer f.mu.Unlock()

			var resp azsecrets.ListSecretPropertiesResponse
			end := offset + f.PageSize
			if end > len(f.secrets) {
				end = len(f.secrets)
			}
			for _, s := range f.secrets[offset:end] {
				id := azsecrets.ID(f.ID(s.Name))
				resp.Value = append(resp.Value, &azsecrets.SecretProperties{ID: &id, Tags: s.Tags, Attributes: s.Attributes})
			}
			offset = end
			if offset < len(f.secrets) {
				resp.NextLink = to.Ptr(fmt.Sprintf("%ssecrets?skip=%d", f.VaultURL, offset))
			}
			return resp, nil
		},
	})
}

// AzureNotFoundError creates a mock Azure not found error
func AzureNotFoundError(secretName string) error {
	return &azcore.ResponseError{
		StatusCode: 404,
		ErrorCode:  "SecretNotFound",
	}
}

// AzureForbiddenError creates a mock Azure forbidden error
func AzureForbiddenError() error {
	return &azcore.ResponseError{
		StatusCode: 403,
		ErrorCode:  "Forbidden",
	}
}

// AzureThrottledError creates a mock Azure throttled error
func AzureThrottledError() error {
	return &azcore.ResponseError{
		StatusCode: 429,
		ErrorCode:  "TooManyRequests",
	}
}
