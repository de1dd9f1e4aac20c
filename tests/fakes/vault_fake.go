package fakes

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/systmms/kvsync/internal/vault"
)

// SetCall is one recorded SetSecret.
type SetCall struct {
	Vault string
	Name  string
	Value string
	Tags  []string
}

// FakeVault is an in-memory vault.Client for a single vault. Secrets keep
// insertion order, which is also the listing order.
type FakeVault struct {
	Name string

	// ListErr fails ListSecrets
	ListErr error
	// ShowErrors maps secret names to ShowSecret failures
	ShowErrors map[string]error
	// SetErrors maps secret names to SetSecret failures
	SetErrors map[string]error
	// AccountErr fails GetAccountInfo until Login succeeds
	AccountErr error
	// LoginErr fails Login
	LoginErr error
	// SubscriptionErr fails SelectSubscription
	SubscriptionErr error

	mu           sync.Mutex
	records      []vault.Record
	sets         []SetCall
	calls        []string
	subscription string
}

// NewFakeVault creates an empty fake vault named name.
func NewFakeVault(name string) *FakeVault {
	return &FakeVault{
		Name:       name,
		ShowErrors: make(map[string]error),
		SetErrors:  make(map[string]error),
	}
}

// Add stores a secret, replacing any with the same name.
func (f *FakeVault) Add(name, value string, tags map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.put(vault.Record{Name: name, Value: value, Tags: tags})
}

func (f *FakeVault) put(rec vault.Record) {
	for i, r := range f.records {
		if r.Name == rec.Name {
			f.records[i] = rec
			return
		}
	}
	f.records = append(f.records, rec)
}

// ID is the identifier ListSecrets reports for name.
func (f *FakeVault) ID(name string) string {
	return fmt.Sprintf("https://%s.vault.azure.net/secrets/%s", f.Name, name)
}

// Records returns a copy of the stored secrets.
func (f *FakeVault) Records() []vault.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]vault.Record(nil), f.records...)
}

// Sets returns every SetSecret call in order.
func (f *FakeVault) Sets() []SetCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]SetCall(nil), f.sets...)
}

// Calls returns the method names invoked, in order.
func (f *FakeVault) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// Subscription returns the last selected subscription.
func (f *FakeVault) Subscription() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.subscription
}

func (f *FakeVault) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

// ListSecrets returns ids of secrets whose tags match filter.
func (f *FakeVault) ListSecrets(ctx context.Context, vaultName string, filter map[string]string) ([]string, error) {
	f.record("ListSecrets")
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	if vaultName != f.Name {
		return nil, fmt.Errorf("vault %q not found", vaultName)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	ids := []string{}
	for _, r := range f.records {
		if vault.MatchesTags(r.Tags, filter) {
			ids = append(ids, f.ID(r.Name))
		}
	}
	return ids, nil
}

// ShowSecret returns the secret addressed by id.
func (f *FakeVault) ShowSecret(ctx context.Context, id string) (vault.Record, error) {
	f.record("ShowSecret")
	name := id[strings.LastIndex(id, "/")+1:]
	if err := f.ShowErrors[name]; err != nil {
		return vault.Record{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	for _, r := range f.records {
		if f.ID(r.Name) == id {
			return r, nil
		}
	}
	return vault.Record{}, fmt.Errorf("SecretNotFound: %s", id)
}

// SetSecret stores the secret, parsing key=value tag pairs.
func (f *FakeVault) SetSecret(ctx context.Context, vaultName, name, value string, tags []string) error {
	f.record("SetSecret")
	if err := f.SetErrors[name]; err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.sets = append(f.sets, SetCall{Vault: vaultName, Name: name, Value: value, Tags: append([]string(nil), tags...)})
	parsed := make(map[string]string, len(tags))
	for _, pair := range tags {
		k, v, _ := strings.Cut(pair, "=")
		parsed[k] = v
	}
	f.put(vault.Record{Name: name, Value: value, Tags: parsed})
	return nil
}

// GetAccountInfo fails with AccountErr until a successful Login.
func (f *FakeVault) GetAccountInfo(ctx context.Context) error {
	f.record("GetAccountInfo")
	return f.AccountErr
}

// Login clears AccountErr unless LoginErr is set.
func (f *FakeVault) Login(ctx context.Context) error {
	f.record("Login")
	if f.LoginErr != nil {
		return f.LoginErr
	}
	f.AccountErr = nil
	return nil
}

// SelectSubscription records id.
func (f *FakeVault) SelectSubscription(ctx context.Context, id string) error {
	f.record("SelectSubscription")
	if f.SubscriptionErr != nil {
		return f.SubscriptionErr
	}
	f.mu.Lock()
	f.subscription = id
	f.mu.Unlock()
	return nil
}

var _ vault.Client = (*FakeVault)(nil)
