// Package vault defines the narrow client contract kvsync needs from a remote
// secret vault, plus the Azure implementations of it.
//
// Two clients are provided. AzCLIClient shells out to the az CLI for every
// operation. SDKClient talks to the Key Vault data plane through azsecrets and
// delegates session handling to an AzCLIClient, or to a TokenSession when a
// service principal is configured.
package vault

import (
	"context"
	"sort"
)

// Record is one secret as held in a transfer file.
type Record struct {
	Name  string            `json:"name"`
	Value string            `json:"value"`
	Tags  map[string]string `json:"tags"`
}

// Client is the contract the session manager and transfer engine depend on.
type Client interface {
	// ListSecrets returns identifiers of secrets in vault whose tags match
	// every entry of filter. An empty filter lists everything.
	ListSecrets(ctx context.Context, vault string, filter map[string]string) ([]string, error)
	// ShowSecret fetches a secret by identifier.
	ShowSecret(ctx context.Context, id string) (Record, error)
	// SetSecret creates or updates a secret. Tags are flattened key=value pairs.
	SetSecret(ctx context.Context, vault, name, value string, tags []string) error

	// GetAccountInfo succeeds when an authenticated session exists.
	GetAccountInfo(ctx context.Context) error
	// Login runs the interactive sign-in flow.
	Login(ctx context.Context) error
	// SelectSubscription makes id the active subscription.
	SelectSubscription(ctx context.Context, id string) error
}

// MatchesTags reports whether tags contains every key of filter with an equal value.
func MatchesTags(tags, filter map[string]string) bool {
	for k, want := range filter {
		got, ok := tags[k]
		if !ok || got != want {
			return false
		}
	}
	return true
}

// SortedKeys returns the keys of m in lexicographic order.
func SortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
