// Package transfer moves secrets between a JSON transfer file and a vault.
//
// Push reads the file and sets every record in order, stopping at the first
// malformed record or rejected write. Pull lists the vault, fetches each
// matching secret, skips the ones that fail to fetch and replaces the file
// with what it got.
package transfer
