// Package fakes provides test doubles for the vault clients.
//
// Fakes are manually implemented (not generated) to provide precise control
// over test behavior.
//
// Usage:
//
//	fake := fakes.NewFakeVault("kv-test")
//	fake.Add("db-pass", "hunter2", map[string]string{"env": "prod"})
//	engine := transfer.NewEngine(fake)
//	// Exercise push and pull...
package fakes
