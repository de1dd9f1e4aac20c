// Package secure keeps transfer-file bytes out of ordinary heap memory.
//
// It wraps the memguard library. File contents read for a push are sealed in
// an encrypted enclave until they are parsed, and are parsed from a locked
// buffer that is wiped on Destroy. Serialized pull output is wiped after it
// has been written.
//
// # Platform Behavior
//
// Memory locking behavior varies by platform:
//
//   - Linux: Requires RLIMIT_MEMLOCK to be set appropriately
//   - macOS: Works out of the box
//   - Windows: Uses VirtualLock
//
// It does NOT protect against:
//
//   - Attackers with root access to the running process
//   - The plaintext transfer file on disk
//   - Copies made once values are decoded into Go strings
package secure
