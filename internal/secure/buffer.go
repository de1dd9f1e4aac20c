package secure

import (
	"fmt"
	"os"
	"sync"

	"github.com/awnumar/memguard"
)

// SecureBuffer holds sensitive bytes in a memguard enclave.
//
// memguard returns a nil enclave for empty input; SecureBuffer treats that
// as an empty secret.
type SecureBuffer struct {
	enclave   *memguard.Enclave
	size      int
	mu        sync.RWMutex
	destroyed bool
}

// NewSecureBuffer seals data into an enclave. memguard wipes data in the process.
func NewSecureBuffer(data []byte) *SecureBuffer {
	size := len(data)
	return &SecureBuffer{
		enclave: memguard.NewEnclave(data),
		size:    size,
	}
}

// ReadFile reads path straight into locked memory and seals it.
func ReadFile(path string) (*SecureBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	locked, err := memguard.NewBufferFromEntireReader(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	size := locked.Size()
	if size == 0 {
		locked.Destroy()
		return &SecureBuffer{}, nil
	}
	return &SecureBuffer{enclave: locked.Seal(), size: size}, nil
}

// Size returns the number of plaintext bytes.
func (s *SecureBuffer) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.destroyed {
		return 0
	}
	return s.size
}

// Open decrypts the enclave into a locked buffer. The caller must Destroy it.
func (s *SecureBuffer) Open() (*memguard.LockedBuffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed || s.enclave == nil {
		return memguard.NewBuffer(0), nil
	}
	return s.enclave.Open()
}

// Destroy drops the enclave. Idempotent; Open afterwards yields an empty buffer.
func (s *SecureBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.enclave = nil
	s.destroyed = true
}

// WriteFile replaces path with data and then wipes data.
func WriteFile(path string, data []byte, perm os.FileMode) error {
	defer memguard.WipeBytes(data)
	return os.WriteFile(path, data, perm)
}
