package secure

import (
	"fmt"
	"sort"
	"sync"

	"github.com/awnumar/memguard"
)

// SecureBuffer holds one secret encrypted at rest.
type SecureBuffer struct {
	mu        sync.RWMutex
	enclave   *memguard.Enclave
	destroyed bool
}

// NewSecureBuffer seals data. The source slice is wiped by memguard.
func NewSecureBuffer(data []byte) *SecureBuffer {
	return &SecureBuffer{enclave: memguard.NewEnclave(data)}
}

// Open decrypts the secret into a locked buffer. The caller must Destroy
// the returned buffer. A destroyed SecureBuffer opens as empty.
func (s *SecureBuffer) Open() (*memguard.LockedBuffer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.destroyed || s.enclave == nil {
		return memguard.NewBufferFromBytes([]byte{}), nil
	}
	return s.enclave.Open()
}

// Destroy drops the enclave. It is idempotent.
func (s *SecureBuffer) Destroy() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enclave = nil
	s.destroyed = true
}

// Vault is a set of named values, each sealed separately. It satisfies
// bootstrap.Sink and bootstrap.SecretSink, so the bootstrap phases can
// publish straight into it.
type Vault struct {
	mu        sync.Mutex
	entries   map[string]*SecureBuffer
	sensitive map[string]bool
}

// NewVault creates an empty Vault.
func NewVault() *Vault {
	return &Vault{
		entries:   map[string]*SecureBuffer{},
		sensitive: map[string]bool{},
	}
}

// Set seals value under name, replacing any previous value.
func (v *Vault) Set(name, value string) error {
	return v.set(name, value, false)
}

// SetSecret is Set for a value that must never be shown.
func (v *Vault) SetSecret(name, value string) error {
	return v.set(name, value, true)
}

func (v *Vault) set(name, value string, sensitive bool) error {
	buf := NewSecureBuffer([]byte(value))

	v.mu.Lock()
	defer v.mu.Unlock()
	if old, ok := v.entries[name]; ok {
		old.Destroy()
	}
	v.entries[name] = buf
	v.sensitive[name] = sensitive
	return nil
}

// SecretNames returns the names stored with SetSecret, sorted.
func (v *Vault) SecretNames() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	var names []string
	for name, sensitive := range v.sensitive {
		if sensitive {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Names returns the stored names in sorted order.
func (v *Vault) Names() []string {
	v.mu.Lock()
	defer v.mu.Unlock()

	names := make([]string, 0, len(v.entries))
	for name := range v.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Environ decrypts every entry into NAME=value form, sorted by name.
func (v *Vault) Environ() ([]string, error) {
	names := v.Names()
	env := make([]string, 0, len(names))

	v.mu.Lock()
	defer v.mu.Unlock()
	for _, name := range names {
		locked, err := v.entries[name].Open()
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", name, err)
		}
		env = append(env, name+"="+locked.String())
		locked.Destroy()
	}
	return env, nil
}

// Destroy drops every entry.
func (v *Vault) Destroy() {
	v.mu.Lock()
	defer v.mu.Unlock()
	for name, buf := range v.entries {
		buf.Destroy()
		delete(v.entries, name)
	}
	clear(v.sensitive)
}
