package services

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/folio/internal/core/domain"
)

// LockRegistry is the single-writer guard for corpora within a process.
// Writers fail fast instead of waiting.
type LockRegistry struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLockRegistry creates an empty registry.
func NewLockRegistry() *LockRegistry {
	return &LockRegistry{held: make(map[string]struct{})}
}

// TryLock takes every named lock or none of them. The returned function
// releases them and is safe to call more than once.
func (r *LockRegistry) TryLock(names ...string) (func(), error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	unique := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, dup := seen[name]; dup {
			continue
		}
		seen[name] = struct{}{}
		if _, busy := r.held[name]; busy {
			return nil, fmt.Errorf("%w: %s", domain.ErrCorpusLocked, name)
		}
		unique = append(unique, name)
	}

	for _, name := range unique {
		r.held[name] = struct{}{}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			defer r.mu.Unlock()
			for _, name := range unique {
				delete(r.held, name)
			}
		})
	}, nil
}

// Locked reports whether name is currently held.
func (r *LockRegistry) Locked(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.held[name]
	return ok
}
