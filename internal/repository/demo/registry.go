// Package demo holds anonymous links that live only in process memory.
// Entries are lost on restart.
package demo

import (
	"LinkLab-Backend/internal/domain"
	"LinkLab-Backend/internal/repository"
	"sync"
)

type Registry struct {
	mu      sync.RWMutex
	entries map[string]*domain.DemoLinkEntry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*domain.DemoLinkEntry)}
}

func (r *Registry) Put(code string, entry domain.DemoLinkEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[code]; exists {
		return repository.ErrAliasExists
	}
	entry.ShortCode = code
	r.entries[code] = &entry
	return nil
}

func (r *Registry) Get(code string) (*domain.DemoLinkEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[code]
	if !ok {
		return nil, false
	}
	out := *e
	return &out, true
}

func (r *Registry) IncrementClicks(code string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[code]
	if !ok {
		return false
	}
	e.Clicks++
	return true
}

func (r *Registry) Has(code string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[code]
	return ok
}

func (r *Registry) Delete(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, code)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

var _ repository.DemoRegistry = (*Registry)(nil)
