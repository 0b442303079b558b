package stencil

import (
	"container/list"
	"sync"
)

// TemplateStore is a bounded, identifier-keyed cache of templates.
//
// Eviction is first-in first-out: when the store is full, the entry inserted
// earliest is dropped. Lookups never change the eviction order, so this is not an
// LRU cache. Insertion order is tracked by an explicit queue rather than map
// iteration order.
type TemplateStore struct {
	mu       sync.RWMutex
	entries  map[string]*storeEntry
	queue    *list.List
	capacity int
}

type storeEntry struct {
	template *Template
	element  *list.Element
}

// NewTemplateStore creates a store holding at most capacity templates.
// A capacity of zero or less means the store is unbounded.
func NewTemplateStore(capacity int) *TemplateStore {
	return &TemplateStore{
		entries:  make(map[string]*storeEntry),
		queue:    list.New(),
		capacity: capacity,
	}
}

// Put inserts or replaces a template. Replacing an existing identifier keeps its
// position in the eviction queue. It returns the identifier evicted to make room,
// if any.
func (s *TemplateStore) Put(t *Template) (evicted string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, exists := s.entries[t.ID]; exists {
		existing.template = t
		return "", false
	}

	if s.capacity > 0 && s.queue.Len() >= s.capacity {
		if oldest := s.queue.Front(); oldest != nil {
			evicted = oldest.Value.(string)
			s.queue.Remove(oldest)
			delete(s.entries, evicted)
			ok = true
		}
	}

	s.entries[t.ID] = &storeEntry{
		template: t,
		element:  s.queue.PushBack(t.ID),
	}
	return evicted, ok
}

// Get retrieves a template by identifier.
func (s *TemplateStore) Get(id string) (*Template, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, exists := s.entries[id]
	if !exists {
		return nil, false
	}
	return entry.template, true
}

// Remove evicts a template explicitly. It reports whether the identifier was present.
func (s *TemplateStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, exists := s.entries[id]
	if !exists {
		return false
	}
	s.queue.Remove(entry.element)
	delete(s.entries, id)
	return true
}

// Clear removes all templates.
func (s *TemplateStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*storeEntry)
	s.queue = list.New()
}

// Len returns the current number of stored templates
func (s *TemplateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Capacity returns the configured bound.
func (s *TemplateStore) Capacity() int {
	return s.capacity
}

// IDs returns the stored identifiers, oldest first.
func (s *TemplateStore) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, s.queue.Len())
	for e := s.queue.Front(); e != nil; e = e.Next() {
		ids = append(ids, e.Value.(string))
	}
	return ids
}
