package delivery

import (
	"sort"
	"sync"

	"github.com/swiftdrop/dispatch/core/model"
)

// StoreFilter restricts the deliveries returned by List.
type StoreFilter struct {
	Status          *model.DeliveryStatus
	DriverID        string
	IncludeArchived bool
}

// MemoryStore holds deliveries in memory. Deliveries are soft-archived,
// never removed.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]model.Delivery
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]model.Delivery{}}
}

// Put inserts or replaces a delivery.
func (s *MemoryStore) Put(d model.Delivery) {
	s.mu.Lock()
	s.data[d.ID] = d
	s.mu.Unlock()
}

// Get returns the delivery with the given id.
func (s *MemoryStore) Get(id string) (model.Delivery, bool) {
	s.mu.RLock()
	d, ok := s.data[id]
	s.mu.RUnlock()
	return d, ok
}

// List returns the deliveries matching the filter, sorted by id.
func (s *MemoryStore) List(f StoreFilter) []model.Delivery {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]model.Delivery, 0, len(s.data))
	for _, d := range s.data {
		if d.Archived && !f.IncludeArchived {
			continue
		}
		if f.Status != nil && d.Status != *f.Status {
			continue
		}
		if f.DriverID != "" && d.DriverID != f.DriverID {
			continue
		}
		res = append(res, d)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Archive soft-archives a terminal delivery. Non-terminal deliveries are
// left untouched.
func (s *MemoryStore) Archive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.data[id]
	if !ok || !d.Status.Terminal() {
		return false
	}
	d.Archived = true
	s.data[id] = d
	return true
}
