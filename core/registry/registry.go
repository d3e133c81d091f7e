package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/swiftdrop/dispatch/core/geo"
	"github.com/swiftdrop/dispatch/core/model"
)

// Filter restricts the drivers returned by List.
type Filter struct {
	Availability *model.AvailabilityStatus
	EligibleOnly bool
}

// Registry is the queryable view of the driver roster shared between the
// matcher, the tracking engine and the state machine.
type Registry interface {
	Put(d model.Driver)
	Get(id string) (model.Driver, bool)
	List(f Filter) []model.Driver
	Snapshot() []model.Driver
	SetLocation(id string, p geo.Point, at time.Time) bool
	CompareAndSetAvailability(id string, from, to model.AvailabilityStatus) bool
	Acquire(id, deliveryID string) bool
	Release(id string) bool
	RecordDelivered(id string, earnings float64)
	RecordFailed(id string)
	AddRating(id string, score int)
	Deactivate(id string)
}

// MemoryRegistry is the in-memory Registry implementation. All mutation goes
// through the registry lock so a driver can never be bound twice: the only
// path from AVAILABLE to BUSY is the compare-and-swap in Acquire.
type MemoryRegistry struct {
	mu   sync.RWMutex
	data map[string]model.Driver
}

// NewMemoryRegistry returns an empty registry.
func NewMemoryRegistry() *MemoryRegistry {
	return &MemoryRegistry{data: map[string]model.Driver{}}
}

// Put inserts or replaces a driver record. Used by the roster feed.
func (r *MemoryRegistry) Put(d model.Driver) {
	r.mu.Lock()
	r.data[d.ID] = d
	r.mu.Unlock()
}

// Get returns the driver with the given id.
func (r *MemoryRegistry) Get(id string) (model.Driver, bool) {
	r.mu.RLock()
	d, ok := r.data[id]
	r.mu.RUnlock()
	return d, ok
}

// List returns the drivers matching the filter, sorted by id.
func (r *MemoryRegistry) List(f Filter) []model.Driver {
	r.mu.RLock()
	defer r.mu.RUnlock()
	res := make([]model.Driver, 0, len(r.data))
	for _, d := range r.data {
		if f.Availability != nil && d.Availability != *f.Availability {
			continue
		}
		if f.EligibleOnly && !d.Eligible() {
			continue
		}
		res = append(res, d)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

// Snapshot returns a point-in-time copy of all drivers. Staleness is
// acceptable; availability is re-validated at bind time via Acquire.
func (r *MemoryRegistry) Snapshot() []model.Driver {
	return r.List(Filter{})
}

// SetLocation updates the driver's last known position.
func (r *MemoryRegistry) SetLocation(id string, p geo.Point, at time.Time) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.data[id]
	if !ok {
		return false
	}
	loc := p
	d.Location = &loc
	d.LocationTime = at
	r.data[id] = d
	return true
}

// CompareAndSetAvailability transitions the availability status only if the
// prior value matches the expectation. Returns false on mismatch or unknown
// driver.
func (r *MemoryRegistry) CompareAndSetAvailability(id string, from, to model.AvailabilityStatus) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.data[id]
	if !ok || d.Availability != from {
		return false
	}
	d.Availability = to
	r.data[id] = d
	return true
}

// Acquire binds the driver to a delivery. It succeeds only when the driver is
// AVAILABLE, eligible and not already bound, making the double-booking race
// impossible rather than merely unlikely.
func (r *MemoryRegistry) Acquire(id, deliveryID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.data[id]
	if !ok || !d.Matchable() {
		return false
	}
	d.Availability = model.StatusBusy
	d.ActiveDeliveryID = deliveryID
	r.data[id] = d
	return true
}

// Release returns a busy driver to the available pool and clears the binding.
func (r *MemoryRegistry) Release(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.data[id]
	if !ok || d.Availability != model.StatusBusy {
		return false
	}
	d.Availability = model.StatusAvailable
	d.ActiveDeliveryID = ""
	r.data[id] = d
	return true
}

// RecordDelivered bumps the delivery counters and earnings after a
// successful delivery.
func (r *MemoryRegistry) RecordDelivered(id string, earnings float64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.data[id]
	if !ok {
		return
	}
	d.TotalDeliveries++
	d.SuccessfulDeliveries++
	d.TotalEarnings += earnings
	r.data[id] = d
}

// RecordFailed bumps only the total delivery counter.
func (r *MemoryRegistry) RecordFailed(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.data[id]
	if !ok {
		return
	}
	d.TotalDeliveries++
	r.data[id] = d
}

// AddRating folds a new score into the running average.
func (r *MemoryRegistry) AddRating(id string, score int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.data[id]
	if !ok {
		return
	}
	total := d.AverageRating*float64(d.RatingCount) + float64(score)
	d.RatingCount++
	d.AverageRating = total / float64(d.RatingCount)
	r.data[id] = d
}

// Deactivate marks the driver as no longer matchable. Drivers are never
// deleted from the roster.
func (r *MemoryRegistry) Deactivate(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.data[id]
	if !ok {
		return
	}
	d.Deactivated = true
	d.Availability = model.StatusOffline
	r.data[id] = d
}
