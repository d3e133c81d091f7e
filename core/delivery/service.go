package delivery

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/swiftdrop/dispatch/core/clock"
	"github.com/swiftdrop/dispatch/core/events"
	"github.com/swiftdrop/dispatch/core/logger"
	"github.com/swiftdrop/dispatch/core/metrics"
	"github.com/swiftdrop/dispatch/core/model"
	"github.com/swiftdrop/dispatch/internal/eventbus"
)

// transitions is the legal state graph. CANCELLED is reachable from any
// non-terminal state, FAILED from PICKUP_IN_PROGRESS onward. ASSIGNED may
// fall back to PENDING when the matcher pulls the offer back.
var transitions = map[model.DeliveryStatus][]model.DeliveryStatus{
	model.DeliveryPending:          {model.DeliveryAssigned, model.DeliveryCancelled},
	model.DeliveryAssigned:         {model.DeliveryPickupInProgress, model.DeliveryPending, model.DeliveryCancelled},
	model.DeliveryPickupInProgress: {model.DeliveryPickedUp, model.DeliveryCancelled, model.DeliveryFailed},
	model.DeliveryPickedUp:         {model.DeliveryEnRoute, model.DeliveryCancelled, model.DeliveryFailed},
	model.DeliveryEnRoute:          {model.DeliveryArrived, model.DeliveryCancelled, model.DeliveryFailed},
	model.DeliveryArrived:          {model.DeliveryDelivered, model.DeliveryCancelled, model.DeliveryFailed},
}

func legal(from, to model.DeliveryStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// DriverPool is what the state machine needs from the driver registry:
// releasing a bound driver and updating cumulative stats.
type DriverPool interface {
	Release(id string) bool
	RecordDelivered(id string, earnings float64)
	RecordFailed(id string)
	AddRating(id string, score int)
}

// Tracker receives tracking record lifecycle notifications. Implemented by
// the tracking engine; optional so the state machine stays testable alone.
type Tracker interface {
	Open(d model.Delivery)
	OnStatusChange(deliveryID string, status model.DeliveryStatus, at time.Time)
	Close(deliveryID string, final model.DeliveryStatus)
	Discard(deliveryID string)
}

// Service owns the canonical delivery lifecycle. All mutation of a delivery
// goes through its transition methods; each transition records a timestamp
// and the requesting actor, publishes a state change event and keeps the
// bound driver's availability consistent.
type Service struct {
	store *MemoryStore
	pool  DriverPool
	clk   clock.Clock
	log   logger.Logger

	mu      sync.Mutex
	tracker Tracker
	bus     eventbus.EventBus
	sink    metrics.MetricsSink

	reassignAfter time.Duration
}

// NewService creates the state machine service. reassignAfter is the time a
// delivery may sit in ASSIGNED before it becomes a reassignment candidate;
// zero falls back to ten minutes.
func NewService(store *MemoryStore, pool DriverPool, clk clock.Clock, log logger.Logger, reassignAfter time.Duration) (*Service, error) {
	if store == nil || pool == nil || clk == nil || log == nil {
		return nil, fmt.Errorf("delivery: nil parameter provided to NewService")
	}
	if reassignAfter <= 0 {
		reassignAfter = 10 * time.Minute
	}
	return &Service{store: store, pool: pool, clk: clk, log: log, reassignAfter: reassignAfter}, nil
}

// SetTracker wires the tracking engine in after construction.
func (s *Service) SetTracker(t Tracker) {
	s.mu.Lock()
	s.tracker = t
	s.mu.Unlock()
}

// SetEventBus configures the bus state change events are published on.
func (s *Service) SetEventBus(bus eventbus.EventBus) {
	s.mu.Lock()
	s.bus = bus
	s.mu.Unlock()
}

// SetMetricsSink configures the sink transitions are forwarded to.
func (s *Service) SetMetricsSink(sink metrics.MetricsSink) {
	s.mu.Lock()
	s.sink = sink
	s.mu.Unlock()
}

// Create validates and registers a new delivery in PENDING.
func (s *Service) Create(d model.Delivery) (model.Delivery, error) {
	if err := d.Validate(); err != nil {
		return model.Delivery{}, err
	}
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	now := s.clk.Now()
	d.Status = model.DeliveryPending
	d.DriverID = ""
	d.CreatedAt = now
	d.UpdatedAt = now
	s.store.Put(d)
	s.log.Infof("delivery %s created for order %s", d.ID, d.OrderID)
	return d, nil
}

// Get returns the delivery with the given id.
func (s *Service) Get(id string) (model.Delivery, error) {
	d, ok := s.store.Get(id)
	if !ok {
		return model.Delivery{}, ErrNotFound
	}
	return d, nil
}

// List exposes the store query.
func (s *Service) List(f StoreFilter) []model.Delivery {
	return s.store.List(f)
}

// apply runs a single guarded transition and its side effects. The store
// mutation happens under the service lock; notifications run after it so a
// slow sink never blocks other transitions.
func (s *Service) apply(id string, to model.DeliveryStatus, actor model.Actor, mutate func(*model.Delivery, time.Time)) error {
	s.mu.Lock()
	d, ok := s.store.Get(id)
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	if !legal(d.Status, to) {
		s.mu.Unlock()
		return &InvalidTransitionError{DeliveryID: id, From: d.Status, To: to}
	}
	from := d.Status
	now := s.clk.Now()
	d.Status = to
	d.UpdatedAt = now
	if mutate != nil {
		mutate(&d, now)
	}
	s.store.Put(d)
	tracker, bus, sink := s.tracker, s.bus, s.sink
	s.mu.Unlock()

	s.log.Debugw("delivery transition", map[string]any{
		"delivery_id": id,
		"from":        from.String(),
		"to":          to.String(),
		"actor":       string(actor),
	})
	if tracker != nil {
		if to.Terminal() {
			tracker.Close(id, to)
		} else {
			tracker.OnStatusChange(id, to, now)
		}
	}
	if bus != nil {
		bus.Publish(events.StateChangeEvent{
			DeliveryID: id,
			DriverID:   d.DriverID,
			OldStatus:  from,
			NewStatus:  to,
			Old:        from.String(),
			New:        to.String(),
			Timestamp:  now,
			Actor:      actor,
		})
	}
	if rec, ok := sink.(metrics.StateTransitionRecorder); ok {
		if err := rec.RecordStateTransition(metrics.StateTransitionEvent{
			DeliveryID: id,
			DriverID:   d.DriverID,
			From:       from,
			To:         to,
			Actor:      actor,
			Time:       now,
		}); err != nil {
			s.log.Errorf("transition metrics error: %v", err)
		}
	}
	transitionsTotal.WithLabelValues(from.String(), to.String()).Inc()
	return nil
}

// Assign binds a driver to a PENDING delivery and opens its tracking record.
// The caller must already have acquired the driver in the registry.
func (s *Service) Assign(id, driverID string, actor model.Actor) error {
	if driverID == "" {
		return fmt.Errorf("delivery: driver id is required")
	}
	err := s.apply(id, model.DeliveryAssigned, actor, func(d *model.Delivery, now time.Time) {
		d.DriverID = driverID
		d.DriverAssignedTime = now
	})
	if err != nil {
		return err
	}
	s.mu.Lock()
	tracker := s.tracker
	s.mu.Unlock()
	if tracker != nil {
		if d, ok := s.store.Get(id); ok {
			tracker.Open(d)
		}
	}
	return nil
}

// Unassign returns an ASSIGNED delivery to PENDING, releasing the bound
// driver and discarding its tracking record. Used by the matcher when an
// assignment stalls and the delivery goes back into the pool.
func (s *Service) Unassign(id string, actor model.Actor) error {
	var driverID string
	err := s.apply(id, model.DeliveryPending, actor, func(d *model.Delivery, now time.Time) {
		driverID = d.DriverID
		d.DriverID = ""
		d.DriverAssignedTime = time.Time{}
	})
	if err != nil {
		return err
	}
	if driverID != "" {
		s.pool.Release(driverID)
	}
	s.mu.Lock()
	tracker := s.tracker
	s.mu.Unlock()
	if tracker != nil {
		tracker.Discard(id)
	}
	return nil
}

// StartPickup marks the driver as working the pickup.
func (s *Service) StartPickup(id string, actor model.Actor) error {
	return s.apply(id, model.DeliveryPickupInProgress, actor, nil)
}

// MarkPickedUp records the handoff at the pickup location.
func (s *Service) MarkPickedUp(id string, actor model.Actor) error {
	return s.apply(id, model.DeliveryPickedUp, actor, func(d *model.Delivery, now time.Time) {
		d.ActualPickupTime = now
	})
}

// MarkEnRoute records departure toward the customer.
func (s *Service) MarkEnRoute(id string, actor model.Actor) error {
	return s.apply(id, model.DeliveryEnRoute, actor, nil)
}

// MarkArrived records arrival at the delivery location.
func (s *Service) MarkArrived(id string, actor model.Actor) error {
	return s.apply(id, model.DeliveryArrived, actor, nil)
}

// MarkDelivered completes the delivery, releases the driver and updates the
// driver's cumulative stats.
func (s *Service) MarkDelivered(id string, actor model.Actor) error {
	var driverID string
	var fee float64
	err := s.apply(id, model.DeliveryDelivered, actor, func(d *model.Delivery, now time.Time) {
		d.ActualDeliveryTime = now
		driverID = d.DriverID
		fee = d.Fee
	})
	if err != nil {
		return err
	}
	if driverID != "" {
		s.pool.Release(driverID)
		s.pool.RecordDelivered(driverID, fee)
	}
	s.store.Archive(id)
	return nil
}

// Cancel aborts the delivery from any non-terminal state. A bound driver is
// released back to AVAILABLE and explicitly unassigned.
func (s *Service) Cancel(id, reason string, actor model.Actor) error {
	var driverID string
	err := s.apply(id, model.DeliveryCancelled, actor, func(d *model.Delivery, now time.Time) {
		d.CancelReason = reason
		driverID = d.DriverID
		d.DriverID = ""
	})
	if err != nil {
		return err
	}
	if driverID != "" {
		s.pool.Release(driverID)
	}
	s.store.Archive(id)
	return nil
}

// Fail marks the delivery as failed. Legal from PICKUP_IN_PROGRESS onward.
// The driver is released but stays on the record for audit.
func (s *Service) Fail(id, reason string, actor model.Actor) error {
	var driverID string
	err := s.apply(id, model.DeliveryFailed, actor, func(d *model.Delivery, now time.Time) {
		d.FailureReason = reason
		driverID = d.DriverID
	})
	if err != nil {
		return err
	}
	if driverID != "" {
		s.pool.Release(driverID)
		s.pool.RecordFailed(driverID)
	}
	s.store.Archive(id)
	return nil
}

// Rate records the customer rating. Legal exactly once, only after DELIVERED.
func (s *Service) Rate(id string, score int, feedback string) error {
	if score < 1 || score > 5 {
		return fmt.Errorf("delivery: rating score %d out of range", score)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.store.Get(id)
	if !ok {
		return ErrNotFound
	}
	if d.Status != model.DeliveryDelivered {
		return &InvalidTransitionError{DeliveryID: id, From: d.Status, To: model.DeliveryDelivered}
	}
	if d.Rated {
		return fmt.Errorf("delivery %s already rated", id)
	}
	d.Rated = true
	d.Rating = score
	d.Feedback = feedback
	d.UpdatedAt = s.clk.Now()
	s.store.Put(d)
	if d.DriverID != "" {
		s.pool.AddRating(d.DriverID, score)
	}
	return nil
}

// NeedsReassignment reports whether the delivery has sat in ASSIGNED longer
// than the configured threshold without progressing to pickup. The decision
// to actually reassign belongs to the dispatch matcher.
func (s *Service) NeedsReassignment(d model.Delivery, now time.Time) bool {
	if d.Status != model.DeliveryAssigned {
		return false
	}
	return now.Sub(d.DriverAssignedTime) > s.reassignAfter
}

// ReassignmentCandidates returns the deliveries currently eligible for a
// reassignment pass.
func (s *Service) ReassignmentCandidates(now time.Time) []model.Delivery {
	assigned := model.DeliveryAssigned
	var out []model.Delivery
	for _, d := range s.store.List(StoreFilter{Status: &assigned}) {
		if s.NeedsReassignment(d, now) {
			out = append(out, d)
		}
	}
	return out
}

// RequestPickupArrival is the tracking engine's signal that the driver
// entered the pickup geofence. The transition is validated, not forced.
func (s *Service) RequestPickupArrival(id string, at time.Time) error {
	return s.StartPickup(id, model.ActorSystem)
}

// RequestDropoffArrival is the tracking engine's signal that the driver
// entered the delivery geofence.
func (s *Service) RequestDropoffArrival(id string, at time.Time) error {
	return s.MarkArrived(id, model.ActorSystem)
}
