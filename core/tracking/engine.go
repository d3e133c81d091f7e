package tracking

import (
	"fmt"
	"sync"
	"time"

	"github.com/swiftdrop/dispatch/core/clock"
	"github.com/swiftdrop/dispatch/core/events"
	"github.com/swiftdrop/dispatch/core/geo"
	"github.com/swiftdrop/dispatch/core/logger"
	"github.com/swiftdrop/dispatch/core/metrics"
	"github.com/swiftdrop/dispatch/core/model"
	"github.com/swiftdrop/dispatch/internal/eventbus"
)

// StateRequester lets the engine signal milestone crossings to the delivery
// state machine. The machine validates the transition; a rejection is logged
// and otherwise ignored.
type StateRequester interface {
	RequestPickupArrival(deliveryID string, at time.Time) error
	RequestDropoffArrival(deliveryID string, at time.Time) error
}

// DriverLocator receives driver position updates extracted from telemetry.
type DriverLocator interface {
	SetLocation(id string, p geo.Point, at time.Time) bool
}

// statusFromDelivery maps confirmed delivery states onto tracking statuses.
var statusFromDelivery = map[model.DeliveryStatus]model.TrackingStatus{
	model.DeliveryAssigned:         model.TrackAssigned,
	model.DeliveryPickupInProgress: model.TrackAtPickup,
	model.DeliveryPickedUp:         model.TrackPickedUp,
	model.DeliveryEnRoute:          model.TrackEnRoute,
	model.DeliveryArrived:          model.TrackDelivering,
}

// trackedDelivery pairs the evolving record with its immutable route data.
// Each delivery has its own lock so telemetry for different deliveries is
// applied fully in parallel.
type trackedDelivery struct {
	mu      sync.Mutex
	rec     model.TrackingRecord
	pickup  geo.Point
	dropoff geo.Point
	legKm   float64
}

// Engine ingests telemetry reports for in-flight deliveries and maintains
// distance, ETA, milestone and anomaly state per delivery.
type Engine struct {
	cfg Config
	clk clock.Clock
	log logger.Logger

	mu      sync.RWMutex
	records map[string]*trackedDelivery

	requester StateRequester
	locator   DriverLocator
	bus       eventbus.EventBus
	sink      metrics.MetricsSink
}

// NewEngine creates a tracking engine with the given configuration.
func NewEngine(cfg Config, clk clock.Clock, log logger.Logger) (*Engine, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("tracking: %w", err)
	}
	if clk == nil || log == nil {
		return nil, fmt.Errorf("tracking: nil parameter provided to NewEngine")
	}
	return &Engine{cfg: cfg, clk: clk, log: log, records: map[string]*trackedDelivery{}}, nil
}

// SetStateRequester wires the delivery state machine in after construction.
func (e *Engine) SetStateRequester(r StateRequester) {
	e.mu.Lock()
	e.requester = r
	e.mu.Unlock()
}

// SetDriverLocator configures where driver positions are forwarded.
func (e *Engine) SetDriverLocator(l DriverLocator) {
	e.mu.Lock()
	e.locator = l
	e.mu.Unlock()
}

// SetEventBus configures the bus milestone and drop events are published on.
func (e *Engine) SetEventBus(bus eventbus.EventBus) {
	e.mu.Lock()
	e.bus = bus
	e.mu.Unlock()
}

// SetMetricsSink configures the sink tracking snapshots are forwarded to.
func (e *Engine) SetMetricsSink(sink metrics.MetricsSink) {
	e.mu.Lock()
	e.sink = sink
	e.mu.Unlock()
}

// Open creates the tracking record for a newly assigned delivery. Any
// previous record for the same delivery is replaced.
func (e *Engine) Open(d model.Delivery) {
	leg, err := geo.DistanceKm(d.Pickup, d.Dropoff)
	if err != nil {
		e.log.Errorf("tracking open %s: %v", d.ID, err)
		return
	}
	td := &trackedDelivery{
		rec: model.TrackingRecord{
			DeliveryID: d.ID,
			DriverID:   d.DriverID,
			Status:     model.TrackAssigned,
			BatteryPct: -1,
			SignalPct:  -1,
		},
		pickup:  d.Pickup,
		dropoff: d.Dropoff,
		legKm:   leg,
	}
	e.mu.Lock()
	e.records[d.ID] = td
	e.mu.Unlock()
	e.log.Debugf("tracking record opened for delivery %s driver %s", d.ID, d.DriverID)
}

// OnStatusChange aligns the tracking status with a confirmed delivery state
// transition.
func (e *Engine) OnStatusChange(deliveryID string, status model.DeliveryStatus, at time.Time) {
	ts, ok := statusFromDelivery[status]
	if !ok {
		return
	}
	td := e.lookup(deliveryID)
	if td == nil {
		return
	}
	td.mu.Lock()
	defer td.mu.Unlock()
	if td.rec.Closed {
		return
	}
	td.rec.Status = ts
	switch status {
	case model.DeliveryPickupInProgress:
		if !td.rec.AtRestaurant {
			td.rec.AtRestaurant = true
			td.rec.AtRestaurantTime = at
		}
	case model.DeliveryPickedUp:
		td.rec.PickedUp = true
		td.rec.PickedUpTime = at
	case model.DeliveryEnRoute:
		td.rec.EnRouteToCustomer = true
		td.rec.EnRouteTime = at
	case model.DeliveryArrived:
		if !td.rec.AtDeliveryLocation {
			td.rec.AtDeliveryLocation = true
			td.rec.AtDeliveryTime = at
		}
	}
}

// Close marks the record closed at a terminal delivery state. Further
// telemetry for the delivery is dropped.
func (e *Engine) Close(deliveryID string, final model.DeliveryStatus) {
	td := e.lookup(deliveryID)
	if td == nil {
		return
	}
	td.mu.Lock()
	switch final {
	case model.DeliveryDelivered:
		td.rec.Status = model.TrackDelivered
	case model.DeliveryFailed:
		td.rec.Status = model.TrackDeliveryFailed
	}
	td.rec.Closed = true
	td.mu.Unlock()
	e.log.Debugf("tracking record closed for delivery %s (%s)", deliveryID, final)
}

// Discard drops the record entirely, used when a delivery is unassigned and
// returns to the matching pool.
func (e *Engine) Discard(deliveryID string) {
	e.mu.Lock()
	delete(e.records, deliveryID)
	e.mu.Unlock()
}

func (e *Engine) lookup(deliveryID string) *trackedDelivery {
	e.mu.RLock()
	td := e.records[deliveryID]
	e.mu.RUnlock()
	return td
}

func (e *Engine) drop(report model.TelemetryReport, reason string) {
	reportsDropped.WithLabelValues(reason).Inc()
	e.mu.RLock()
	bus := e.bus
	e.mu.RUnlock()
	if bus != nil {
		bus.Publish(events.TelemetryDropEvent{DeliveryID: report.DeliveryID, Reason: reason, Report: report})
	}
	e.log.Debugw("telemetry dropped", map[string]any{
		"delivery_id": report.DeliveryID,
		"reason":      reason,
		"timestamp":   report.Timestamp,
	})
}

// Apply ingests a single telemetry report. Reports older than the record's
// last-seen timestamp, reports for unknown or terminal deliveries and
// reports with invalid coordinates are dropped, never fatal.
func (e *Engine) Apply(report model.TelemetryReport) error {
	if !report.Location.Valid() {
		e.drop(report, "invalid_location")
		return &geo.InvalidCoordinateError{Lat: report.Location.Lat, Lon: report.Location.Lon}
	}
	td := e.lookup(report.DeliveryID)
	if td == nil {
		e.drop(report, "unknown_delivery")
		return nil
	}

	type milestone struct {
		name string
		dist float64
	}
	var crossed *milestone

	td.mu.Lock()
	if td.rec.Closed {
		td.mu.Unlock()
		e.drop(report, "terminal")
		return nil
	}
	if !td.rec.TrackingTimestamp.IsZero() && !report.Timestamp.After(td.rec.TrackingTimestamp) {
		td.mu.Unlock()
		e.drop(report, "out_of_order")
		return nil
	}

	distPickup, _ := geo.DistanceKm(report.Location, td.pickup)
	distDrop, _ := geo.DistanceKm(report.Location, td.dropoff)

	hadPrev := !td.rec.TrackingTimestamp.IsZero()
	if hadPrev && report.AccuracyM <= e.cfg.AccuracyNoiseM {
		inc, _ := geo.DistanceKm(td.rec.Location, report.Location)
		td.rec.DistanceTraveledKm += inc
	}

	td.rec.Location = report.Location
	td.rec.SpeedKmh = report.SpeedKmh
	td.rec.BearingDeg = report.BearingDeg
	td.rec.AccuracyM = report.AccuracyM
	td.rec.TrackingTimestamp = report.Timestamp
	td.rec.DistanceToPickupKm = distPickup
	td.rec.DistanceToDeliveryKm = distDrop
	if report.BatteryPct >= 0 {
		td.rec.BatteryPct = report.BatteryPct
	}
	if report.SignalPct >= 0 {
		td.rec.SignalPct = report.SignalPct
	}
	if td.rec.PickedUp {
		dev, err := geo.CrossTrackKm(td.pickup, td.dropoff, report.Location)
		if err == nil {
			td.rec.RouteDeviationKm = dev
		}
	}

	radiusKm := e.cfg.GeofenceRadiusM / 1000
	switch {
	case !td.rec.PickedUp && !td.rec.AtRestaurant && distPickup < radiusKm:
		td.rec.AtRestaurant = true
		td.rec.AtRestaurantTime = report.Timestamp
		td.rec.Status = model.TrackAtPickup
		crossed = &milestone{name: "at_restaurant", dist: distPickup}
	case td.rec.PickedUp && !td.rec.AtDeliveryLocation && distDrop < radiusKm:
		td.rec.AtDeliveryLocation = true
		td.rec.AtDeliveryTime = report.Timestamp
		td.rec.Status = model.TrackAtDeliveryLocation
		crossed = &milestone{name: "at_delivery_location", dist: distDrop}
	case !td.rec.PickedUp && td.rec.Status == model.TrackAssigned:
		td.rec.Status = model.TrackHeadingToPickup
	case td.rec.PickedUp && td.rec.Status == model.TrackEnRoute && distDrop < 5*radiusKm:
		// Close enough for the "almost there" progress step.
		td.rec.Status = model.TrackApproachingDelivery
	}

	remaining := distDrop
	if !td.rec.PickedUp {
		remaining = distPickup + td.legKm
	}
	td.rec.EstimatedDeliveryTime = EstimateDelivery(
		report.Timestamp, remaining, e.cfg.AssumedSpeedKmh, td.rec.Traffic, td.rec.Weather)

	rec := td.rec
	td.mu.Unlock()

	reportsApplied.Inc()

	e.mu.RLock()
	requester, locator, bus, sink := e.requester, e.locator, e.bus, e.sink
	e.mu.RUnlock()

	if locator != nil && report.DriverID != "" {
		locator.SetLocation(report.DriverID, report.Location, report.Timestamp)
	}
	if crossed != nil {
		milestonesHit.WithLabelValues(crossed.name).Inc()
		if bus != nil {
			bus.Publish(events.MilestoneEvent{
				DeliveryID: report.DeliveryID,
				DriverID:   rec.DriverID,
				Milestone:  crossed.name,
				DistanceKm: crossed.dist,
				Time:       report.Timestamp,
			})
		}
		if requester != nil {
			var err error
			if crossed.name == "at_restaurant" {
				err = requester.RequestPickupArrival(report.DeliveryID, report.Timestamp)
			} else {
				err = requester.RequestDropoffArrival(report.DeliveryID, report.Timestamp)
			}
			if err != nil {
				e.log.Warnf("milestone transition rejected for %s: %v", report.DeliveryID, err)
			}
		}
	}
	if rec2, ok := sink.(metrics.TrackingSnapshotRecorder); ok {
		ev := metrics.TrackingSnapshotEvent{
			DeliveryID:       rec.DeliveryID,
			DriverID:         rec.DriverID,
			Status:           rec.Status,
			Location:         rec.Location,
			SpeedKmh:         rec.SpeedKmh,
			DistanceToStopKm: remaining,
			ProgressPct:      ProgressPercent(rec.Status),
			Stale:            false,
			Time:             report.Timestamp,
		}
		if err := rec2.RecordTrackingSnapshot(ev); err != nil {
			e.log.Errorf("tracking metrics error: %v", err)
		}
	}
	return nil
}

// SetConditions updates the traffic and weather context used for ETA
// adjustment.
func (e *Engine) SetConditions(deliveryID string, traffic model.TrafficCondition, weather string) bool {
	td := e.lookup(deliveryID)
	if td == nil {
		return false
	}
	td.mu.Lock()
	td.rec.Traffic = traffic
	td.rec.Weather = weather
	td.mu.Unlock()
	return true
}

// Record returns a copy of the current tracking record.
func (e *Engine) Record(deliveryID string) (model.TrackingRecord, bool) {
	td := e.lookup(deliveryID)
	if td == nil {
		return model.TrackingRecord{}, false
	}
	td.mu.Lock()
	rec := td.rec
	td.mu.Unlock()
	return rec, true
}

// Stale reports whether the record has not been refreshed within the
// staleness window.
func (e *Engine) Stale(rec model.TrackingRecord, now time.Time) bool {
	if rec.TrackingTimestamp.IsZero() {
		return false
	}
	return now.Sub(rec.TrackingTimestamp) > time.Duration(e.cfg.StalenessSeconds)*time.Second
}

// RequiresAttention reports whether the delivery needs operator attention:
// stale feed, significant route deviation, degraded device or failed
// delivery.
func (e *Engine) RequiresAttention(rec model.TrackingRecord, now time.Time) bool {
	if e.Stale(rec, now) {
		return true
	}
	if rec.RouteDeviationKm*1000 > e.cfg.OffRouteM {
		return true
	}
	if rec.BatteryPct >= 0 && rec.BatteryPct < e.cfg.LowBatteryPct {
		return true
	}
	if rec.SignalPct >= 0 && rec.SignalPct < e.cfg.LowSignalPct {
		return true
	}
	return rec.Status == model.TrackDeliveryFailed
}

// Snapshot is the customer-facing view of an active delivery.
type Snapshot struct {
	DeliveryID        string    `json:"delivery_id"`
	Status            string    `json:"status"`
	Description       string    `json:"description"`
	ProgressPct       int       `json:"progress_pct"`
	Location          geo.Point `json:"location"`
	ETA               time.Time `json:"eta"`
	Stale             bool      `json:"stale"`
	RequiresAttention bool      `json:"requires_attention"`
}

// Snapshot returns the customer-facing view for the delivery.
func (e *Engine) Snapshot(deliveryID string) (Snapshot, bool) {
	rec, ok := e.Record(deliveryID)
	if !ok {
		return Snapshot{}, false
	}
	now := e.clk.Now()
	return Snapshot{
		DeliveryID:        rec.DeliveryID,
		Status:            rec.Status.String(),
		Description:       FriendlyStatus(rec.Status),
		ProgressPct:       ProgressPercent(rec.Status),
		Location:          rec.Location,
		ETA:               rec.EstimatedDeliveryTime,
		Stale:             e.Stale(rec, now),
		RequiresAttention: e.RequiresAttention(rec, now),
	}, true
}

// AttentionList returns the open records currently requiring attention.
func (e *Engine) AttentionList(now time.Time) []model.TrackingRecord {
	e.mu.RLock()
	tds := make([]*trackedDelivery, 0, len(e.records))
	for _, td := range e.records {
		tds = append(tds, td)
	}
	e.mu.RUnlock()

	var out []model.TrackingRecord
	for _, td := range tds {
		td.mu.Lock()
		rec := td.rec
		td.mu.Unlock()
		if rec.Closed {
			continue
		}
		if e.RequiresAttention(rec, now) {
			out = append(out, rec)
		}
	}
	return out
}
