package metrics

import (
	"time"

	"github.com/swiftdrop/dispatch/core/geo"
	"github.com/swiftdrop/dispatch/core/model"
)

// MatchResult represents a per-delivery matching outcome to be recorded.
type MatchResult struct {
	DeliveryID   string
	DriverID     string
	DeliveryType model.DeliveryType
	DistanceKm   float64
	Candidates   int
	Acknowledged bool
	MatchTime    time.Time
}

// MetricsSink records matching outcomes for observability purposes.
type MetricsSink interface {
	RecordMatchResult(results []MatchResult) error
}

// StateTransitionEvent captures one delivery state change.
type StateTransitionEvent struct {
	DeliveryID string
	DriverID   string
	From       model.DeliveryStatus
	To         model.DeliveryStatus
	Actor      model.Actor
	Time       time.Time
}

// StateTransitionRecorder records delivery state transitions.
type StateTransitionRecorder interface {
	RecordStateTransition(ev StateTransitionEvent) error
}

// TrackingSnapshotEvent is a point-in-time view of an active delivery.
type TrackingSnapshotEvent struct {
	DeliveryID       string
	DriverID         string
	Status           model.TrackingStatus
	Location         geo.Point
	SpeedKmh         float64
	DistanceToStopKm float64
	ProgressPct      int
	Stale            bool
	Time             time.Time
}

// TrackingSnapshotRecorder records tracking snapshots.
type TrackingSnapshotRecorder interface {
	RecordTrackingSnapshot(ev TrackingSnapshotEvent) error
}

// OfferLatency represents the time to receive an acknowledgment for an
// assignment offer.
type OfferLatency struct {
	DeliveryID   string
	DriverID     string
	Acknowledged bool
	Latency      time.Duration
}

// LatencyRecorder is implemented by sinks able to record offer latency.
type LatencyRecorder interface {
	RecordOfferLatency(latencies []OfferLatency) error
}

// FleetSizeRecorder records the number of drivers in the matching snapshot.
type FleetSizeRecorder interface {
	RecordFleetSize(size int) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordMatchResult([]MatchResult) error               { return nil }
func (NopSink) RecordStateTransition(StateTransitionEvent) error    { return nil }
func (NopSink) RecordTrackingSnapshot(TrackingSnapshotEvent) error  { return nil }
func (NopSink) RecordOfferLatency([]OfferLatency) error             { return nil }
func (NopSink) RecordFleetSize(int) error                           { return nil }
