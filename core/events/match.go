package events

import (
	"time"

	"github.com/swiftdrop/dispatch/core/model"
)

// MatchEvent is published for each matching attempt on a pending delivery.
// Outcome is "bound", "no_candidate" or "exhausted".
type MatchEvent struct {
	DeliveryID string
	DriverID   string
	Outcome    string
	Candidates int
	DistanceKm float64
	Time       time.Time
}

// OfferAckEvent is published for each assignment offer sent to a driver.
type OfferAckEvent struct {
	DeliveryID   string
	DriverID     string
	Acknowledged bool
	Err          error
	Latency      time.Duration
}

// MilestoneEvent is published when the tracking engine detects a geofence
// crossing. Milestone is "at_restaurant" or "at_delivery_location".
type MilestoneEvent struct {
	DeliveryID string
	DriverID   string
	Milestone  string
	DistanceKm float64
	Time       time.Time
}

// TelemetryDropEvent is published when an incoming report is discarded.
// Reason is "out_of_order", "terminal", "unknown_delivery" or
// "invalid_location".
type TelemetryDropEvent struct {
	DeliveryID string
	Reason     string
	Report     model.TelemetryReport
}
