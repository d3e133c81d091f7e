package model

import (
	"time"

	"github.com/swiftdrop/dispatch/core/geo"
)

// TrackingStatus is the fine-grained progress state of an active delivery,
// used for customer-facing progress display.
type TrackingStatus int

const (
	TrackAssigned TrackingStatus = iota
	TrackHeadingToPickup
	TrackAtPickup
	TrackPickedUp
	TrackEnRoute
	TrackApproachingDelivery
	TrackAtDeliveryLocation
	TrackDelivering
	TrackDelivered
	TrackDeliveryFailed
)

// String returns the wire representation of the tracking status.
func (s TrackingStatus) String() string {
	switch s {
	case TrackAssigned:
		return "ASSIGNED"
	case TrackHeadingToPickup:
		return "HEADING_TO_PICKUP"
	case TrackAtPickup:
		return "AT_PICKUP"
	case TrackPickedUp:
		return "PICKED_UP"
	case TrackEnRoute:
		return "EN_ROUTE"
	case TrackApproachingDelivery:
		return "APPROACHING_DELIVERY"
	case TrackAtDeliveryLocation:
		return "AT_DELIVERY_LOCATION"
	case TrackDelivering:
		return "DELIVERING"
	case TrackDelivered:
		return "DELIVERED"
	case TrackDeliveryFailed:
		return "DELIVERY_FAILED"
	default:
		return "unknown"
	}
}

// TrafficCondition tags the traffic context applied to ETA computation.
type TrafficCondition int

const (
	TrafficUnknown TrafficCondition = iota
	TrafficLight
	TrafficModerate
	TrafficHeavy
	TrafficSevere
)

// ParseTrafficCondition converts the wire representation to a
// TrafficCondition. The empty string maps to TrafficUnknown.
func ParseTrafficCondition(s string) (TrafficCondition, error) {
	switch s {
	case "", "UNKNOWN":
		return TrafficUnknown, nil
	case "LIGHT":
		return TrafficLight, nil
	case "MODERATE":
		return TrafficModerate, nil
	case "HEAVY":
		return TrafficHeavy, nil
	case "SEVERE":
		return TrafficSevere, nil
	default:
		return 0, &UnknownEnumError{Kind: "traffic condition", Value: s}
	}
}

// UnknownEnumError reports an enum value that could not be parsed.
type UnknownEnumError struct {
	Kind  string
	Value string
}

func (e *UnknownEnumError) Error() string {
	return "unknown " + e.Kind + " \"" + e.Value + "\""
}

// TrackingRecord is the single evolving record for an active delivery.
// Exactly one open record exists per non-terminal delivery; the record is
// closed when the delivery reaches a terminal state.
type TrackingRecord struct {
	DeliveryID string
	DriverID   string

	Status TrackingStatus

	Location   geo.Point
	SpeedKmh   float64
	BearingDeg float64
	AccuracyM  float64

	DistanceToPickupKm   float64
	DistanceToDeliveryKm float64
	DistanceTraveledKm   float64
	RouteDeviationKm     float64

	AtRestaurant       bool
	AtRestaurantTime   time.Time
	PickedUp           bool
	PickedUpTime       time.Time
	EnRouteToCustomer  bool
	EnRouteTime        time.Time
	AtDeliveryLocation bool
	AtDeliveryTime     time.Time

	EstimatedDeliveryTime time.Time

	Traffic TrafficCondition
	Weather string

	// Device health, negative when never reported.
	BatteryPct float64
	SignalPct  float64

	TrackingTimestamp time.Time
	Closed            bool
}

// TelemetryReport is a single location/telemetry sample from a driver client.
type TelemetryReport struct {
	DeliveryID string    `json:"delivery_id"`
	DriverID   string    `json:"driver_id"`
	Location   geo.Point `json:"location"`
	SpeedKmh   float64   `json:"speed_kmh"`
	BearingDeg float64   `json:"bearing_deg"`
	AccuracyM  float64   `json:"accuracy_m"`
	Timestamp  time.Time `json:"timestamp"`

	// Optional device health; negative means unreported.
	BatteryPct float64 `json:"battery_pct"`
	SignalPct  float64 `json:"signal_pct"`
}
