package model

import (
	"fmt"
	"time"

	"github.com/swiftdrop/dispatch/core/geo"
)

// DeliveryStatus is the canonical lifecycle state of a delivery.
type DeliveryStatus int

const (
	DeliveryPending DeliveryStatus = iota
	DeliveryAssigned
	DeliveryPickupInProgress
	DeliveryPickedUp
	DeliveryEnRoute
	DeliveryArrived
	DeliveryDelivered
	DeliveryCancelled
	DeliveryFailed
)

// String returns the wire representation of the status.
func (s DeliveryStatus) String() string {
	switch s {
	case DeliveryPending:
		return "PENDING"
	case DeliveryAssigned:
		return "ASSIGNED"
	case DeliveryPickupInProgress:
		return "PICKUP_IN_PROGRESS"
	case DeliveryPickedUp:
		return "PICKED_UP"
	case DeliveryEnRoute:
		return "EN_ROUTE"
	case DeliveryArrived:
		return "ARRIVED"
	case DeliveryDelivered:
		return "DELIVERED"
	case DeliveryCancelled:
		return "CANCELLED"
	case DeliveryFailed:
		return "FAILED"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transition is possible.
func (s DeliveryStatus) Terminal() bool {
	return s == DeliveryDelivered || s == DeliveryCancelled || s == DeliveryFailed
}

// DeliveryType tags a delivery with its handling category. Each category
// carries vehicle-type restrictions, see SuitableFor.
type DeliveryType int

const (
	TypeStandard DeliveryType = iota
	TypeExpress
	TypeLargeOrder
	TypeAlcohol
	TypePharmacy
)

// String returns the wire representation of the delivery type.
func (t DeliveryType) String() string {
	switch t {
	case TypeStandard:
		return "STANDARD"
	case TypeExpress:
		return "EXPRESS"
	case TypeLargeOrder:
		return "LARGE_ORDER"
	case TypeAlcohol:
		return "ALCOHOL"
	case TypePharmacy:
		return "PHARMACY"
	default:
		return "unknown"
	}
}

// ParseDeliveryType converts the wire representation to a DeliveryType.
func ParseDeliveryType(s string) (DeliveryType, error) {
	switch s {
	case "STANDARD":
		return TypeStandard, nil
	case "EXPRESS":
		return TypeExpress, nil
	case "LARGE_ORDER":
		return TypeLargeOrder, nil
	case "ALCOHOL":
		return TypeAlcohol, nil
	case "PHARMACY":
		return TypePharmacy, nil
	default:
		return 0, &UnknownEnumError{Kind: "delivery type", Value: s}
	}
}

// Actor identifies who requested a transition.
type Actor string

const (
	ActorDriver     Actor = "driver"
	ActorDispatcher Actor = "dispatcher"
	ActorCustomer   Actor = "customer"
	ActorSystem     Actor = "system"
)

// Delivery is created when an order is confirmed and mutated exclusively
// through state machine transitions. Deliveries are soft-archived, never
// physically deleted.
type Delivery struct {
	ID      string
	OrderID string

	Pickup  geo.Point
	Dropoff geo.Point

	Type     DeliveryType
	Priority int
	WeightKg float64
	VolumeL  float64
	Fee      float64

	Status DeliveryStatus

	// DriverID is non-empty iff the status is at or beyond ASSIGNED and the
	// delivery was not explicitly unassigned by a cancellation or failure.
	DriverID string

	RequestedPickupTime   time.Time
	EstimatedPickupTime   time.Time
	ActualPickupTime      time.Time
	RequestedDeliveryTime time.Time
	EstimatedDeliveryTime time.Time
	ActualDeliveryTime    time.Time
	DriverAssignedTime    time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	CancelReason  string
	FailureReason string

	Rated    bool
	Rating   int
	Feedback string

	Archived bool
}

// Validate checks the fields required before a delivery may enter the
// state machine.
func (d Delivery) Validate() error {
	if d.OrderID == "" {
		return fmt.Errorf("delivery: order id is required")
	}
	if !d.Pickup.Valid() {
		return &geo.InvalidCoordinateError{Lat: d.Pickup.Lat, Lon: d.Pickup.Lon}
	}
	if !d.Dropoff.Valid() {
		return &geo.InvalidCoordinateError{Lat: d.Dropoff.Lat, Lon: d.Dropoff.Lon}
	}
	if d.WeightKg < 0 || d.VolumeL < 0 {
		return fmt.Errorf("delivery: negative weight or volume")
	}
	return nil
}
