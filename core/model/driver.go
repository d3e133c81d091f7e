package model

import (
	"time"

	"github.com/swiftdrop/dispatch/core/geo"
)

// AvailabilityStatus describes whether a driver can accept work.
type AvailabilityStatus int

const (
	StatusOffline AvailabilityStatus = iota
	StatusAvailable
	StatusBusy
	StatusOnBreak
)

// String returns a human-readable representation of the availability status.
func (s AvailabilityStatus) String() string {
	switch s {
	case StatusOffline:
		return "OFFLINE"
	case StatusAvailable:
		return "AVAILABLE"
	case StatusBusy:
		return "BUSY"
	case StatusOnBreak:
		return "ON_BREAK"
	default:
		return "unknown"
	}
}

// Driver represents a courier known to the dispatch core. Drivers are
// onboarded externally; the core mutates location, availability and the
// cumulative stats, and never deletes a driver (Deactivated instead).
type Driver struct {
	ID   string
	Name string

	// Location is nil until the first telemetry report arrives.
	Location     *geo.Point
	LocationTime time.Time

	Availability AvailabilityStatus

	LicenseValid          bool
	BackgroundCheckPassed bool
	Deactivated           bool

	// ActiveDeliveryID is set while the driver is bound to a delivery.
	ActiveDeliveryID string

	Vehicle Vehicle

	TotalDeliveries      int
	SuccessfulDeliveries int
	AverageRating        float64
	RatingCount          int
	TotalEarnings        float64
}

// Eligible reports whether the driver passes the compliance gates required
// for matching. Availability is checked separately at bind time.
func (d Driver) Eligible() bool {
	return d.LicenseValid && d.BackgroundCheckPassed && !d.Deactivated
}

// Matchable reports whether the driver can be offered a new delivery.
func (d Driver) Matchable() bool {
	return d.Availability == StatusAvailable && d.Eligible() && d.ActiveDeliveryID == ""
}
