package mqtt

import (
	"time"

	"github.com/swiftdrop/dispatch/core/model"
)

// Assignment is the offer payload sent to a driver client when a delivery is
// bound to them.
type Assignment struct {
	CommandID  string    `json:"command_id"`
	DeliveryID string    `json:"delivery_id"`
	DriverID   string    `json:"driver_id"`
	PickupLat  float64   `json:"pickup_lat"`
	PickupLon  float64   `json:"pickup_lon"`
	DropoffLat float64   `json:"dropoff_lat"`
	DropoffLon float64   `json:"dropoff_lon"`
	Type       string    `json:"delivery_type"`
	Timestamp  time.Time `json:"timestamp"`
}

// Client sends assignment offers to driver clients and tracks their
// acknowledgments.
type Client interface {
	// SendAssignment publishes the offer on the driver specific topic and
	// returns the command identifier used for acknowledgment tracking.
	SendAssignment(driverID string, a Assignment) (commandID string, err error)

	// WaitForAck waits for an acknowledgment of the given command or until
	// the timeout expires.
	WaitForAck(commandID string, timeout time.Duration) (bool, error)

	// PublishStateChange emits a delivery state change for external
	// subscribers. Fire-and-forget relative to the state transition itself.
	PublishStateChange(deliveryID string, payload []byte) error
}

// TelemetryHandler consumes decoded telemetry reports from the broker.
type TelemetryHandler interface {
	Apply(report model.TelemetryReport) error
}
