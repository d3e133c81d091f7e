package events

import (
	"time"

	"github.com/swiftdrop/dispatch/core/model"
)

// StateChangeEvent is published on every delivery state transition.
type StateChangeEvent struct {
	DeliveryID string               `json:"delivery_id"`
	DriverID   string               `json:"driver_id,omitempty"`
	OldStatus  model.DeliveryStatus `json:"-"`
	NewStatus  model.DeliveryStatus `json:"-"`
	Old        string               `json:"old_status"`
	New        string               `json:"new_status"`
	Timestamp  time.Time            `json:"timestamp"`
	Actor      model.Actor          `json:"actor"`
}
