package eventlog

import (
	"github.com/swiftdrop/dispatch/core/events"
)

// FromStateChange converts a bus event into a log record.
func FromStateChange(e events.StateChangeEvent) LogRecord {
	return LogRecord{
		Timestamp:  e.Timestamp,
		DeliveryID: e.DeliveryID,
		DriverID:   e.DriverID,
		From:       e.OldStatus.String(),
		To:         e.NewStatus.String(),
		Actor:      string(e.Actor),
	}
}
