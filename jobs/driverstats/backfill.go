// Package driverstats rebuilds in-memory driver statistics from the
// delivery audit log, typically at startup after a restart wiped the
// registry counters.
package driverstats

import (
	"github.com/swiftdrop/dispatch/core/model"
	"github.com/swiftdrop/dispatch/core/registry"
	"github.com/swiftdrop/dispatch/infra/eventlog"
)

// Backfill replays terminal state transitions from the audit trail into
// the registry counters. Records without a driver id are skipped, as are
// transitions into non-terminal states. Earnings are not recoverable from
// the log and are replayed as zero.
func Backfill(reg registry.Registry, history []eventlog.LogRecord) int {
	n := 0
	for _, rec := range history {
		if rec.DriverID == "" {
			continue
		}
		switch rec.To {
		case model.DeliveryDelivered.String():
			reg.RecordDelivered(rec.DriverID, 0)
		case model.DeliveryFailed.String():
			reg.RecordFailed(rec.DriverID)
		default:
			continue
		}
		n++
	}
	return n
}
