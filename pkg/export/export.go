package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"time"

	"github.com/swiftdrop/dispatch/core/scheduler"
)

// WriteJSON writes the shift plan to w in JSON format.
func WriteJSON(w io.Writer, entries []scheduler.ShiftEntry) error {
	enc := json.NewEncoder(w)
	return enc.Encode(entries)
}

// WriteCSV writes the shift plan to w in CSV format.
func WriteCSV(w io.Writer, entries []scheduler.ShiftEntry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"driver_id", "timeslot"}); err != nil {
		return err
	}
	for _, e := range entries {
		rec := []string{
			e.DriverID,
			e.TimeSlot.Format(time.RFC3339),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
