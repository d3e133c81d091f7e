package drivers

import (
	"encoding/json"
	"net/http"

	"github.com/swiftdrop/dispatch/core/model"
	"github.com/swiftdrop/dispatch/core/registry"
)

// rosterEntry is the wire shape of a driver in roster listings. Compliance
// internals stay private; only dispatch-relevant fields are exposed.
type rosterEntry struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Availability     string   `json:"availability"`
	Lat              *float64 `json:"lat,omitempty"`
	Lon              *float64 `json:"lon,omitempty"`
	VehicleType      string   `json:"vehicle_type"`
	ActiveDeliveryID string   `json:"active_delivery_id,omitempty"`
	TotalDeliveries  int      `json:"total_deliveries"`
	AverageRating    float64  `json:"average_rating"`
}

// NewRosterHandler returns an HTTP handler exposing the driver roster via
// GET /api/drivers. Supported filters: availability, eligible_only.
func NewRosterHandler(reg registry.Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		f := registry.Filter{}
		if s := r.URL.Query().Get("availability"); s != "" {
			av, ok := parseAvailability(s)
			if !ok {
				http.Error(w, "unknown availability", http.StatusBadRequest)
				return
			}
			f.Availability = &av
		}
		if r.URL.Query().Get("eligible_only") == "true" {
			f.EligibleOnly = true
		}
		entries := []rosterEntry{}
		for _, d := range reg.List(f) {
			e := rosterEntry{
				ID:               d.ID,
				Name:             d.Name,
				Availability:     d.Availability.String(),
				VehicleType:      d.Vehicle.Type.String(),
				ActiveDeliveryID: d.ActiveDeliveryID,
				TotalDeliveries:  d.TotalDeliveries,
				AverageRating:    d.AverageRating,
			}
			if d.Location != nil {
				lat, lon := d.Location.Lat, d.Location.Lon
				e.Lat, e.Lon = &lat, &lon
			}
			entries = append(entries, e)
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(entries); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

func parseAvailability(s string) (model.AvailabilityStatus, bool) {
	switch s {
	case "OFFLINE":
		return model.StatusOffline, true
	case "AVAILABLE":
		return model.StatusAvailable, true
	case "BUSY":
		return model.StatusBusy, true
	case "ON_BREAK":
		return model.StatusOnBreak, true
	default:
		return 0, false
	}
}
