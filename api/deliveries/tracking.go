package deliveries

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/swiftdrop/dispatch/core/model"
	"github.com/swiftdrop/dispatch/core/tracking"
)

// SnapshotSource is the read side of the tracking engine.
type SnapshotSource interface {
	Snapshot(deliveryID string) (tracking.Snapshot, bool)
	AttentionList(now time.Time) []model.TrackingRecord
}

// NewTrackingHandler returns an HTTP handler exposing customer-facing
// tracking snapshots via GET /api/deliveries/track?delivery_id=<id>.
func NewTrackingHandler(src SnapshotSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id := r.URL.Query().Get("delivery_id")
		if id == "" {
			http.Error(w, "delivery_id is required", http.StatusBadRequest)
			return
		}
		snap, ok := src.Snapshot(id)
		if !ok {
			http.Error(w, "unknown delivery", http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(snap); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}

// NewAttentionHandler returns an HTTP handler listing active deliveries that
// need operator attention via GET /api/deliveries/attention.
func NewAttentionHandler(src SnapshotSource) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		records := src.AttentionList(time.Now())
		if records == nil {
			records = []model.TrackingRecord{}
		}
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(records); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
	})
}
