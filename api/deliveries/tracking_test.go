package deliveries

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/swiftdrop/dispatch/core/geo"
	"github.com/swiftdrop/dispatch/core/model"
	"github.com/swiftdrop/dispatch/core/tracking"
)

type fakeSource struct {
	snaps     map[string]tracking.Snapshot
	attention []model.TrackingRecord
}

func (f *fakeSource) Snapshot(id string) (tracking.Snapshot, bool) {
	s, ok := f.snaps[id]
	return s, ok
}

func (f *fakeSource) AttentionList(time.Time) []model.TrackingRecord {
	return f.attention
}

func TestTrackingHandler(t *testing.T) {
	src := &fakeSource{snaps: map[string]tracking.Snapshot{
		"d1": {
			DeliveryID:  "d1",
			Status:      "EN_ROUTE",
			Description: "On the way to you",
			ProgressPct: 60,
			Location:    geo.Point{Lat: 40.7484, Lon: -73.9857},
		},
	}}
	h := NewTrackingHandler(src)

	req := httptest.NewRequest("GET", "/api/deliveries/track?delivery_id=d1", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var snap tracking.Snapshot
	if err := json.Unmarshal(rr.Body.Bytes(), &snap); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if snap.Status != "EN_ROUTE" || snap.ProgressPct != 60 {
		t.Fatalf("unexpected snapshot: %+v", snap)
	}

	req = httptest.NewRequest("GET", "/api/deliveries/track?delivery_id=nope", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}

	req = httptest.NewRequest("GET", "/api/deliveries/track", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestAttentionHandler(t *testing.T) {
	src := &fakeSource{attention: []model.TrackingRecord{
		{DeliveryID: "d1", DriverID: "drv-1", Status: model.TrackEnRoute},
	}}
	h := NewAttentionHandler(src)

	req := httptest.NewRequest("GET", "/api/deliveries/attention", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var recs []model.TrackingRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 1 || recs[0].DeliveryID != "d1" {
		t.Fatalf("unexpected records: %+v", recs)
	}

	src.attention = nil
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/deliveries/attention", nil))
	if body := rr.Body.String(); body != "[]\n" {
		t.Fatalf("expected empty array, got %q", body)
	}
}
