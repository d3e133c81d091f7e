package drivers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/swiftdrop/dispatch/core/geo"
	"github.com/swiftdrop/dispatch/core/model"
	"github.com/swiftdrop/dispatch/core/registry"
)

func seed(t *testing.T) *registry.MemoryRegistry {
	t.Helper()
	reg := registry.NewMemoryRegistry()
	reg.Put(model.Driver{
		ID:                    "drv-1",
		Name:                  "Ada",
		Availability:          model.StatusAvailable,
		LicenseValid:          true,
		BackgroundCheckPassed: true,
		Vehicle:               model.Vehicle{Type: model.VehicleCar},
		TotalDeliveries:       12,
		AverageRating:         4.7,
	})
	reg.Put(model.Driver{
		ID:           "drv-2",
		Name:         "Linus",
		Availability: model.StatusBusy,
		Vehicle:      model.Vehicle{Type: model.VehicleBicycle},
	})
	reg.SetLocation("drv-1", geo.Point{Lat: 40.7128, Lon: -74.0060}, time.Now())
	return reg
}

func TestRosterHandler_Filters(t *testing.T) {
	h := NewRosterHandler(seed(t))

	req := httptest.NewRequest("GET", "/api/drivers?availability=AVAILABLE", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var entries []rosterEntry
	if err := json.Unmarshal(rr.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "drv-1" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
	if entries[0].Lat == nil || *entries[0].Lat != 40.7128 {
		t.Fatalf("expected location, got %+v", entries[0])
	}
	if entries[0].VehicleType != "CAR" {
		t.Fatalf("unexpected vehicle type %q", entries[0].VehicleType)
	}
}

func TestRosterHandler_EligibleOnly(t *testing.T) {
	h := NewRosterHandler(seed(t))

	req := httptest.NewRequest("GET", "/api/drivers?eligible_only=true", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var entries []rosterEntry
	if err := json.Unmarshal(rr.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(entries) != 1 || entries[0].ID != "drv-1" {
		t.Fatalf("expected only the compliant driver: %+v", entries)
	}
}

func TestRosterHandler_BadAvailability(t *testing.T) {
	h := NewRosterHandler(seed(t))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/api/drivers?availability=NAPPING", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}
