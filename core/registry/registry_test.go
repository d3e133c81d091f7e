package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/swiftdrop/dispatch/core/geo"
	"github.com/swiftdrop/dispatch/core/model"
)

func availableDriver(id string) model.Driver {
	return model.Driver{
		ID:                    id,
		Availability:          model.StatusAvailable,
		LicenseValid:          true,
		BackgroundCheckPassed: true,
	}
}

func TestCompareAndSetAvailability(t *testing.T) {
	r := NewMemoryRegistry()
	r.Put(availableDriver("d1"))

	if !r.CompareAndSetAvailability("d1", model.StatusAvailable, model.StatusBusy) {
		t.Fatal("cas from matching state failed")
	}
	if r.CompareAndSetAvailability("d1", model.StatusAvailable, model.StatusBusy) {
		t.Fatal("cas succeeded with stale expectation")
	}
	d, _ := r.Get("d1")
	if d.Availability != model.StatusBusy {
		t.Fatalf("availability %v", d.Availability)
	}
}

func TestAcquire_SingleWinner(t *testing.T) {
	r := NewMemoryRegistry()
	r.Put(availableDriver("d1"))

	var wg sync.WaitGroup
	wins := make(chan string, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if r.Acquire("d1", "del-1") {
				wins <- "del-1"
			}
		}(i)
	}
	wg.Wait()
	close(wins)
	count := 0
	for range wins {
		count++
	}
	if count != 1 {
		t.Fatalf("expected exactly one winner, got %d", count)
	}
}

func TestAcquire_RejectsIneligible(t *testing.T) {
	r := NewMemoryRegistry()
	d := availableDriver("d1")
	d.LicenseValid = false
	r.Put(d)
	if r.Acquire("d1", "del-1") {
		t.Fatal("acquired ineligible driver")
	}

	d2 := availableDriver("d2")
	d2.ActiveDeliveryID = "del-0"
	r.Put(d2)
	if r.Acquire("d2", "del-1") {
		t.Fatal("acquired driver bound to another delivery")
	}
}

func TestReleaseRoundTrip(t *testing.T) {
	r := NewMemoryRegistry()
	r.Put(availableDriver("d1"))
	if !r.Acquire("d1", "del-1") {
		t.Fatal("acquire failed")
	}
	if !r.Release("d1") {
		t.Fatal("release failed")
	}
	d, _ := r.Get("d1")
	if d.Availability != model.StatusAvailable || d.ActiveDeliveryID != "" {
		t.Fatalf("driver not released: %+v", d)
	}
	if r.Release("d1") {
		t.Fatal("double release succeeded")
	}
}

func TestSetLocationAndList(t *testing.T) {
	r := NewMemoryRegistry()
	r.Put(availableDriver("d2"))
	r.Put(availableDriver("d1"))
	off := availableDriver("d3")
	off.Availability = model.StatusOffline
	r.Put(off)

	now := time.Now()
	if !r.SetLocation("d1", geo.Point{Lat: 40.7, Lon: -74.0}, now) {
		t.Fatal("set location failed")
	}
	if r.SetLocation("nope", geo.Point{}, now) {
		t.Fatal("set location on unknown driver succeeded")
	}

	avail := model.StatusAvailable
	out := r.List(Filter{Availability: &avail})
	if len(out) != 2 || out[0].ID != "d1" || out[1].ID != "d2" {
		t.Fatalf("list: %+v", out)
	}
	if out[0].Location == nil || out[0].Location.Lat != 40.7 {
		t.Fatalf("location not applied: %+v", out[0].Location)
	}
}

func TestAddRating_RunningAverage(t *testing.T) {
	r := NewMemoryRegistry()
	r.Put(availableDriver("d1"))
	r.AddRating("d1", 5)
	r.AddRating("d1", 4)
	r.AddRating("d1", 3)
	d, _ := r.Get("d1")
	if d.AverageRating != 4 || d.RatingCount != 3 {
		t.Fatalf("rating %v count %d", d.AverageRating, d.RatingCount)
	}
}

func TestDeactivate(t *testing.T) {
	r := NewMemoryRegistry()
	r.Put(availableDriver("d1"))
	r.Deactivate("d1")
	d, _ := r.Get("d1")
	if !d.Deactivated || d.Availability != model.StatusOffline {
		t.Fatalf("deactivate: %+v", d)
	}
	if r.Acquire("d1", "del-1") {
		t.Fatal("acquired deactivated driver")
	}
}
