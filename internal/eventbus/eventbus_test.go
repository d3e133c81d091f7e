package eventbus

import (
	"testing"

	"github.com/swiftdrop/dispatch/core/events"
	"github.com/swiftdrop/dispatch/core/model"
)

func TestBusDeliversStateChanges(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	defer bus.Unsubscribe(ch)

	bus.Publish(events.StateChangeEvent{
		DeliveryID: "del-1",
		DriverID:   "drv-1",
		OldStatus:  model.DeliveryPending,
		NewStatus:  model.DeliveryAssigned,
	})

	sc, ok := (<-ch).(events.StateChangeEvent)
	if !ok {
		t.Fatal("expected a state change event")
	}
	if sc.DeliveryID != "del-1" || sc.NewStatus != model.DeliveryAssigned {
		t.Fatalf("got %+v", sc)
	}
}

func TestBusFansOutToAllSubscribers(t *testing.T) {
	bus := New()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()

	bus.Publish(events.MatchEvent{DeliveryID: "del-1", DriverID: "drv-1"})

	for i, ch := range []<-chan Event{ch1, ch2} {
		ev, ok := (<-ch).(events.MatchEvent)
		if !ok || ev.DriverID != "drv-1" {
			t.Fatalf("subscriber %d got %+v", i, ev)
		}
	}
	bus.Unsubscribe(ch1)
	bus.Unsubscribe(ch2)
}

func TestBusClose(t *testing.T) {
	bus := New()
	ch1 := bus.Subscribe()
	ch2 := bus.Subscribe()
	bus.Close()
	if _, ok := <-ch1; ok {
		t.Fatal("expected ch1 closed")
	}
	if _, ok := <-ch2; ok {
		t.Fatal("expected ch2 closed")
	}
}

func TestBusUnsubscribeAfterClose(t *testing.T) {
	bus := New()
	ch := bus.Subscribe()
	bus.Close()
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic on Unsubscribe after Close: %v", r)
		}
	}()
	bus.Unsubscribe(ch)
}
