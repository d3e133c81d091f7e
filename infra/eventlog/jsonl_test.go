package eventlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/swiftdrop/dispatch/core/events"
	"github.com/swiftdrop/dispatch/core/model"
)

func TestJSONLStore_AppendAndQuery(t *testing.T) {
	dir := t.TempDir()
	store, err := NewJSONLStore(filepath.Join(dir, "audit.jsonl"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	recs := []LogRecord{
		{Timestamp: now, DeliveryID: "d1", From: "PENDING", To: "ASSIGNED", Actor: "dispatcher"},
		{Timestamp: now.Add(time.Minute), DeliveryID: "d1", From: "ASSIGNED", To: "PICKUP_IN_PROGRESS", Actor: "driver"},
		{Timestamp: now.Add(2 * time.Minute), DeliveryID: "d2", From: "PENDING", To: "CANCELLED", Actor: "customer"},
	}
	for _, r := range recs {
		if err := store.Append(context.Background(), r); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	out, err := store.Query(context.Background(), LogQuery{DeliveryID: "d1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 records for d1, got %d", len(out))
	}
	out, err = store.Query(context.Background(), LogQuery{Actor: "customer"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 || out[0].DeliveryID != "d2" {
		t.Fatalf("unexpected actor filter result: %+v", out)
	}
	out, err = store.Query(context.Background(), LogQuery{Start: now.Add(90 * time.Second)})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 record after start filter, got %d", len(out))
	}
}

func TestRotatingJSONLStore_Rotation(t *testing.T) {
	dir := t.TempDir()
	path := dir + "/audit.jsonl"
	store, err := NewRotatingJSONLStore(path, 1, 2, 1)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	defer func() { _ = store.Close() }()
	rec := LogRecord{Timestamp: time.Now(), DeliveryID: "d1", From: "PENDING", To: "ASSIGNED"}
	for i := 0; i < 50000; i++ {
		if err := store.Append(context.Background(), rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	files, _ := filepath.Glob(path + "*")
	if len(files) < 2 {
		t.Fatalf("expected rotated files, got %v", files)
	}
	out, err := store.Query(context.Background(), LogQuery{DeliveryID: "d1"})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(out) == 0 {
		t.Fatalf("expected records across rotated files")
	}
}

func TestFromStateChange(t *testing.T) {
	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rec := FromStateChange(events.StateChangeEvent{
		DeliveryID: "d1",
		OldStatus:  model.DeliveryPending,
		NewStatus:  model.DeliveryAssigned,
		Timestamp:  at,
		Actor:      model.ActorDispatcher,
	})
	if rec.From != "PENDING" || rec.To != "ASSIGNED" {
		t.Fatalf("unexpected transition: %+v", rec)
	}
	if rec.Actor != string(model.ActorDispatcher) || !rec.Timestamp.Equal(at) {
		t.Fatalf("unexpected record: %+v", rec)
	}
}
