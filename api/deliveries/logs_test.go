package deliveries

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/swiftdrop/dispatch/infra/eventlog"
)

type memStore struct{ recs []eventlog.LogRecord }

func (m *memStore) Append(ctx context.Context, r eventlog.LogRecord) error {
	m.recs = append(m.recs, r)
	return nil
}

func (m *memStore) Query(ctx context.Context, q eventlog.LogQuery) ([]eventlog.LogRecord, error) {
	var res []eventlog.LogRecord
	for _, r := range m.recs {
		if q.DeliveryID != "" && r.DeliveryID != q.DeliveryID {
			continue
		}
		if q.Actor != "" && r.Actor != q.Actor {
			continue
		}
		res = append(res, r)
	}
	return res, nil
}

func (m *memStore) Close() error { return nil }

func TestLogHandler_AuthAndFilters(t *testing.T) {
	store := &memStore{}
	if err := store.Append(context.Background(), eventlog.LogRecord{
		Timestamp:  time.Now(),
		DeliveryID: "d1",
		From:       "PENDING",
		To:         "ASSIGNED",
		Actor:      "dispatcher",
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := store.Append(context.Background(), eventlog.LogRecord{
		Timestamp:  time.Now(),
		DeliveryID: "d2",
		From:       "PENDING",
		To:         "CANCELLED",
		Actor:      "customer",
	}); err != nil {
		t.Fatalf("append: %v", err)
	}
	h := NewLogHandler(store, "tok")

	req := httptest.NewRequest("GET", "/api/deliveries/logs?delivery_id=d1", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
	var recs []eventlog.LogRecord
	if err := json.Unmarshal(rr.Body.Bytes(), &recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 1 || recs[0].DeliveryID != "d1" {
		t.Fatalf("unexpected records: %+v", recs)
	}

	req = httptest.NewRequest("GET", "/api/deliveries/logs", nil)
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}

	req = httptest.NewRequest("GET", "/api/deliveries/logs?actor=customer", nil)
	req.Header.Set("Authorization", "Bearer tok")
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	recs = nil
	if err := json.Unmarshal(rr.Body.Bytes(), &recs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(recs) != 1 || recs[0].DeliveryID != "d2" {
		t.Fatalf("unexpected actor filter: %+v", recs)
	}
}

func TestLogHandler_NoToken(t *testing.T) {
	h := NewLogHandler(&memStore{}, "")
	req := httptest.NewRequest("GET", "/api/deliveries/logs", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("status %d", rr.Code)
	}
}
