package prediction

import (
	"testing"
	"time"
)

func TestMockForecaster(t *testing.T) {
	m := MockForecaster{Hourly: map[int]float64{12: 40}, Default: 10}
	noon := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := m.ForecastOrders(noon, time.Hour); got != 40 {
		t.Fatalf("expected 40, got %v", got)
	}
	if got := m.ForecastOrders(noon, 30*time.Minute); got != 20 {
		t.Fatalf("expected 20, got %v", got)
	}
	night := time.Date(2025, 6, 1, 3, 0, 0, 0, time.UTC)
	if got := m.ForecastOrders(night, time.Hour); got != 10 {
		t.Fatalf("expected default rate, got %v", got)
	}
}
