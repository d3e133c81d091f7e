package prediction

import "time"

// MockForecaster returns a deterministic hourly order rate.
type MockForecaster struct {
	// Hourly maps the hour of day to an orders-per-hour rate.
	Hourly map[int]float64
	// Default is used for hours missing from Hourly.
	Default float64
}

// ForecastOrders scales the hourly rate to the slot duration.
func (m MockForecaster) ForecastOrders(t time.Time, slot time.Duration) float64 {
	rate := m.Default
	if m.Hourly != nil {
		if r, ok := m.Hourly[t.Hour()]; ok {
			rate = r
		}
	}
	return rate * slot.Hours()
}
