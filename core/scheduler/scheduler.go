package scheduler

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/swiftdrop/dispatch/core/model"
	"github.com/swiftdrop/dispatch/core/prediction"
)

// ShiftWindow represents a driver's declared availability period.
type ShiftWindow struct {
	Start time.Time
	End   time.Time
}

// SchedulerConfig defines planning parameters loaded from configuration.
type SchedulerConfig struct {
	SlotDurationMinutes int     `json:"slot_duration_minutes" yaml:"slot_duration_minutes"`
	OrdersPerDriverHour float64 `json:"orders_per_driver_hour" yaml:"orders_per_driver_hour"`
}

// Scheduler generates day-ahead shift plans.
type Scheduler struct {
	Config       SchedulerConfig
	Drivers      []model.Driver
	Availability map[string][]ShiftWindow
	Forecast     prediction.DemandForecaster
}

// ShiftEntry books one driver for one timeslot.
type ShiftEntry struct {
	DriverID string    `json:"driver_id"`
	TimeSlot time.Time `json:"timeslot"`
}

// GeneratePlan builds a shift plan for the given day. It returns one entry
// per booked driver and timeslot; slots with zero forecast demand book
// nobody. Within a slot, better rated and more experienced drivers are
// booked first.
func (s *Scheduler) GeneratePlan(date time.Time) ([]ShiftEntry, error) {
	if s.Config.SlotDurationMinutes <= 0 {
		return nil, errors.New("slot_duration_minutes must be positive")
	}
	if s.Config.OrdersPerDriverHour <= 0 {
		return nil, errors.New("orders_per_driver_hour must be positive")
	}
	if s.Forecast == nil {
		return nil, errors.New("forecast is required")
	}
	slotDur := time.Duration(s.Config.SlotDurationMinutes) * time.Minute
	totalSlots := int((24 * time.Hour) / slotDur)
	if totalSlots == 0 {
		return nil, errors.New("slot duration too long")
	}

	startOfDay := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	var entries []ShiftEntry

	for i := 0; i < totalSlots; i++ {
		ts := startOfDay.Add(time.Duration(i) * slotDur)
		demand := s.Forecast.ForecastOrders(ts, slotDur)
		if demand <= 0 {
			continue
		}
		required := int(math.Ceil(demand / (s.Config.OrdersPerDriverHour * slotDur.Hours())))

		var available []model.Driver
		for _, d := range s.Drivers {
			if !d.Eligible() {
				continue
			}
			if s.driverAvailable(d.ID, ts, slotDur) {
				available = append(available, d)
			}
		}
		if len(available) < required {
			return nil, fmt.Errorf("insufficient drivers at %v: need %d, have %d", ts, required, len(available))
		}
		sort.SliceStable(available, func(a, b int) bool {
			if available[a].AverageRating != available[b].AverageRating {
				return available[a].AverageRating > available[b].AverageRating
			}
			return available[a].TotalDeliveries > available[b].TotalDeliveries
		})
		for _, d := range available[:required] {
			entries = append(entries, ShiftEntry{DriverID: d.ID, TimeSlot: ts})
		}
	}
	return entries, nil
}

func (s *Scheduler) driverAvailable(id string, t time.Time, d time.Duration) bool {
	windows := s.Availability[id]
	end := t.Add(d)
	for _, w := range windows {
		if (t.Equal(w.Start) || t.After(w.Start)) && !end.After(w.End) {
			return true
		}
	}
	return false
}
