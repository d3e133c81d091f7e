package dispatch

import (
	"errors"
	"sort"
	"time"

	"github.com/swiftdrop/dispatch/core/geo"
	"github.com/swiftdrop/dispatch/core/model"
)

// ErrNoCandidates indicates no matchable driver passed the suitability and
// availability filters.
var ErrNoCandidates = errors.New("no candidate drivers")

// ErrOffersExhausted indicates every ranked candidate was offered the
// delivery and none accepted.
var ErrOffersExhausted = errors.New("all candidates declined or were taken")

// Candidate pairs a matchable driver with its distance to the pickup.
type Candidate struct {
	Driver     model.Driver
	DistanceKm float64
}

// Matcher ranks the driver roster for a single delivery. It is stateless;
// binding the chosen driver belongs to the Manager.
type Matcher struct{}

// Candidates filters the roster down to drivers that can take the delivery
// and ranks them: closest pickup first, then higher rating, then fewer
// completed deliveries so new drivers get work.
func (Matcher) Candidates(d model.Delivery, drivers []model.Driver, now time.Time) []Candidate {
	out := make([]Candidate, 0, len(drivers))
	for _, drv := range drivers {
		if !drv.Matchable() || drv.Location == nil {
			continue
		}
		if !model.SuitableFor(drv.Vehicle, d.Type, d.WeightKg, d.VolumeL, now) {
			continue
		}
		dist, err := geo.DistanceKm(*drv.Location, d.Pickup)
		if err != nil {
			continue
		}
		out = append(out, Candidate{Driver: drv, DistanceKm: dist})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		if out[i].Driver.AverageRating != out[j].Driver.AverageRating {
			return out[i].Driver.AverageRating > out[j].Driver.AverageRating
		}
		return out[i].Driver.TotalDeliveries < out[j].Driver.TotalDeliveries
	})
	return out
}

// Best returns the top ranked candidate.
func (m Matcher) Best(d model.Delivery, drivers []model.Driver, now time.Time) (Candidate, bool) {
	cands := m.Candidates(d, drivers, now)
	if len(cands) == 0 {
		return Candidate{}, false
	}
	return cands[0], true
}
