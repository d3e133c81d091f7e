package dispatch

import (
	"errors"
	"time"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/swiftdrop/dispatch/core/geo"
	"github.com/swiftdrop/dispatch/core/logger"
	"github.com/swiftdrop/dispatch/core/model"
)

// ErrInfeasible indicates the assignment program had no feasible solution.
var ErrInfeasible = errors.New("assignment infeasible")

// Pair is one delivery to driver binding proposed by a batch plan.
type Pair struct {
	DeliveryID string
	DriverID   string
	DistanceKm float64
}

// forbiddenKm marks driver and delivery combinations the suitability filter
// rejected. It dominates unmatchedKm so the solver prefers leaving a
// delivery unmatched over binding an unsuitable driver.
const (
	unmatchedKm = 1e4
	forbiddenKm = 1e6
)

// BatchMatcher plans a whole pending queue against the roster at once by
// solving the relaxed assignment problem with the simplex method. The
// relaxation of an assignment program has an integral optimum, so rounding
// the solution recovers a one-to-one plan.
type BatchMatcher struct {
	log logger.Logger
}

// NewBatchMatcher returns a batch planner.
func NewBatchMatcher(log logger.Logger) *BatchMatcher {
	return &BatchMatcher{log: log}
}

// costMatrix holds pickup distances, with forbiddenKm for combinations the
// suitability filter rejected.
func costMatrix(deliveries []model.Delivery, drivers []model.Driver, now time.Time) [][]float64 {
	cost := make([][]float64, len(deliveries))
	for i, d := range deliveries {
		cost[i] = make([]float64, len(drivers))
		for j, drv := range drivers {
			cost[i][j] = forbiddenKm
			if !drv.Matchable() || drv.Location == nil {
				continue
			}
			if !model.SuitableFor(drv.Vehicle, d.Type, d.WeightKg, d.VolumeL, now) {
				continue
			}
			if dist, err := geo.DistanceKm(*drv.Location, d.Pickup); err == nil {
				cost[i][j] = dist
			}
		}
	}
	return cost
}

// solveAssignment minimises total pickup distance. One variable per delivery
// and driver combination plus one slack variable per delivery that absorbs
// the "leave unmatched" case, so the per-delivery rows are equalities while
// drivers stay capacity constrained.
func solveAssignment(cost [][]float64) ([]float64, error) {
	n := len(cost)
	m := len(cost[0])
	nVars := n*m + n

	c := make([]float64, nVars)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			c[i*m+j] = cost[i][j]
		}
		c[n*m+i] = unmatchedKm
	}

	// Each driver takes at most one delivery. The trailing rows bound every
	// variable at zero from below; Convert treats the variables as free
	// otherwise and the program becomes unbounded.
	g := mat.NewDense(m+nVars, nVars, nil)
	h := make([]float64, m+nVars)
	for j := 0; j < m; j++ {
		for i := 0; i < n; i++ {
			g.Set(j, i*m+j, 1)
		}
		h[j] = 1
	}
	for k := 0; k < nVars; k++ {
		g.Set(m+k, k, -1)
	}

	// Each delivery is bound exactly once, to a driver or to its slack.
	a := mat.NewDense(n, nVars, nil)
	b := make([]float64, n)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			a.Set(i, i*m+j, 1)
		}
		a.Set(i, n*m+i, 1)
		b[i] = 1
	}

	cStd, aStd, bStd := lp.Convert(c, g, h, a, b)
	_, solStd, err := lp.Simplex(cStd, aStd, bStd, 1e-7, nil)
	if err != nil {
		return nil, ErrInfeasible
	}

	// Convert splits each variable into positive and negative parts.
	sol := make([]float64, nVars)
	for k := range sol {
		sol[k] = solStd[k] - solStd[nVars+k]
	}
	return sol, nil
}

// assignmentSolve points to the solver so tests can simulate failures.
var assignmentSolve = solveAssignment

// Plan returns the distance-optimal set of bindings. Deliveries with no
// suitable driver are simply absent from the result. On solver failure the
// plan falls back to greedy nearest-driver ordering.
func (bm *BatchMatcher) Plan(deliveries []model.Delivery, drivers []model.Driver, now time.Time) []Pair {
	if len(deliveries) == 0 || len(drivers) == 0 {
		return nil
	}
	cost := costMatrix(deliveries, drivers, now)
	sol, err := assignmentSolve(cost)
	if err != nil {
		bm.log.Warnf("batch assignment solver failed, falling back to greedy: %v", err)
		return planGreedy(deliveries, drivers, cost)
	}

	m := len(drivers)
	var out []Pair
	for i, d := range deliveries {
		for j, drv := range drivers {
			if sol[i*m+j] > 0.5 && cost[i][j] < unmatchedKm {
				out = append(out, Pair{DeliveryID: d.ID, DriverID: drv.ID, DistanceKm: cost[i][j]})
				break
			}
		}
	}
	return out
}

// planGreedy binds each delivery, in order, to its nearest still-free
// suitable driver.
func planGreedy(deliveries []model.Delivery, drivers []model.Driver, cost [][]float64) []Pair {
	taken := make([]bool, len(drivers))
	var out []Pair
	for i, d := range deliveries {
		best := -1
		for j := range drivers {
			if taken[j] || cost[i][j] >= unmatchedKm {
				continue
			}
			if best == -1 || cost[i][j] < cost[i][best] {
				best = j
			}
		}
		if best == -1 {
			continue
		}
		taken[best] = true
		out = append(out, Pair{DeliveryID: d.ID, DriverID: drivers[best].ID, DistanceKm: cost[i][best]})
	}
	return out
}
