package dispatch

import (
	"errors"
	"testing"

	"github.com/swiftdrop/dispatch/core/geo"
	"github.com/swiftdrop/dispatch/core/model"
)

// kmPerDeg approximates a degree of longitude at the equator, used to lay
// out test geometries with known pairwise distances.
const kmPerDeg = 111.19

func atKm(xKm, yKm float64) geo.Point {
	return geo.Point{Lat: yKm / kmPerDeg, Lon: xKm / kmPerDeg}
}

type noopLogger struct{}

func (noopLogger) Debugf(string, ...any)         {}
func (noopLogger) Debugw(string, map[string]any) {}
func (noopLogger) Infof(string, ...any)          {}
func (noopLogger) Warnf(string, ...any)          {}
func (noopLogger) Errorf(string, ...any)         {}

// crossPlan is a geometry where per-delivery nearest-first is suboptimal:
// driver X is the nearest for both deliveries, but giving it to delivery A
// strands delivery B with the far driver Y.
//
//	dist(A,X)=2  dist(A,Y)=3  dist(B,X)=1  dist(B,Y)=5
func crossPlan() ([]model.Delivery, []model.Driver) {
	deliveries := []model.Delivery{
		{ID: "A", OrderID: "o-a", Pickup: atKm(0, 0), Dropoff: atKm(0, 20), Type: model.TypeStandard},
		{ID: "B", OrderID: "o-b", Pickup: atKm(2, 0), Dropoff: atKm(2, 20), Type: model.TypeStandard},
	}
	drivers := []model.Driver{
		availableDriver("X", atKm(1.75, 0.968), model.VehicleCar),
		availableDriver("Y", atKm(-3, 0), model.VehicleCar),
	}
	return deliveries, drivers
}

func planByDelivery(pairs []Pair) map[string]string {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		out[p.DeliveryID] = p.DriverID
	}
	return out
}

func TestPlan_MinimisesTotalDistance(t *testing.T) {
	deliveries, drivers := crossPlan()
	pairs := NewBatchMatcher(noopLogger{}).Plan(deliveries, drivers, matchNow)
	got := planByDelivery(pairs)
	if len(got) != 2 {
		t.Fatalf("plan size = %d, want 2: %+v", len(got), pairs)
	}
	// A to Y and B to X totals 4 km, the greedy pairing totals 7.
	if got["A"] != "Y" || got["B"] != "X" {
		t.Fatalf("plan = %v, want A:Y B:X", got)
	}
}

func TestPlan_SolverFailureFallsBackToGreedy(t *testing.T) {
	orig := assignmentSolve
	assignmentSolve = func([][]float64) ([]float64, error) { return nil, errors.New("boom") }
	defer func() { assignmentSolve = orig }()

	deliveries, drivers := crossPlan()
	pairs := NewBatchMatcher(noopLogger{}).Plan(deliveries, drivers, matchNow)
	got := planByDelivery(pairs)
	if len(got) != 2 {
		t.Fatalf("plan size = %d, want 2: %+v", len(got), pairs)
	}
	// Greedy serves the queue in order, so A grabs the nearest driver.
	if got["A"] != "X" || got["B"] != "Y" {
		t.Fatalf("greedy plan = %v, want A:X B:Y", got)
	}
}

func TestPlan_UnsuitableDriversLeaveDeliveryUnmatched(t *testing.T) {
	deliveries := []model.Delivery{
		{ID: "A", OrderID: "o-a", Pickup: atKm(0, 0), Dropoff: atKm(0, 5), Type: model.TypeAlcohol},
		{ID: "B", OrderID: "o-b", Pickup: atKm(1, 0), Dropoff: atKm(1, 5), Type: model.TypeStandard},
	}
	drivers := []model.Driver{
		availableDriver("cyclist", atKm(0.1, 0), model.VehicleBicycle),
	}
	pairs := NewBatchMatcher(noopLogger{}).Plan(deliveries, drivers, matchNow)
	got := planByDelivery(pairs)
	if len(got) != 1 || got["B"] != "cyclist" {
		t.Fatalf("plan = %v, want only B:cyclist", got)
	}
}

func TestSolveAssignment_AllSuitableMatrix(t *testing.T) {
	sol, err := solveAssignment([][]float64{{2, 3}, {1, 5}})
	if err != nil {
		t.Fatalf("solve: %v", err)
	}
	// The 2+3+1+5 matrix has the optimum on the anti-diagonal: delivery 0
	// takes driver 1 and delivery 1 takes driver 0, for a total of 4.
	if sol[1] < 0.5 || sol[2] < 0.5 {
		t.Fatalf("solution = %v, want x[0][1] and x[1][0] set", sol)
	}
	if sol[0] > 0.5 || sol[3] > 0.5 {
		t.Fatalf("solution = %v, diagonal must stay unset", sol)
	}
}

func TestPlan_EmptyInputs(t *testing.T) {
	bm := NewBatchMatcher(noopLogger{})
	if pairs := bm.Plan(nil, nil, matchNow); pairs != nil {
		t.Fatalf("plan from nothing: %+v", pairs)
	}
}
