package model

import (
	"errors"
	"testing"
	"time"
)

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func activeVehicle(t VehicleType) Vehicle {
	return Vehicle{
		ID:                 "veh-1",
		Type:               t,
		Status:             VehicleActive,
		InsuranceExpiry:    testNow.AddDate(1, 0, 0),
		RegistrationExpiry: testNow.AddDate(1, 0, 0),
		InspectionExpiry:   testNow.AddDate(0, 6, 0),
	}
}

func TestSuitableFor_CategoricalRules(t *testing.T) {
	cases := []struct {
		name string
		vt   VehicleType
		dt   DeliveryType
		want bool
	}{
		{"alcohol on bicycle", VehicleBicycle, TypeAlcohol, false},
		{"alcohol on foot", VehicleWalking, TypeAlcohol, false},
		{"alcohol by car", VehicleCar, TypeAlcohol, true},
		{"pharmacy on bicycle", VehicleBicycle, TypePharmacy, false},
		{"pharmacy by motorcycle", VehicleMotorcycle, TypePharmacy, true},
		{"large order on scooter", VehicleScooter, TypeLargeOrder, false},
		{"large order by van", VehicleVan, TypeLargeOrder, true},
		{"large order by truck", VehicleTruck, TypeLargeOrder, true},
		{"express by car", VehicleCar, TypeExpress, false},
		{"express by scooter", VehicleScooter, TypeExpress, true},
		{"express on bicycle", VehicleBicycle, TypeExpress, true},
		{"standard on foot", VehicleWalking, TypeStandard, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SuitableFor(activeVehicle(tc.vt), tc.dt, 1, 1, testNow)
			if got != tc.want {
				t.Fatalf("SuitableFor = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSuitableFor_Capacity(t *testing.T) {
	v := activeVehicle(VehicleCar)
	v.CapacityKg = 50
	v.CapacityL = 200
	if SuitableFor(v, TypeStandard, 51, 10, testNow) {
		t.Fatal("overweight load accepted")
	}
	if SuitableFor(v, TypeStandard, 10, 201, testNow) {
		t.Fatal("oversized load accepted")
	}
	if !SuitableFor(v, TypeStandard, 50, 200, testNow) {
		t.Fatal("load at capacity rejected")
	}
	// Unknown capacity does not block.
	v.CapacityKg = 0
	v.CapacityL = 0
	if !SuitableFor(v, TypeStandard, 500, 5000, testNow) {
		t.Fatal("unknown capacity should not block")
	}
}

func TestSuitableFor_Usability(t *testing.T) {
	v := activeVehicle(VehicleCar)
	v.InsuranceExpiry = testNow.AddDate(0, 0, -1)
	if SuitableFor(v, TypeStandard, 1, 1, testNow) {
		t.Fatal("expired insurance accepted")
	}

	v = activeVehicle(VehicleCar)
	v.Status = VehicleUnderMaintenance
	if SuitableFor(v, TypeStandard, 1, 1, testNow) {
		t.Fatal("vehicle under maintenance accepted")
	}

	v = activeVehicle(VehicleCar)
	v.MaintenanceDue = testNow.Add(-time.Hour)
	if SuitableFor(v, TypeStandard, 1, 1, testNow) {
		t.Fatal("overdue maintenance accepted")
	}

	v = activeVehicle(VehicleCar)
	v.Status = VehicleSuspended
	if SuitableFor(v, TypeStandard, 1, 1, testNow) {
		t.Fatal("suspended vehicle accepted")
	}
}

func TestParseDeliveryType(t *testing.T) {
	_, err := ParseDeliveryType("SAME_DAY")
	var enumErr *UnknownEnumError
	if !errors.As(err, &enumErr) || enumErr.Value != "SAME_DAY" {
		t.Fatalf("expected UnknownEnumError for unknown type, got %v", err)
	}
	dt, err := ParseDeliveryType("ALCOHOL")
	if err != nil || dt != TypeAlcohol {
		t.Fatalf("got %v, %v", dt, err)
	}
}

func TestParseVehicleType(t *testing.T) {
	_, err := ParseVehicleType("HOVERBOARD")
	var enumErr *UnknownEnumError
	if !errors.As(err, &enumErr) || enumErr.Kind != "vehicle type" {
		t.Fatalf("expected UnknownEnumError for unknown type, got %v", err)
	}
	vt, err := ParseVehicleType("SCOOTER")
	if err != nil || vt != VehicleScooter {
		t.Fatalf("got %v, %v", vt, err)
	}
}
