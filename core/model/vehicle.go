package model

import "time"

// VehicleType enumerates the supported transport modes.
type VehicleType int

const (
	VehicleBicycle VehicleType = iota
	VehicleMotorcycle
	VehicleScooter
	VehicleCar
	VehicleVan
	VehicleTruck
	VehicleWalking
)

// String returns a human-readable representation of the vehicle type.
func (t VehicleType) String() string {
	switch t {
	case VehicleBicycle:
		return "BICYCLE"
	case VehicleMotorcycle:
		return "MOTORCYCLE"
	case VehicleScooter:
		return "SCOOTER"
	case VehicleCar:
		return "CAR"
	case VehicleVan:
		return "VAN"
	case VehicleTruck:
		return "TRUCK"
	case VehicleWalking:
		return "WALKING"
	default:
		return "unknown"
	}
}

// ParseVehicleType converts the wire representation to a VehicleType.
func ParseVehicleType(s string) (VehicleType, error) {
	switch s {
	case "BICYCLE":
		return VehicleBicycle, nil
	case "MOTORCYCLE":
		return VehicleMotorcycle, nil
	case "SCOOTER":
		return VehicleScooter, nil
	case "CAR":
		return VehicleCar, nil
	case "VAN":
		return VehicleVan, nil
	case "TRUCK":
		return VehicleTruck, nil
	case "WALKING":
		return VehicleWalking, nil
	default:
		return 0, &UnknownEnumError{Kind: "vehicle type", Value: s}
	}
}

// VehicleStatus describes the operational state of a vehicle.
type VehicleStatus int

const (
	VehicleActive VehicleStatus = iota
	VehicleUnderMaintenance
	VehicleSuspended
	VehicleRetired
)

// Vehicle is owned by exactly one driver.
type Vehicle struct {
	ID       string
	DriverID string
	Type     VehicleType
	Status   VehicleStatus

	// Zero capacity means unknown and does not block suitability checks.
	CapacityKg float64
	CapacityL  float64

	InsuranceExpiry    time.Time
	RegistrationExpiry time.Time
	InspectionExpiry   time.Time
	MaintenanceDue     time.Time
}

// ComplianceExpired reports whether any compliance date has passed.
// Zero dates are treated as not tracked.
func (v Vehicle) ComplianceExpired(now time.Time) bool {
	for _, t := range []time.Time{v.InsuranceExpiry, v.RegistrationExpiry, v.InspectionExpiry} {
		if !t.IsZero() && t.Before(now) {
			return true
		}
	}
	return false
}

// IsUsable reports whether the vehicle may be used for deliveries right now.
func (v Vehicle) IsUsable(now time.Time) bool {
	if v.Status != VehicleActive {
		return false
	}
	if v.ComplianceExpired(now) {
		return false
	}
	if !v.MaintenanceDue.IsZero() && v.MaintenanceDue.Before(now) {
		return false
	}
	return true
}

// CanCarry reports whether the declared load fits the vehicle capacity.
func (v Vehicle) CanCarry(weightKg, volumeL float64) bool {
	if v.CapacityKg > 0 && weightKg > v.CapacityKg {
		return false
	}
	if v.CapacityL > 0 && volumeL > v.CapacityL {
		return false
	}
	return true
}
