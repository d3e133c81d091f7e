package model

import "time"

// expressTypes is the set of vehicle types an express delivery is restricted
// to. Kept as data so the rule is testable in isolation.
var expressTypes = map[VehicleType]bool{
	VehicleMotorcycle: true,
	VehicleScooter:    true,
	VehicleBicycle:    true,
}

// largeOrderTypes is the set of vehicle types a large order requires.
var largeOrderTypes = map[VehicleType]bool{
	VehicleCar:   true,
	VehicleVan:   true,
	VehicleTruck: true,
}

// SuitableFor reports whether the vehicle can legally and physically fulfil a
// delivery of the given type and declared load. The check is deterministic
// and performs no I/O.
func SuitableFor(v Vehicle, dt DeliveryType, weightKg, volumeL float64, now time.Time) bool {
	if !v.IsUsable(now) {
		return false
	}
	if !v.CanCarry(weightKg, volumeL) {
		return false
	}
	switch dt {
	case TypeAlcohol, TypePharmacy:
		// Regulated goods: no bicycle or walking couriers.
		if v.Type == VehicleBicycle || v.Type == VehicleWalking {
			return false
		}
	case TypeLargeOrder:
		if !largeOrderTypes[v.Type] {
			return false
		}
	case TypeExpress:
		if !expressTypes[v.Type] {
			return false
		}
	}
	return true
}
