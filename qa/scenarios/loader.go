package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/swiftdrop/dispatch/core/geo"
	"github.com/swiftdrop/dispatch/core/model"
)

type DriverDef struct {
	ID      string  `yaml:"id"`
	Lat     float64 `yaml:"lat"`
	Lon     float64 `yaml:"lon"`
	Vehicle string  `yaml:"vehicle"`
	Rating  float64 `yaml:"rating,omitempty"`
}

func (d DriverDef) ToModel() model.Driver {
	vt, err := model.ParseVehicleType(d.Vehicle)
	if err != nil {
		vt = model.VehicleCar
	}
	return model.Driver{
		ID:                    d.ID,
		Availability:          model.StatusAvailable,
		LicenseValid:          true,
		BackgroundCheckPassed: true,
		Location:              &geo.Point{Lat: d.Lat, Lon: d.Lon},
		Vehicle:               model.Vehicle{Type: vt, Status: model.VehicleActive},
		AverageRating:         d.Rating,
	}
}

type DeliveryDef struct {
	ID         string  `yaml:"id"`
	Type       string  `yaml:"type"`
	PickupLat  float64 `yaml:"pickup_lat"`
	PickupLon  float64 `yaml:"pickup_lon"`
	DropoffLat float64 `yaml:"dropoff_lat"`
	DropoffLon float64 `yaml:"dropoff_lon"`
	WeightKg   float64 `yaml:"weight_kg,omitempty"`
	VolumeL    float64 `yaml:"volume_l,omitempty"`
}

func (d DeliveryDef) ToModel() model.Delivery {
	dt, err := model.ParseDeliveryType(d.Type)
	if err != nil {
		dt = model.TypeStandard
	}
	return model.Delivery{
		ID:       d.ID,
		OrderID:  "order-" + d.ID,
		Type:     dt,
		Pickup:   geo.Point{Lat: d.PickupLat, Lon: d.PickupLon},
		Dropoff:  geo.Point{Lat: d.DropoffLat, Lon: d.DropoffLon},
		WeightKg: d.WeightKg,
		VolumeL:  d.VolumeL,
	}
}

type Expected struct {
	Bound       int               `yaml:"bound"`
	Assignments map[string]string `yaml:"assignments,omitempty"`
}

type Scenario struct {
	Name        string        `yaml:"name"`
	Description string        `yaml:"description,omitempty"`
	Drivers     []DriverDef   `yaml:"drivers"`
	Deliveries  []DeliveryDef `yaml:"deliveries"`
	Decline     []string      `yaml:"decline,omitempty"`
	FailDrivers []string      `yaml:"fail_drivers,omitempty"`
	Expected    Expected      `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
