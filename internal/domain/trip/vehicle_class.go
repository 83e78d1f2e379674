package trip

import (
	"errors"
	"strings"
)

// VehicleClass is a vehicle class as stored in the `trips` and `drivers` tables.
type VehicleClass string

const (
	ClassEconomy VehicleClass = "ECONOMY"
	ClassPremium VehicleClass = "PREMIUM"
	ClassXL      VehicleClass = "XL"
)

var ErrInvalidVehicleClass = errors.New("invalid vehicle class")

// AllClasses lists every supported vehicle class, in fare-table order.
func AllClasses() []VehicleClass {
	return []VehicleClass{ClassEconomy, ClassPremium, ClassXL}
}

// ParseVehicleClass normalizes (uppercases+trims) and validates a vehicle class string.
func ParseVehicleClass(in string) (VehicleClass, error) {
	class := VehicleClass(strings.ToUpper(strings.TrimSpace(in)))
	if class.Valid() {
		return class, nil
	}
	return "", ErrInvalidVehicleClass
}

// Valid reports whether class is one of the allowed vehicle class constants.
func (class VehicleClass) Valid() bool {
	switch class {
	case ClassEconomy, ClassPremium, ClassXL:
		return true
	default:
		return false
	}
}

// String returns the string representation of the VehicleClass.
func (class VehicleClass) String() string {
	return string(class)
}
