package profile

import (
	"errors"
	"strings"
)

// Availability is a driver availability state as stored in the `drivers` table.
type Availability string

const (
	AvailabilityOffline   Availability = "OFFLINE"
	AvailabilityAvailable Availability = "AVAILABLE"
	AvailabilityBusy      Availability = "BUSY"
)

var ErrInvalidAvailability = errors.New("invalid driver availability")

// ParseAvailability normalizes (uppercases+trims) and validates an availability string.
func ParseAvailability(in string) (Availability, error) {
	status := Availability(strings.ToUpper(strings.TrimSpace(in)))
	if status.Valid() {
		return status, nil
	}
	return "", ErrInvalidAvailability
}

// Valid reports whether the availability is one of the allowed constants.
func (status Availability) Valid() bool {
	switch status {
	case AvailabilityOffline, AvailabilityAvailable, AvailabilityBusy:
		return true
	default:
		return false
	}
}

// String returns the string representation of the Availability.
func (status Availability) String() string {
	return string(status)
}
