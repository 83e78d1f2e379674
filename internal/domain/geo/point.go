package geo

import (
	"errors"
	"math"
)

// Point is a WGS84 coordinate pair.
type Point struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

var (
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
)

// NewPoint validates the pair and returns it as a Point.
func NewPoint(latitude, longitude float64) (Point, error) {
	point := Point{Latitude: latitude, Longitude: longitude}
	if err := point.Validate(); err != nil {
		return Point{}, err
	}
	return point, nil
}

// IsZero reports whether the point is the zero value. Null Island is not a
// serviceable pickup or dropoff location here.
func (point Point) IsZero() bool {
	return point.Latitude == 0 && point.Longitude == 0
}

// Validate checks that both components are in range.
func (point Point) Validate() error {
	if point.Latitude < -90 || point.Latitude > 90 {
		return ErrInvalidLatitude
	}
	if point.Longitude < -180 || point.Longitude > 180 {
		return ErrInvalidLongitude
	}
	return nil
}

// HaversineKm returns the great-circle distance between two points in kilometers.
func HaversineKm(from, to Point) float64 {
	const earthRadiusKm = 6371.0
	a1 := from.Latitude * math.Pi / 180
	a2 := to.Latitude * math.Pi / 180
	da := (to.Latitude - from.Latitude) * math.Pi / 180
	db := (to.Longitude - from.Longitude) * math.Pi / 180

	h := math.Sin(da/2)*math.Sin(da/2) +
		math.Cos(a1)*math.Cos(a2)*math.Sin(db/2)*math.Sin(db/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
	return earthRadiusKm * c
}
