// Package fare turns resolved routes into fare quotes. Rates are fixed at
// build time; the same route always prices to the same whole-unit fare.
package fare

import (
	"context"
	"fmt"
	"math"

	"ridepulse/internal/domain/trip"
	"ridepulse/internal/logger"
	"ridepulse/internal/ports"
)

type rates struct {
	base      float64
	perKM     float64
	perMinute float64
}

// rate table per vehicle class
var rateTable = map[trip.VehicleClass]rates{
	trip.ClassEconomy: {base: 500, perKM: 100, perMinute: 50},
	trip.ClassPremium: {base: 800, perKM: 120, perMinute: 60},
	trip.ClassXL:      {base: 1000, perKM: 150, perMinute: 75},
}

// Compute returns base + (distance_km * rate_per_km) + (duration_min * rate_per_min),
// rounded to the nearest whole currency unit. Minutes are fractional: a
// 930-second route prices as 15.5 minutes, not 16.
func Compute(class trip.VehicleClass, distanceKm, durationMin float64) float64 {
	rate, ok := rateTable[class]
	if !ok {
		rate = rateTable[trip.ClassEconomy]
	}

	if distanceKm < 0 {
		distanceKm = 0
	}
	if durationMin < 0 {
		durationMin = 0
	}

	return math.Round(rate.base + rate.perKM*distanceKm + rate.perMinute*durationMin)
}

// Minutes converts a route duration to the fractional minutes the rate
// table prices against.
func Minutes(durationSeconds float64) float64 {
	return durationSeconds / 60.0
}

// DurationMinutes converts a route duration to whole display minutes, at
// least 1. Display only; pricing uses Minutes.
func DurationMinutes(durationSeconds float64) int {
	m := int(math.Ceil(durationSeconds / 60.0))
	if m < 1 {
		return 1
	}
	return m
}

// Estimator resolves the route once and prices every vehicle class from it.
type Estimator struct {
	routing ports.RoutingClient
	log     *logger.Logger
}

var _ ports.FareService = (*Estimator)(nil)

func NewEstimator(routing ports.RoutingClient, log *logger.Logger) *Estimator {
	return &Estimator{routing: routing, log: log}
}

// Estimate implements ports.FareService. A routing failure surfaces as-is;
// no fare is invented without a route.
func (e *Estimator) Estimate(ctx context.Context, in ports.EstimateInput) (ports.EstimateResult, error) {
	if err := in.Origin.Validate(); err != nil {
		return ports.EstimateResult{}, fmt.Errorf("%w: origin: %v", trip.ErrInput, err)
	}
	if err := in.Destination.Validate(); err != nil {
		return ports.EstimateResult{}, fmt.Errorf("%w: destination: %v", trip.ErrInput, err)
	}
	if in.Origin == in.Destination {
		return ports.EstimateResult{}, trip.ErrSamePoints
	}

	route, err := e.routing.ResolveRoute(ctx, in.Origin, in.Destination)
	if err != nil {
		e.log.Error(ctx, "route_resolve_failed", "routing provider refused the route", err, nil)
		return ports.EstimateResult{}, err
	}

	distanceKm := route.DistanceMeters / 1000.0
	minutes := Minutes(route.DurationSeconds)

	result := ports.EstimateResult{
		DistanceKm:      distanceKm,
		DurationMinutes: DurationMinutes(route.DurationSeconds),
	}
	for _, class := range trip.AllClasses() {
		result.Fares = append(result.Fares, ports.ClassFare{
			Class: class.String(),
			Fare:  Compute(class, distanceKm, minutes),
		})
	}

	e.log.Debug(ctx, "fare_estimated", "priced route for all classes", result)
	return result, nil
}
