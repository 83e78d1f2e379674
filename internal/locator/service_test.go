package locator

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"ridepulse/internal/domain/geo"
	"ridepulse/internal/domain/profile"
	"ridepulse/internal/domain/trip"
	"ridepulse/internal/logger"
	"ridepulse/internal/ports"
)

// memIndex is a haversine-backed stand-in for the Redis index.
type memIndex struct {
	positions map[trip.VehicleClass]map[string]geo.Point
	offers    map[string][]string
}

func newMemIndex() *memIndex {
	return &memIndex{
		positions: map[trip.VehicleClass]map[string]geo.Point{},
		offers:    map[string][]string{},
	}
}

func (m *memIndex) UpsertDriver(_ context.Context, driverID string, class trip.VehicleClass, p geo.Point) error {
	if m.positions[class] == nil {
		m.positions[class] = map[string]geo.Point{}
	}
	m.positions[class][driverID] = p
	return nil
}

func (m *memIndex) RemoveDriver(_ context.Context, driverID string, class trip.VehicleClass) error {
	delete(m.positions[class], driverID)
	return nil
}

func (m *memIndex) SearchWithin(_ context.Context, origin geo.Point, radiusKm float64, class trip.VehicleClass, limit int) ([]ports.CandidateHit, error) {
	var hits []ports.CandidateHit
	for id, p := range m.positions[class] {
		if d := geo.HaversineKm(origin, p); d <= radiusKm {
			hits = append(hits, ports.CandidateHit{DriverID: id, DistanceKm: d})
		}
	}
	sort.Slice(hits, func(i, j int) bool { return hits[i].DistanceKm < hits[j].DistanceKm })
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (m *memIndex) RecordOffers(_ context.Context, tripID string, driverIDs []string, _ time.Duration) error {
	m.offers[tripID] = append(m.offers[tripID], driverIDs...)
	return nil
}

func (m *memIndex) OfferedDrivers(_ context.Context, tripID string) ([]string, error) {
	return m.offers[tripID], nil
}

type memDrivers struct {
	byID map[string]*profile.Driver
}

func (m *memDrivers) Create(_ context.Context, d *profile.Driver) error {
	m.byID[d.ID] = d
	return nil
}
func (m *memDrivers) GetByID(_ context.Context, id string) (*profile.Driver, error) {
	return m.byID[id], nil
}
func (m *memDrivers) SetAvailability(_ context.Context, id string, st profile.Availability) error {
	m.byID[id].Availability = st
	return nil
}
func (m *memDrivers) SavePosition(_ context.Context, id string, p geo.Point, at time.Time) error {
	m.byID[id].LastPosition = &p
	m.byID[id].LastSeenAt = &at
	return nil
}
func (m *memDrivers) AbsorbRating(_ context.Context, id string, stars int) (profile.RatingAggregate, error) {
	d := m.byID[id]
	d.Rating.Absorb(stars)
	return d.Rating, nil
}
func (m *memDrivers) IncrementTripsCompleted(_ context.Context, id string) error {
	m.byID[id].TotalTrips++
	return nil
}
func (m *memDrivers) CountByAvailability(_ context.Context, st profile.Availability) (int, error) {
	n := 0
	for _, d := range m.byID {
		if d.Availability == st {
			n++
		}
	}
	return n, nil
}

func newTestService(t *testing.T) (*Service, *memIndex, *memDrivers) {
	t.Helper()
	idx := newMemIndex()
	drivers := &memDrivers{byID: map[string]*profile.Driver{}}
	return NewService(idx, drivers, logger.New("test")), idx, drivers
}

var searchOrigin = geo.Point{Latitude: 43.238949, Longitude: 76.889709}

func TestFindCandidatesRadiusAndClass(t *testing.T) {
	svc, idx, _ := newTestService(t)
	ctx := context.Background()

	near := geo.Point{Latitude: 43.245, Longitude: 76.895}   // well inside 5km
	far := geo.Point{Latitude: 43.45, Longitude: 77.2}       // far outside
	_ = idx.UpsertDriver(ctx, "econ-near", trip.ClassEconomy, near)
	_ = idx.UpsertDriver(ctx, "econ-far", trip.ClassEconomy, far)
	_ = idx.UpsertDriver(ctx, "xl-near", trip.ClassXL, near)

	got, err := svc.FindCandidates(ctx, ports.FindCandidatesInput{
		Origin: searchOrigin, RadiusKm: 5, Class: trip.ClassEconomy,
	})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 1 || got[0].DriverID != "econ-near" {
		t.Fatalf("candidates: %+v", got)
	}
}

func TestFindCandidatesBoundaryInclusive(t *testing.T) {
	svc, idx, _ := newTestService(t)
	ctx := context.Background()

	onEdge := geo.Point{Latitude: 43.27, Longitude: 76.91}
	exact := geo.HaversineKm(searchOrigin, onEdge)
	_ = idx.UpsertDriver(ctx, "edge", trip.ClassEconomy, onEdge)

	got, err := svc.FindCandidates(ctx, ports.FindCandidatesInput{
		Origin: searchOrigin, RadiusKm: exact, Class: trip.ClassEconomy,
	})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("driver exactly on the radius must match, got %+v", got)
	}

	got, err = svc.FindCandidates(ctx, ports.FindCandidatesInput{
		Origin: searchOrigin, RadiusKm: exact * 0.999, Class: trip.ClassEconomy,
	})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("driver beyond the radius must not match, got %+v", got)
	}
}

func TestFindCandidatesEmptyIsNotAnError(t *testing.T) {
	svc, _, _ := newTestService(t)
	got, err := svc.FindCandidates(context.Background(), ports.FindCandidatesInput{
		Origin: searchOrigin, RadiusKm: 5, Class: trip.ClassPremium,
	})
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty set, got %+v", got)
	}
}

func TestFindCandidatesInputValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   ports.FindCandidatesInput
	}{
		{"bad origin", ports.FindCandidatesInput{Origin: geo.Point{Latitude: 99}, RadiusKm: 5, Class: trip.ClassEconomy}},
		{"zero radius", ports.FindCandidatesInput{Origin: searchOrigin, RadiusKm: 0, Class: trip.ClassEconomy}},
		{"negative radius", ports.FindCandidatesInput{Origin: searchOrigin, RadiusKm: -2, Class: trip.ClassEconomy}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.FindCandidates(ctx, tt.in); !errors.Is(err, trip.ErrInput) {
				t.Fatalf("got %v, want ErrInput", err)
			}
		})
	}

	if _, err := svc.FindCandidates(ctx, ports.FindCandidatesInput{Origin: searchOrigin, RadiusKm: 5, Class: "BIKE"}); !errors.Is(err, trip.ErrInvalidVehicleClass) {
		t.Fatalf("got %v, want ErrInvalidVehicleClass", err)
	}
}

func TestAvailabilityDrivesIndexMembership(t *testing.T) {
	svc, idx, drivers := newTestService(t)
	ctx := context.Background()

	d, _ := profile.NewDriver("driver-1", "Aset", trip.ClassEconomy)
	_ = drivers.Create(ctx, d)

	pos := geo.Point{Latitude: 43.24, Longitude: 76.89}
	if err := svc.UpsertPosition(ctx, "driver-1", pos); err != nil {
		t.Fatalf("position while offline: %v", err)
	}
	if len(idx.positions[trip.ClassEconomy]) != 0 {
		t.Fatal("offline driver must not be searchable")
	}

	if err := svc.SetAvailability(ctx, "driver-1", true); err != nil {
		t.Fatalf("go available: %v", err)
	}
	if _, ok := idx.positions[trip.ClassEconomy]["driver-1"]; !ok {
		t.Fatal("available driver with a known position must be indexed")
	}

	if err := svc.SetAvailability(ctx, "driver-1", false); err != nil {
		t.Fatalf("go offline: %v", err)
	}
	if _, ok := idx.positions[trip.ClassEconomy]["driver-1"]; ok {
		t.Fatal("offline driver must leave the index")
	}
}

func TestUpsertPositionUnknownDriver(t *testing.T) {
	svc, _, _ := newTestService(t)
	err := svc.UpsertPosition(context.Background(), "ghost", geo.Point{Latitude: 1, Longitude: 1})
	if !errors.Is(err, trip.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}
