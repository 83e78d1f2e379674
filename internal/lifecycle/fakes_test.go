package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ridepulse/internal/domain/geo"
	"ridepulse/internal/domain/profile"
	"ridepulse/internal/domain/trip"
	"ridepulse/internal/ports"
)

// fakeTrips is an in-memory TripRepository. The conditional updates hold
// one mutex across check and mutate, mirroring the atomicity the SQL
// statements provide.
type fakeTrips struct {
	mu    sync.Mutex
	seq   int
	trips map[string]*trip.Trip
}

func newFakeTrips() *fakeTrips {
	return &fakeTrips{trips: make(map[string]*trip.Trip)}
}

func (f *fakeTrips) Create(_ context.Context, t *trip.Trip) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	t.ID = fmt.Sprintf("trip-%d", f.seq)
	cp := *t
	f.trips[t.ID] = &cp
	return nil
}

func (f *fakeTrips) GetByID(_ context.Context, id string) (*trip.Trip, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTrips) AcceptIfPending(_ context.Context, tripID, driverID string, acceptedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[tripID]
	if !ok || t.Status != trip.StatusPending || t.DriverID != nil {
		return false, nil
	}
	t.Status = trip.StatusAccepted
	t.DriverID = &driverID
	t.AcceptedAt = &acceptedAt
	return true, nil
}

func (f *fakeTrips) StartIfCodeMatches(_ context.Context, tripID, driverID, code string, startedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[tripID]
	if !ok || t.Status != trip.StatusAccepted || t.DriverID == nil || *t.DriverID != driverID || t.VerificationCode != code {
		return false, nil
	}
	t.Status = trip.StatusOngoing
	t.StartedAt = &startedAt
	return true, nil
}

func (f *fakeTrips) CompleteIfOngoing(_ context.Context, tripID, driverID string, completedAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[tripID]
	if !ok || t.Status != trip.StatusOngoing || t.DriverID == nil || *t.DriverID != driverID {
		return false, nil
	}
	t.Status = trip.StatusCompleted
	t.CompletedAt = &completedAt
	return true, nil
}

func (f *fakeTrips) CancelIfOpen(_ context.Context, tripID, riderID, reason string, cancelledAt time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[tripID]
	if !ok || t.RiderID != riderID {
		return false, nil
	}
	if t.Status != trip.StatusPending && t.Status != trip.StatusAccepted {
		return false, nil
	}
	t.Status = trip.StatusCancelled
	t.CancelledAt = &cancelledAt
	if reason != "" {
		t.CancellationReason = &reason
	}
	return true, nil
}

func (f *fakeTrips) RecordRatingOnce(_ context.Context, tripID string, side trip.Side, rating *trip.Rating) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.trips[tripID]
	if !ok || t.Status != trip.StatusCompleted {
		return false, nil
	}
	if side == trip.SideRider {
		if t.ByRider != nil {
			return false, nil
		}
		t.ByRider = rating
	} else {
		if t.ByDriver != nil {
			return false, nil
		}
		t.ByDriver = rating
	}
	return true, nil
}

func (f *fakeTrips) CountByStatus(_ context.Context) (map[trip.Status]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[trip.Status]int)
	for _, t := range f.trips {
		out[t.Status]++
	}
	return out, nil
}

func (f *fakeTrips) ActiveRows(_ context.Context, offset, limit int) ([]ports.ActiveTripRow, error) {
	return nil, nil
}

// fakeEvents is an in-memory TripEventRepository.
type fakeEvents struct {
	mu     sync.Mutex
	events []*trip.Event
}

func (f *fakeEvents) Append(_ context.Context, e *trip.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, e)
	return nil
}

func (f *fakeEvents) ListForTrip(_ context.Context, tripID string, _ int) ([]*trip.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*trip.Event
	for _, e := range f.events {
		if e.TripID == tripID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) Recent(_ context.Context, limit int) ([]*trip.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.events) {
		limit = len(f.events)
	}
	return f.events[len(f.events)-limit:], nil
}

func (f *fakeEvents) types(tripID string) []trip.EventType {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []trip.EventType
	for _, e := range f.events {
		if e.TripID == tripID {
			out = append(out, e.Type)
		}
	}
	return out
}

// fakeMessages is an in-memory MessageRepository.
type fakeMessages struct {
	mu   sync.Mutex
	seq  int
	msgs []*trip.Message
}

func (f *fakeMessages) Append(_ context.Context, m *trip.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	m.ID = fmt.Sprintf("msg-%d", f.seq)
	f.msgs = append(f.msgs, m)
	return nil
}

func (f *fakeMessages) ListForTrip(_ context.Context, tripID string, _ int) ([]*trip.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*trip.Message
	for _, m := range f.msgs {
		if m.TripID == tripID {
			out = append(out, m)
		}
	}
	return out, nil
}

// fakeDrivers is an in-memory DriverRepository.
type fakeDrivers struct {
	mu      sync.Mutex
	drivers map[string]*profile.Driver
}

func newFakeDrivers() *fakeDrivers {
	return &fakeDrivers{drivers: make(map[string]*profile.Driver)}
}

func (f *fakeDrivers) add(d *profile.Driver) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drivers[d.ID] = d
}

func (f *fakeDrivers) Create(_ context.Context, d *profile.Driver) error {
	f.add(d)
	return nil
}

func (f *fakeDrivers) GetByID(_ context.Context, driverID string) (*profile.Driver, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drivers[driverID]
	if !ok {
		return nil, nil
	}
	cp := *d
	return &cp, nil
}

func (f *fakeDrivers) SetAvailability(_ context.Context, driverID string, status profile.Availability) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drivers[driverID]
	if !ok {
		return trip.ErrNotFound
	}
	d.Availability = status
	return nil
}

func (f *fakeDrivers) SavePosition(_ context.Context, driverID string, position geo.Point, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drivers[driverID]
	if !ok {
		return trip.ErrNotFound
	}
	d.LastPosition = &position
	d.LastSeenAt = &at
	return nil
}

func (f *fakeDrivers) AbsorbRating(_ context.Context, driverID string, stars int) (profile.RatingAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drivers[driverID]
	if !ok {
		return profile.RatingAggregate{}, trip.ErrNotFound
	}
	d.Rating.Absorb(stars)
	return d.Rating, nil
}

func (f *fakeDrivers) IncrementTripsCompleted(_ context.Context, driverID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.drivers[driverID]
	if !ok {
		return trip.ErrNotFound
	}
	d.TotalTrips++
	return nil
}

func (f *fakeDrivers) CountByAvailability(_ context.Context, status profile.Availability) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, d := range f.drivers {
		if d.Availability == status {
			n++
		}
	}
	return n, nil
}

func (f *fakeDrivers) availability(driverID string) profile.Availability {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.drivers[driverID].Availability
}

// fakeRiders is an in-memory RiderRepository.
type fakeRiders struct {
	mu     sync.Mutex
	riders map[string]*profile.Rider
}

func newFakeRiders() *fakeRiders {
	return &fakeRiders{riders: make(map[string]*profile.Rider)}
}

func (f *fakeRiders) Create(_ context.Context, r *profile.Rider) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.riders[r.ID] = r
	return nil
}

func (f *fakeRiders) GetByID(_ context.Context, riderID string) (*profile.Rider, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.riders[riderID]
	if !ok {
		return nil, nil
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRiders) AbsorbRating(_ context.Context, riderID string, stars int) (profile.RatingAggregate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.riders[riderID]
	if !ok {
		return profile.RatingAggregate{}, trip.ErrNotFound
	}
	r.Rating.Absorb(stars)
	return r.Rating, nil
}

// fakeIndex is an in-memory GeoIndex using haversine distance.
type fakeIndex struct {
	mu        sync.Mutex
	positions map[string]geo.Point
	classes   map[string]trip.VehicleClass
	offers    map[string][]string
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		positions: make(map[string]geo.Point),
		classes:   make(map[string]trip.VehicleClass),
		offers:    make(map[string][]string),
	}
}

func (f *fakeIndex) UpsertDriver(_ context.Context, driverID string, class trip.VehicleClass, position geo.Point) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.positions[driverID] = position
	f.classes[driverID] = class
	return nil
}

func (f *fakeIndex) RemoveDriver(_ context.Context, driverID string, _ trip.VehicleClass) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.positions, driverID)
	delete(f.classes, driverID)
	return nil
}

func (f *fakeIndex) SearchWithin(_ context.Context, origin geo.Point, radiusKm float64, class trip.VehicleClass, limit int) ([]ports.CandidateHit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var hits []ports.CandidateHit
	for id, pos := range f.positions {
		if f.classes[id] != class {
			continue
		}
		if d := geo.HaversineKm(origin, pos); d <= radiusKm {
			hits = append(hits, ports.CandidateHit{DriverID: id, DistanceKm: d})
		}
	}
	for i := 0; i < len(hits); i++ {
		for j := i + 1; j < len(hits); j++ {
			if hits[j].DistanceKm < hits[i].DistanceKm {
				hits[i], hits[j] = hits[j], hits[i]
			}
		}
	}
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

func (f *fakeIndex) RecordOffers(_ context.Context, tripID string, driverIDs []string, _ time.Duration) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.offers[tripID] = append([]string(nil), driverIDs...)
	return nil
}

func (f *fakeIndex) OfferedDrivers(_ context.Context, tripID string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.offers[tripID], nil
}

// sentFrame is one recorded notification.
type sentFrame struct {
	PartyID string
	Event   string
	Data    any
}

// fakeNotifier records pushes; only parties in connected receive them.
type fakeNotifier struct {
	mu        sync.Mutex
	connected map[string]bool
	frames    []sentFrame
}

func newFakeNotifier(connected ...string) *fakeNotifier {
	f := &fakeNotifier{connected: make(map[string]bool)}
	for _, id := range connected {
		f.connected[id] = true
	}
	return f
}

func (f *fakeNotifier) Notify(partyID, event string, data any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.connected[partyID] {
		return false
	}
	f.frames = append(f.frames, sentFrame{PartyID: partyID, Event: event, Data: data})
	return true
}

func (f *fakeNotifier) Broadcast(partyIDs []string, event string, data any) int {
	n := 0
	for _, id := range partyIDs {
		if f.Notify(id, event, data) {
			n++
		}
	}
	return n
}

func (f *fakeNotifier) IsConnected(partyID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected[partyID]
}

func (f *fakeNotifier) framesFor(partyID string) []sentFrame {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []sentFrame
	for _, fr := range f.frames {
		if fr.PartyID == partyID {
			out = append(out, fr)
		}
	}
	return out
}

// fakeRouting returns a fixed route or a fixed error.
type fakeRouting struct {
	route ports.Route
	err   error
	calls int
}

func (f *fakeRouting) ResolveRoute(_ context.Context, _, _ geo.Point) (ports.Route, error) {
	f.calls++
	if f.err != nil {
		return ports.Route{}, f.err
	}
	return f.route, nil
}

// fakeGeocoder resolves every address to a fixed point.
type fakeGeocoder struct {
	point geo.Point
	err   error
}

func (f *fakeGeocoder) ResolveCoordinates(_ context.Context, _ string) (geo.Point, error) {
	if f.err != nil {
		return geo.Point{}, f.err
	}
	return f.point, nil
}

// fakePub records published broker messages.
type fakePub struct {
	mu        sync.Mutex
	published []string // routing keys in order
}

func (f *fakePub) Publish(_ context.Context, routingKey string, _ any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, routingKey)
	return nil
}

func (f *fakePub) keys() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.published...)
}
