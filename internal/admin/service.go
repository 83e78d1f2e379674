package admin

import (
	"context"
	"strconv"
	"time"

	"ridepulse/internal/domain/profile"
	"ridepulse/internal/logger"
	"ridepulse/internal/ports"
)

const recentEventsLimit = 20

// Service collects monitoring views over the trip and driver stores.
type Service struct {
	logger   *logger.Logger
	trips    ports.TripRepository
	drivers  ports.DriverRepository
	events   ports.TripEventRepository
	notifier ports.Notifier
}

var _ ports.AdminService = (*Service)(nil)

func NewService(log *logger.Logger, trips ports.TripRepository, drivers ports.DriverRepository, events ports.TripEventRepository, notifier ports.Notifier) *Service {
	return &Service{
		logger:   log,
		trips:    trips,
		drivers:  drivers,
		events:   events,
		notifier: notifier,
	}
}

// Overview collects a snapshot of the current system state.
func (service *Service) Overview(ctx context.Context) (ports.OverviewResult, error) {
	res := ports.OverviewResult{
		Timestamp:     time.Now().UTC(),
		TripsByStatus: make(map[string]int),
	}

	counts, err := service.trips.CountByStatus(ctx)
	if err != nil {
		return ports.OverviewResult{}, err
	}
	for status, n := range counts {
		res.TripsByStatus[status.String()] = n
	}

	if res.AvailableDrivers, err = service.drivers.CountByAvailability(ctx, profile.AvailabilityAvailable); err != nil {
		return ports.OverviewResult{}, err
	}
	if res.BusyDrivers, err = service.drivers.CountByAvailability(ctx, profile.AvailabilityBusy); err != nil {
		return ports.OverviewResult{}, err
	}

	if counter, ok := service.notifier.(interface{ Connected() int }); ok {
		res.ConnectedParties = counter.Connected()
	}

	recent, err := service.events.Recent(ctx, recentEventsLimit)
	if err != nil {
		return ports.OverviewResult{}, err
	}
	res.RecentEvents = make([]ports.EventView, 0, len(recent))
	for _, e := range recent {
		res.RecentEvents = append(res.RecentEvents, ports.EventView{
			TripID:    e.TripID,
			Type:      e.Type.String(),
			Data:      e.Data,
			CreatedAt: e.CreatedAt,
		})
	}

	return res, nil
}

// ActiveTrips returns a page of non-terminal trips.
func (service *Service) ActiveTrips(ctx context.Context, page, pageSize string) (ports.ActiveTripsResult, error) {
	pageInt, err := strconv.Atoi(page)
	if err != nil || pageInt < 1 {
		pageInt = 1
	}
	sizeInt, err := strconv.Atoi(pageSize)
	if err != nil || sizeInt < 1 {
		sizeInt = 10
	}

	res := ports.ActiveTripsResult{Page: pageInt, PageSize: sizeInt}

	counts, err := service.trips.CountByStatus(ctx)
	if err != nil {
		return ports.ActiveTripsResult{}, err
	}
	for status, n := range counts {
		if !status.Terminal() {
			res.TotalCount += n
		}
	}

	offset := (pageInt - 1) * sizeInt
	rows, err := service.trips.ActiveRows(ctx, offset, sizeInt)
	if err != nil {
		return ports.ActiveTripsResult{}, err
	}
	res.Trips = rows
	if res.Trips == nil {
		res.Trips = []ports.ActiveTripRow{}
	}

	return res, nil
}
