// Package locator answers "which available drivers of this class are within
// this radius". The index lives in Redis GEO, one sorted set per vehicle
// class, plus a per-trip set of offered drivers.
package locator

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"ridepulse/internal/domain/geo"
	"ridepulse/internal/domain/trip"
	"ridepulse/internal/ports"
)

const (
	classGeoKeyPrefix = "locator:drivers:" // + vehicle class
	offersKeyPrefix   = "locator:trip:%s:offered"
	offersTTL         = 24 * time.Hour
)

// RedisIndex implements ports.GeoIndex on Redis GEO commands.
type RedisIndex struct {
	client *redis.Client
}

var _ ports.GeoIndex = (*RedisIndex)(nil)

func NewRedisIndex(client *redis.Client) *RedisIndex {
	return &RedisIndex{client: client}
}

func classKey(class trip.VehicleClass) string {
	return classGeoKeyPrefix + class.String()
}

func offersKey(tripID string) string {
	return fmt.Sprintf(offersKeyPrefix, tripID)
}

// UpsertDriver adds or moves a driver in the class index.
func (idx *RedisIndex) UpsertDriver(ctx context.Context, driverID string, class trip.VehicleClass, position geo.Point) error {
	err := idx.client.GeoAdd(ctx, classKey(class), &redis.GeoLocation{
		Name:      driverID,
		Longitude: position.Longitude,
		Latitude:  position.Latitude,
	}).Err()
	if err != nil {
		return fmt.Errorf("geoadd driver %s: %w", driverID, err)
	}
	return nil
}

// RemoveDriver drops a driver from the class index.
func (idx *RedisIndex) RemoveDriver(ctx context.Context, driverID string, class trip.VehicleClass) error {
	if err := idx.client.ZRem(ctx, classKey(class), driverID).Err(); err != nil {
		return fmt.Errorf("zrem driver %s: %w", driverID, err)
	}
	return nil
}

// SearchWithin returns drivers of the class within radiusKm, nearest first.
// GEOSEARCH treats the radius as inclusive, which matches the boundary rule.
func (idx *RedisIndex) SearchWithin(ctx context.Context, origin geo.Point, radiusKm float64, class trip.VehicleClass, limit int) ([]ports.CandidateHit, error) {
	results, err := idx.client.GeoSearchLocation(ctx, classKey(class), &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  origin.Longitude,
			Latitude:   origin.Latitude,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
			Count:      limit,
		},
		WithDist: true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("geosearch %s: %w", class, err)
	}

	hits := make([]ports.CandidateHit, 0, len(results))
	for _, r := range results {
		hits = append(hits, ports.CandidateHit{DriverID: r.Name, DistanceKm: r.Dist})
	}
	return hits, nil
}

// RecordOffers remembers which drivers saw the offer for a trip.
func (idx *RedisIndex) RecordOffers(ctx context.Context, tripID string, driverIDs []string, ttl time.Duration) error {
	if len(driverIDs) == 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = offersTTL
	}

	key := offersKey(tripID)
	members := make([]any, len(driverIDs))
	for i, id := range driverIDs {
		members[i] = id
	}
	if err := idx.client.SAdd(ctx, key, members...).Err(); err != nil {
		return fmt.Errorf("sadd offers for trip %s: %w", tripID, err)
	}
	if err := idx.client.Expire(ctx, key, ttl).Err(); err != nil {
		return fmt.Errorf("expire offers for trip %s: %w", tripID, err)
	}
	return nil
}

// OfferedDrivers returns the recorded offer set for a trip.
func (idx *RedisIndex) OfferedDrivers(ctx context.Context, tripID string) ([]string, error) {
	ids, err := idx.client.SMembers(ctx, offersKey(tripID)).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers offers for trip %s: %w", tripID, err)
	}
	return ids, nil
}
