package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"busticket/internal/domain"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCacheStore creates a new CacheStore. A zero ttl uses DefaultAvailabilityTTL.
func NewCacheStore(client *redis.Client, ttl time.Duration) *CacheStore {
	if ttl <= 0 {
		ttl = DefaultAvailabilityTTL
	}
	return &CacheStore{client: client, ttl: ttl}
}

// Cache TTL constants
const (
	DefaultAvailabilityTTL = 15 * time.Second // Seat counts change on every booking
	TripCacheTTL           = 60 * time.Second // Trips change rarely
)

// Key prefixes
const (
	availabilityCachePrefix = "cache:availability:"
	tripCachePrefix         = "cache:trip:"
)

func availabilityKey(tripID int64) string {
	return fmt.Sprintf("%s%d", availabilityCachePrefix, tripID)
}

func tripKey(tripID int64) string {
	return fmt.Sprintf("%s%d", tripCachePrefix, tripID)
}

// getJSON reads and decodes a cached value. A miss returns false with no error.
func (s *CacheStore) getJSON(ctx context.Context, key string, v any) (bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // Cache miss
		}
		return false, err
	}

	if err := json.Unmarshal(data, v); err != nil {
		return false, err
	}
	return true, nil
}

func (s *CacheStore) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, ttl).Err()
}

// GetAvailability retrieves cached seat availability of a trip.
// Returns nil on a cache miss.
func (s *CacheStore) GetAvailability(ctx context.Context, tripID int64) (*domain.SeatAvailability, error) {
	var a domain.SeatAvailability
	ok, err := s.getJSON(ctx, availabilityKey(tripID), &a)
	if err != nil || !ok {
		return nil, err
	}
	return &a, nil
}

// SetAvailability stores seat availability of a trip.
func (s *CacheStore) SetAvailability(ctx context.Context, a *domain.SeatAvailability) error {
	return s.setJSON(ctx, availabilityKey(a.TripID), a, s.ttl)
}

// GetTrip retrieves a cached trip. Returns nil on a cache miss.
func (s *CacheStore) GetTrip(ctx context.Context, tripID int64) (*domain.Trip, error) {
	var trip domain.Trip
	ok, err := s.getJSON(ctx, tripKey(tripID), &trip)
	if err != nil || !ok {
		return nil, err
	}
	return &trip, nil
}

// SetTrip stores a trip in cache.
func (s *CacheStore) SetTrip(ctx context.Context, trip *domain.Trip) error {
	return s.setJSON(ctx, tripKey(trip.ID), trip, TripCacheTTL)
}

// InvalidateTrip removes the cached trip and its availability.
func (s *CacheStore) InvalidateTrip(ctx context.Context, tripID int64) error {
	return s.client.Del(ctx, tripKey(tripID), availabilityKey(tripID)).Err()
}

// InvalidateAvailability removes the cached availability of a trip.
func (s *CacheStore) InvalidateAvailability(ctx context.Context, tripID int64) error {
	return s.client.Del(ctx, availabilityKey(tripID)).Err()
}
