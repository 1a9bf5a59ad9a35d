package redis

import (
	"context"
	"time"

	"busticket/internal/domain"
)

// LockStoreInterface defines the interface for seat locking.
type LockStoreInterface interface {
	AcquireSeatLocks(ctx context.Context, tripID int64, seatIDs []int64, ttl time.Duration) (string, bool, error)
	ReleaseSeatLocks(ctx context.Context, tripID int64, seatIDs []int64, token string) error
}

// CacheStoreInterface defines the interface for trip and availability caching.
type CacheStoreInterface interface {
	GetAvailability(ctx context.Context, tripID int64) (*domain.SeatAvailability, error)
	SetAvailability(ctx context.Context, a *domain.SeatAvailability) error
	InvalidateAvailability(ctx context.Context, tripID int64) error
	GetTrip(ctx context.Context, tripID int64) (*domain.Trip, error)
	SetTrip(ctx context.Context, trip *domain.Trip) error
	InvalidateTrip(ctx context.Context, tripID int64) error
}

// SessionStoreInterface defines the interface for session caching.
type SessionStoreInterface interface {
	Get(ctx context.Context, key string) (*domain.Session, error)
	Set(ctx context.Context, session *domain.Session, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Ensure concrete types implement interfaces.
var (
	_ LockStoreInterface    = (*LockStore)(nil)
	_ CacheStoreInterface   = (*CacheStore)(nil)
	_ SessionStoreInterface = (*SessionStore)(nil)
)
