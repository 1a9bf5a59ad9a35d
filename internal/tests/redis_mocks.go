package tests

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"busticket/internal/domain"
	"busticket/internal/redis"
)

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]string

	// Counters for verification
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]string)}
}

func seatLockKey(tripID, seatID int64) string {
	return fmt.Sprintf("lock:seat:%d:%d", tripID, seatID)
}

func (m *MockLockStore) AcquireSeatLocks(ctx context.Context, tripID int64, seatIDs []int64, ttl time.Duration) (string, bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return "", false, m.AcquireError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sorted := append([]int64(nil), seatIDs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	for _, id := range sorted {
		if _, held := m.locks[seatLockKey(tripID, id)]; held {
			return "", false, nil
		}
	}

	token := uuid.New().String()
	for _, id := range sorted {
		m.locks[seatLockKey(tripID, id)] = token
	}
	return token, true, nil
}

func (m *MockLockStore) ReleaseSeatLocks(ctx context.Context, tripID int64, seatIDs []int64, token string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range seatIDs {
		key := seatLockKey(tripID, id)
		if m.locks[key] == token {
			delete(m.locks, key)
		}
	}
	return nil
}

// Hold locks a seat on behalf of another request.
func (m *MockLockStore) Hold(tripID, seatID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[seatLockKey(tripID, seatID)] = "held-elsewhere"
}

// HeldCount returns how many seat locks are held.
func (m *MockLockStore) HeldCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is a mock implementation of CacheStoreInterface.
type MockCacheStore struct {
	mu           sync.Mutex
	availability map[int64]domain.SeatAvailability
	trips        map[int64]domain.Trip

	InvalidateAvailabilityCount int32
	InvalidateTripCount         int32
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{
		availability: make(map[int64]domain.SeatAvailability),
		trips:        make(map[int64]domain.Trip),
	}
}

func (m *MockCacheStore) GetAvailability(ctx context.Context, tripID int64) (*domain.SeatAvailability, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.availability[tripID]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *MockCacheStore) SetAvailability(ctx context.Context, a *domain.SeatAvailability) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.availability[a.TripID] = *a
	return nil
}

func (m *MockCacheStore) InvalidateAvailability(ctx context.Context, tripID int64) error {
	atomic.AddInt32(&m.InvalidateAvailabilityCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.availability, tripID)
	return nil
}

func (m *MockCacheStore) GetTrip(ctx context.Context, tripID int64) (*domain.Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[tripID]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (m *MockCacheStore) SetTrip(ctx context.Context, trip *domain.Trip) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = *trip
	return nil
}

func (m *MockCacheStore) InvalidateTrip(ctx context.Context, tripID int64) error {
	atomic.AddInt32(&m.InvalidateTripCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.trips, tripID)
	delete(m.availability, tripID)
	return nil
}

// HasAvailability reports whether availability of the trip is cached.
func (m *MockCacheStore) HasAvailability(tripID int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.availability[tripID]
	return ok
}

// ──────────────────────────────────────────────
// MOCK SESSION STORE
// ──────────────────────────────────────────────

// MockSessionStore is a mock implementation of SessionStoreInterface.
type MockSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
}

// NewMockSessionStore creates a new mock session store.
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{sessions: make(map[string]domain.Session)}
}

func (m *MockSessionStore) Get(ctx context.Context, key string) (*domain.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[key]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (m *MockSessionStore) Set(ctx context.Context, session *domain.Session, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.SessionKey] = *session
	return nil
}

func (m *MockSessionStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, key)
	return nil
}

// Has reports whether the session key is cached.
func (m *MockSessionStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[key]
	return ok
}

// Ensure mocks implement the store interfaces.
var (
	_ redis.LockStoreInterface    = (*MockLockStore)(nil)
	_ redis.CacheStoreInterface   = (*MockCacheStore)(nil)
	_ redis.SessionStoreInterface = (*MockSessionStore)(nil)
)
