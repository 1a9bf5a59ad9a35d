package redis

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes a lock only if it still holds the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles distributed seat locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

func seatLockKey(tripID, seatID int64) string {
	return fmt.Sprintf("lock:seat:%d:%d", tripID, seatID)
}

// AcquireSeatLocks locks every seat of a trip or none of them.
// Seats are locked in ascending order so overlapping requests cannot deadlock.
// Returns the lock token and true on success, or "" and false if any seat is
// already held by someone else.
func (s *LockStore) AcquireSeatLocks(ctx context.Context, tripID int64, seatIDs []int64, ttl time.Duration) (string, bool, error) {
	sorted := slices.Clone(seatIDs)
	slices.Sort(sorted)

	token := uuid.NewString()
	acquired := make([]int64, 0, len(sorted))

	for _, seatID := range sorted {
		ok, err := s.client.SetNX(ctx, seatLockKey(tripID, seatID), token, ttl).Result()
		if err != nil || !ok {
			// Undo the partial acquisition.
			if relErr := s.ReleaseSeatLocks(ctx, tripID, acquired, token); relErr != nil && err == nil {
				err = relErr
			}
			return "", false, err
		}
		acquired = append(acquired, seatID)
	}

	return token, true, nil
}

// ReleaseSeatLocks releases the seat locks held with the given token.
func (s *LockStore) ReleaseSeatLocks(ctx context.Context, tripID int64, seatIDs []int64, token string) error {
	if len(seatIDs) == 0 {
		return nil
	}

	pipe := s.client.Pipeline()
	for _, seatID := range seatIDs {
		releaseScript.Eval(ctx, pipe, []string{seatLockKey(tripID, seatID)}, token)
	}

	_, err := pipe.Exec(ctx)
	return err
}
