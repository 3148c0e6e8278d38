package cache

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// SyncLock guards catalog mirror syncs so two concurrent syncs cannot
// interleave their prune phases.
const SyncLock = "nettube:lock:sync"

// ErrLocked is returned by TryLock when the lock is already held.
var ErrLocked = errors.New("lock is already held")

// releaseScript deletes the lock key only when the caller still owns
// it, so a holder whose TTL expired cannot release a successor's lock.
const releaseScript = `
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`

// TryLock acquires the distributed lock named key via SET NX EX. On
// success it returns a release function the caller must invoke
// (typically via defer); when another holder has the lock it returns
// ErrLocked without blocking.
func TryLock(ctx context.Context, r *Redis, key string, ttl time.Duration) (unlock func(), err error) {
	token := lockToken()

	ok, err := r.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("cache lock %s: %w", key, err)
	}
	if !ok {
		return nil, ErrLocked
	}

	return func() {
		// Release with a fresh context: the lock must go away even when
		// the acquiring request was cancelled.
		_ = r.client.Eval(context.Background(), releaseScript, []string{key}, token).Err()
	}, nil
}

// IsLocked reports whether the lock key currently exists.
func IsLocked(ctx context.Context, r *Redis, key string) bool {
	n, _ := r.client.Exists(ctx, key).Result()
	return n > 0
}

// lockToken generates the per-holder ownership token.
func lockToken() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
