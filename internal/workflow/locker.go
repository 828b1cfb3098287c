package workflow

import "context"

// Locker serializes work on one key. conversation.Store satisfies it, so a redis-backed
// store extends the exclusion across processes.
type Locker interface {
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

func sessionLockKey(id string) string { return "generate:session:" + id }
