// Package conversation keeps short-lived chat transcripts keyed by caller-chosen ids
// (interview intake, debrief Q&A).
package conversation

import (
	"context"
	"errors"
	"time"

	"github.com/yungbote/trainforge-backend/internal/llm"
)

const (
	DefaultTTL     = 24 * time.Hour
	// The holder refreshes the lock every third of its TTL until fn returns.
	defaultLockTTL = time.Minute
)

var ErrLockTimeout = errors.New("conversation: lock wait timed out")

type Store interface {
	// History returns the transcript in append order, or nil when the key is unknown or expired.
	History(ctx context.Context, key string) ([]llm.Message, error)
	// Append adds turns and refreshes the key's TTL.
	Append(ctx context.Context, key string, turns ...llm.Message) error
	Delete(ctx context.Context, key string) error
	// WithLock runs fn while holding the key's exclusive lock.
	WithLock(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

func InterviewKey(key string) string { return "interview:" + key }

func DebriefKey(projectID string) string { return "debrief:" + projectID }
