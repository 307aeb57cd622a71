package service

import (
	"context"
	"errors"
	"time"
)

var ErrLockNotHeld = errors.New("admission lock not held")

type LockHolder struct {
	JobID      string        `json:"job_id"`
	ContentID  int64         `json:"content_id"`
	AcquiredAt time.Time     `json:"acquired_at"`
	TTLLeft    time.Duration `json:"ttl_left"`
}

type Lease interface {
	// Release is a no-op if the lease has already expired or been taken over.
	Release(ctx context.Context) error
}

// AdmissionLock admits one pipeline job system-wide at a time.
type AdmissionLock interface {
	Acquire(ctx context.Context, jobID string, contentID int64) (Lease, error)
	Holder(ctx context.Context) (*LockHolder, error)
}

type JobStatus struct {
	JobID     string    `json:"job_id"`
	ContentID int64     `json:"content_id"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	MediaID   string    `json:"media_id,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

type JobStatusStore interface {
	Set(ctx context.Context, s JobStatus) error
	Get(ctx context.Context, jobID string) (*JobStatus, error)
}
