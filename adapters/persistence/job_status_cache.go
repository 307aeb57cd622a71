package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/khoahotran/reel-forge/internal/application/service"
	"github.com/redis/go-redis/v9"
)

type redisJobStatusStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisJobStatusStore(rdb *redis.Client, ttl time.Duration) service.JobStatusStore {
	return &redisJobStatusStore{rdb: rdb, ttl: ttl}
}

func jobStatusKey(jobID string) string {
	return "reelforge:job:" + jobID + ":status"
}

func (s *redisJobStatusStore) Set(ctx context.Context, js service.JobStatus) error {
	b, err := json.Marshal(js)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, jobStatusKey(js.JobID), b, s.ttl).Err()
}

func (s *redisJobStatusStore) Get(ctx context.Context, jobID string) (*service.JobStatus, error) {
	b, err := s.rdb.Get(ctx, jobStatusKey(jobID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var js service.JobStatus
	if err := json.Unmarshal(b, &js); err != nil {
		return nil, err
	}
	return &js, nil
}
