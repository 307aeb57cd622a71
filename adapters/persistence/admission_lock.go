package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/khoahotran/reel-forge/internal/application/service"
	"github.com/khoahotran/reel-forge/pkg/apperror"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"github.com/khoahotran/reel-forge/pkg/poll"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const admissionLockKey = "reelforge:pipeline:admission"

// Only the token that set the key may extend or delete it.
var (
	renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0`)
	releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)
)

type lockValue struct {
	Token      string    `json:"token"`
	JobID      string    `json:"job_id"`
	ContentID  int64     `json:"content_id"`
	AcquiredAt time.Time `json:"acquired_at"`
}

type RedisAdmissionLockConfig struct {
	TTL         time.Duration
	WaitTimeout time.Duration
	RetryEvery  time.Duration
	RenewEvery  time.Duration
}

// RedisAdmissionLock is a single-slot lease in Redis. The holder keeps it
// alive with a heartbeat so a crashed worker frees the slot after one TTL.
type RedisAdmissionLock struct {
	rdb    *redis.Client
	cfg    RedisAdmissionLockConfig
	logger logger.Logger
}

func NewRedisAdmissionLock(rdb *redis.Client, cfg RedisAdmissionLockConfig, log logger.Logger) *RedisAdmissionLock {
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Minute
	}
	if cfg.RetryEvery <= 0 {
		cfg.RetryEvery = time.Second
	}
	if cfg.RenewEvery <= 0 || cfg.RenewEvery >= cfg.TTL {
		cfg.RenewEvery = cfg.TTL / 3
	}
	return &RedisAdmissionLock{rdb: rdb, cfg: cfg, logger: log}
}

var _ service.AdmissionLock = (*RedisAdmissionLock)(nil)

func (l *RedisAdmissionLock) Acquire(ctx context.Context, jobID string, contentID int64) (service.Lease, error) {
	value, err := json.Marshal(lockValue{
		Token:      uuid.NewString(),
		JobID:      jobID,
		ContentID:  contentID,
		AcquiredAt: time.Now().UTC(),
	})
	if err != nil {
		return nil, apperror.NewInternal("failed to encode admission lock value", err)
	}

	policy := poll.Policy{Interval: l.cfg.RetryEvery, Timeout: l.cfg.WaitTimeout}
	waited := false
	err = poll.Until(ctx, policy, func(ctx context.Context, attempt int) (bool, error) {
		ok, err := l.rdb.SetNX(ctx, admissionLockKey, value, l.cfg.TTL).Result()
		if err != nil {
			return false, err
		}
		if !ok && !waited {
			waited = true
			l.logger.Info("Admission slot busy, waiting", zap.String("job_id", jobID))
		}
		return ok, nil
	})
	if errors.Is(err, poll.ErrTimeout) {
		return nil, apperror.NewUnavailable(fmt.Sprintf("admission slot busy for %s", l.cfg.WaitTimeout), err)
	}
	if err != nil {
		return nil, apperror.NewUnavailable("failed to acquire admission lock", err)
	}

	lease := &redisLease{lock: l, value: string(value), jobID: jobID, stop: make(chan struct{}), done: make(chan struct{})}
	go lease.heartbeat()
	return lease, nil
}

func (l *RedisAdmissionLock) Holder(ctx context.Context) (*service.LockHolder, error) {
	raw, err := l.rdb.Get(ctx, admissionLockKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var v lockValue
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("decode admission lock value: %w", err)
	}
	ttl, err := l.rdb.PTTL(ctx, admissionLockKey).Result()
	if err != nil {
		return nil, err
	}
	return &service.LockHolder{JobID: v.JobID, ContentID: v.ContentID, AcquiredAt: v.AcquiredAt, TTLLeft: ttl}, nil
}

type redisLease struct {
	lock  *RedisAdmissionLock
	value string
	jobID string

	once sync.Once
	stop chan struct{}
	done chan struct{}
}

func (le *redisLease) heartbeat() {
	defer close(le.done)
	ticker := time.NewTicker(le.lock.cfg.RenewEvery)
	defer ticker.Stop()

	for {
		select {
		case <-le.stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), le.lock.cfg.RenewEvery)
			n, err := renewScript.Run(ctx, le.lock.rdb, []string{admissionLockKey}, le.value, le.lock.cfg.TTL.Milliseconds()).Int()
			cancel()
			if err != nil {
				le.lock.logger.Warn("Failed to renew admission lock", zap.String("job_id", le.jobID), zap.Error(err))
				continue
			}
			if n == 0 {
				le.lock.logger.Warn("Admission lock lost before release", zap.String("job_id", le.jobID))
				return
			}
		}
	}
}

func (le *redisLease) Release(ctx context.Context) error {
	var err error
	le.once.Do(func() {
		close(le.stop)
		<-le.done
		err = releaseScript.Run(ctx, le.lock.rdb, []string{admissionLockKey}, le.value).Err()
	})
	return err
}
