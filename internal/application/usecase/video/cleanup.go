package video

import (
	"context"
	"fmt"

	"github.com/khoahotran/reel-forge/adapters/metrics"
	"github.com/khoahotran/reel-forge/internal/application/service"
	"github.com/khoahotran/reel-forge/pkg/logger"
	"go.uber.org/zap"
)

// Cleanup removes a content's remote segment videos and reference frames.
type Cleanup struct {
	store  service.ObjectStore
	logger logger.Logger
}

func NewCleanup(store service.ObjectStore, log logger.Logger) *Cleanup {
	return &Cleanup{store: store, logger: log}
}

// Run never fails the caller's pipeline; the returned error is informational.
func (c *Cleanup) Run(ctx context.Context, contentID int64) (int, error) {
	prefix := ContentPrefix(contentID)
	n, err := c.store.DeleteByPrefix(ctx, prefix)
	if err != nil {
		metrics.CleanupFailuresTotal.Inc()
		c.logger.Error("Failed to delete intermediate artifacts", err,
			zap.Int64("content_id", contentID), zap.String("prefix", prefix), zap.Int("deleted", n))
		return n, fmt.Errorf("%w: %v", ErrCleanup, err)
	}
	c.logger.Info("Deleted intermediate artifacts", zap.Int64("content_id", contentID), zap.Int("deleted", n))
	return n, nil
}
