package session

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

const reapTimeout = 30 * time.Second

// StartReaper schedules DeleteExpired for stores that need it. The returned
// stop function waits for a running purge to finish.
func StartReaper(store Store, schedule string, logger *zap.Logger) (func(), error) {
	reaper, ok := store.(Reaper)
	if !ok {
		return func() {}, nil
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), reapTimeout)
		defer cancel()

		n, err := reaper.DeleteExpired(ctx)
		if err != nil {
			logger.Error("Failed to purge expired sessions", zap.Error(err))
			return
		}
		if n > 0 {
			logger.Info("Purged expired sessions", zap.Int64("count", n))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("invalid session reap schedule %q: %w", schedule, err)
	}

	c.Start()
	logger.Info("Session reaper started", zap.String("schedule", schedule))

	return func() {
		<-c.Stop().Done()
	}, nil
}
