package housekeeping

import (
	"context"
	"fmt"
	"time"

	"github.com/nkiryanov/usermanagement/internal/logger"
	"github.com/nkiryanov/usermanagement/internal/repository"
)

const (
	defaultInterval  = time.Hour
	defaultRetention = 48 * time.Hour
)

type Config struct {
	// How often sweep runs, 1h if not set
	Interval time.Duration

	// Inactive refresh tokens are kept that long after creation, 48h if not set
	Retention time.Duration

	// Clock, time.Now if not set
	Now func() time.Time
}

// Sweeper removes inactive refresh tokens of all users
// Rotation prunes only tokens of the user it works with, so tokens of users who never come back stay forever without it
type Sweeper struct {
	interval  time.Duration
	retention time.Duration
	now       func() time.Time

	storage repository.Storage
	logger  logger.Logger
}

func New(cfg Config, storage repository.Storage, l logger.Logger) *Sweeper {
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}
	if cfg.Retention <= 0 {
		cfg.Retention = defaultRetention
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Sweeper{
		interval:  cfg.Interval,
		retention: cfg.Retention,
		now:       cfg.Now,
		storage:   storage,
		logger:    l,
	}
}

// Sweep deletes refresh tokens that are inactive and older than retention
func (s *Sweeper) Sweep(ctx context.Context) (int64, error) {
	now := s.now()

	deleted, err := s.storage.Refresh().DeleteInactive(ctx, now.Add(-s.retention), now)
	if err != nil {
		return 0, fmt.Errorf("can't delete inactive refresh tokens. Err: %w", err)
	}

	return deleted, nil
}

// Run sweeps immediately and then every interval till context is done
// Returned channel is closed when the sweeper stopped
func (s *Sweeper) Run(ctx context.Context) <-chan struct{} {
	idleStopped := make(chan struct{})
	s.logger.Info("Starting housekeeping", "interval", s.interval, "retention", s.retention)

	go func() {
		defer close(idleStopped)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			deleted, err := s.Sweep(ctx)
			switch {
			case err != nil && ctx.Err() == nil:
				s.logger.Error("Housekeeping failed", "error", err)
			case err == nil:
				s.logger.Debug("Housekeeping done", "deleted_refresh_tokens", deleted)
			}

			select {
			case <-ctx.Done():
				s.logger.Debug("Housekeeping stopped by context")
				return
			case <-ticker.C:
			}
		}
	}()

	return idleStopped
}
