// Package job provides background job schedulers.
package job

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"channel-insight-service/internal/app/service"
	"channel-insight-service/pkg/locker"
)

const refreshLockKey = "refresh:scheduler:lock"

// Refresher re-fetches every tracked channel.
type Refresher interface {
	RefreshAll(ctx context.Context) ([]service.RefreshResult, error)
}

// RefreshConfig holds refresh scheduler configuration.
type RefreshConfig struct {
	Interval  time.Duration
	Timeout   time.Duration
	OnStartup bool
}

// RefreshScheduler periodically refreshes tracked channels. A distributed
// lock keeps concurrent instances from refreshing in the same interval.
type RefreshScheduler struct {
	refresher Refresher
	interval  time.Duration
	timeout   time.Duration
	onStartup bool
	logger    *zap.Logger
	locker    locker.DistributedLocker

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewRefreshScheduler creates a new RefreshScheduler.
func NewRefreshScheduler(
	refresher Refresher,
	cfg RefreshConfig,
	logger *zap.Logger,
	l locker.DistributedLocker,
) *RefreshScheduler {
	return &RefreshScheduler{
		refresher: refresher,
		interval:  cfg.Interval,
		timeout:   cfg.Timeout,
		onStartup: cfg.OnStartup,
		logger:    logger,
		locker:    l,
	}
}

// Start begins the background refresh loop.
func (s *RefreshScheduler) Start() {
	s.ctx, s.cancel = context.WithCancel(context.Background())

	s.logger.Info("starting refresh scheduler",
		zap.Duration("interval", s.interval),
		zap.Bool("run_on_startup", s.onStartup),
	)

	s.wg.Add(1)
	go s.run()
}

// Stop cancels any running refresh and waits for the loop to exit.
func (s *RefreshScheduler) Stop() {
	s.logger.Info("stopping refresh scheduler")
	s.cancel()
	s.wg.Wait()
	s.logger.Info("refresh scheduler stopped")
}

func (s *RefreshScheduler) run() {
	defer s.wg.Done()

	if s.onStartup {
		s.execute(s.ctx)
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.execute(s.ctx)
		}
	}
}

// execute runs one refresh under the lock.
//
// Locking behavior:
//   - Lock TTL = interval duration (cooldown model, not timeout)
//   - Success: lock held for the full interval
//   - Any channel failed: lock released so another instance can retry
func (s *RefreshScheduler) execute(ctx context.Context) {
	ran, err := locker.RunOnce(ctx, s.locker, refreshLockKey, s.interval, s.refresh)
	switch {
	case !ran && err != nil:
		s.logger.Error("failed to acquire distributed lock", zap.Error(err))
	case !ran:
		s.logger.Debug("another instance is refreshing, skipping execution")
	case err != nil:
		s.logger.Info("refresh completed with errors, lock released for retry", zap.Error(err))
	default:
		s.logger.Info("refresh completed, lock held for cooldown", zap.Duration("cooldown", s.interval))
	}
}

func (s *RefreshScheduler) refresh(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	results, err := s.refresher.RefreshAll(ctx)
	if err != nil {
		return err
	}

	videos, failed := 0, 0
	for _, r := range results {
		if r.Error != nil {
			failed++
			s.logger.Warn("channel refresh failed",
				zap.String("channel_id", r.ChannelID),
				zap.Error(r.Error),
			)
			continue
		}
		videos += r.Videos
	}

	s.logger.Info("refresh finished",
		zap.Int("channels", len(results)),
		zap.Int("channels_failed", failed),
		zap.Int("videos", videos),
	)
	if failed > 0 {
		return fmt.Errorf("%d of %d channels failed to refresh", failed, len(results))
	}
	return nil
}
