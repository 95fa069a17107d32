package sweeper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"hotel-desk-backend/config"
	"hotel-desk-backend/internal/metrics"
)

// Promoter is the part of the store the sweeper needs.
type Promoter interface {
	PromoteArrivals(ctx context.Context, now time.Time) (int64, error)
}

// Service periodically marks reserved rooms occupied once their guests'
// stay has begun, so the room board stays current between bookings.
type Service struct {
	cfg     config.SweeperConfig
	store   Promoter
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

func NewService(cfg config.SweeperConfig, store Promoter, logger *zap.Logger, m *metrics.Metrics) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		cfg:     cfg,
		store:   store,
		logger:  logger.Named("sweeper"),
		metrics: m,
		now:     time.Now,
	}
}

// Run sweeps once immediately and then every cfg.Interval until ctx is done.
func (s *Service) Run(ctx context.Context) {
	if !s.cfg.Enabled {
		s.logger.Info("sweeper is disabled, not starting")
		return
	}
	s.logger.Info("starting sweeper", zap.Duration("interval", s.cfg.Interval))

	s.SweepOnce(ctx)

	timer := time.NewTimer(s.cfg.Interval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweeper shutting down")
			return
		case <-timer.C:
			s.SweepOnce(ctx)
			timer.Reset(s.cfg.Interval)
		}
	}
}

// SweepOnce performs a single promotion pass and returns the rooms changed.
func (s *Service) SweepOnce(ctx context.Context) int64 {
	n, err := s.store.PromoteArrivals(ctx, s.now().UTC())
	if err != nil {
		s.logger.Error("failed to promote arrivals", zap.Error(err))
		return 0
	}
	if n > 0 {
		s.logger.Info("rooms marked occupied", zap.Int64("rooms", n))
		s.metrics.AddPromoted(n)
	}
	return n
}
