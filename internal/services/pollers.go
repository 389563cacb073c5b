package services

import (
	"context"

	"github.com/vikingheim/odin-rewards/internal/observability/metrics"
	"github.com/vikingheim/odin-rewards/internal/utils/poller"
)

// StartAccrualPoller runs the periodic reward accrual tick until the context
// is cancelled.
func (s *Service) StartAccrualPoller(ctx context.Context) *poller.Poller {
	p := poller.NewPoller(
		s.cfg.Poller.AccrualPollingInterval,
		metrics.RecordPollerDuration("reward_accrual", s.AccrueAll),
	)
	go p.Start(ctx)
	return p
}

// StartStatsPoller periodically refreshes the overall stats snapshot.
func (s *Service) StartStatsPoller(ctx context.Context) *poller.Poller {
	p := poller.NewPoller(
		s.cfg.Poller.StatsPollingInterval,
		metrics.RecordPollerDuration("overall_stats", s.RefreshOverallStats),
	)
	go p.Start(ctx)
	return p
}
