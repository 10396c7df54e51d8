package app

import (
	"context"
	"errors"
	"time"

	"github.com/willerob90/SubGames-Working/internal/adapters/repository"
	"github.com/willerob90/SubGames-Working/pkg/logger"
)

// settleGrace keeps the automatic settlement a beat behind the boundary
// so in-flight commits land in their own cycle first.
const settleGrace = 5 * time.Second

// RunScheduler blocks, settling each cycle shortly after it closes and
// sweeping expired sessions every cleanupEvery. It returns when ctx is
// canceled. Run it in its own goroutine.
func (s *Service) RunScheduler(ctx context.Context, cleanupEvery time.Duration) {
	if cleanupEvery <= 0 {
		cleanupEvery = time.Hour
	}

	cleanup := time.NewTicker(cleanupEvery)
	defer cleanup.Stop()

	settle := time.NewTimer(s.untilNextSettle())
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-settle.C:
			s.settleLatest(ctx)
			settle.Reset(s.untilNextSettle())

		case <-cleanup.C:
			swept, err := s.CleanupExpiredSessions(ctx)
			if err != nil {
				s.logger.Error(ctx, "session sweep failed", logger.Error(err))
				continue
			}
			if swept > 0 {
				s.logger.Info(ctx, "expired sessions swept", logger.Int64("count", swept))
			}
		}
	}
}

func (s *Service) untilNextSettle() time.Duration {
	d := s.clock.NextClose().Sub(s.clock.Now()) + settleGrace
	if d < settleGrace {
		d = settleGrace
	}
	return d
}

func (s *Service) settleLatest(ctx context.Context) {
	winner, created, err := s.SettleCycle(ctx, "", false)
	switch {
	case errors.Is(err, repository.ErrNoEntries):
		s.logger.Info(ctx, "cycle closed with no entries",
			logger.String("cycle", s.clock.LatestClosed()))
	case err != nil:
		s.logger.Error(ctx, "automatic settlement failed", logger.Error(err))
	case created:
		s.logger.Info(ctx, "cycle settled on schedule",
			logger.String("cycle", winner.CycleID),
			logger.String("winner", winner.WinnerID))
	}
}
