package leaderboard

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/park285/eval-trainer-bot/internal/domain"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Source is the authoritative ranking store. A limit of zero returns every row.
type Source interface {
	Leaderboard(ctx context.Context, tc domain.TimeControl, limit int) ([]domain.LeaderboardEntry, error)
	SurvivalLeaderboard(ctx context.Context, tc domain.TimeControl, limit int) ([]domain.LeaderboardEntry, error)
}

// Syncer periodically rebuilds the redis board from the store so missed writes heal.
type Syncer struct {
	board     *Board
	source    Source
	interval  time.Duration
	timeout   time.Duration
	logger    *zap.Logger
	scheduler *gocron.Scheduler
}

func NewSyncer(board *Board, source Source, interval time.Duration, logger *zap.Logger) *Syncer {
	if interval < time.Minute {
		interval = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Syncer{
		board:     board,
		source:    source,
		interval:  interval,
		timeout:   time.Minute,
		logger:    logger,
		scheduler: gocron.NewScheduler(time.UTC),
	}
}

// Sync rebuilds every ranking, one goroutine per ranking.
func (s *Syncer) Sync(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, tc := range domain.TimeControls {
		tc := tc
		g.Go(func() error {
			entries, err := s.source.Leaderboard(ctx, tc, 0)
			if err != nil {
				return err
			}
			return s.board.Replace(ctx, KindRating, tc, entries)
		})
		g.Go(func() error {
			entries, err := s.source.SurvivalLeaderboard(ctx, tc, 0)
			if err != nil {
				return err
			}
			return s.board.Replace(ctx, KindSurvival, tc, entries)
		})
	}
	return g.Wait()
}

// Start runs an initial sync and schedules the rest.
func (s *Syncer) Start() error {
	minutes := int(s.interval / time.Minute)
	if _, err := s.scheduler.Every(minutes).Minutes().Do(s.runOnce); err != nil {
		return err
	}
	s.scheduler.StartAsync()
	return nil
}

func (s *Syncer) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	start := time.Now()
	if err := s.Sync(ctx); err != nil {
		s.logger.Warn("leaderboard sync failed", zap.Error(err))
		return
	}
	s.logger.Debug("leaderboard synced", zap.Duration("took", time.Since(start)))
}

func (s *Syncer) Stop() {
	s.scheduler.Stop()
}
