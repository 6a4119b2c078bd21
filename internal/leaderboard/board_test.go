package leaderboard

import (
	"context"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/park285/eval-trainer-bot/internal/domain"
	"github.com/redis/go-redis/v9"
)

func newTestBoard(t *testing.T) (*Board, *miniredis.Miniredis) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewBoard(rdb, "test:lb"), mr
}

func TestBoardRanksByScore(t *testing.T) {
	b, mr := newTestBoard(t)
	ctx := context.Background()

	if err := b.UpdateRating(ctx, domain.TC30s, "u2", "bob", 1600); err != nil {
		t.Fatalf("UpdateRating: %v", err)
	}
	if err := b.UpdateRating(ctx, domain.TC30s, "u1", "alice", 1720); err != nil {
		t.Fatalf("UpdateRating: %v", err)
	}
	if err := b.UpdateRating(ctx, domain.TC30s, "u3", "carol", 1600); err != nil {
		t.Fatalf("UpdateRating: %v", err)
	}
	if err := b.UpdateRating(ctx, domain.TC60s, "u3", "carol", 1900); err != nil {
		t.Fatalf("UpdateRating: %v", err)
	}

	entries, err := b.TopRatings(ctx, domain.TC30s, 10)
	if err != nil {
		t.Fatalf("TopRatings: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %+v", entries)
	}
	if entries[0].UserID != "u1" || entries[0].Username != "alice" || entries[0].Rank != 1 {
		t.Fatalf("unexpected leader: %+v", entries[0])
	}
	if entries[1].UserID != "u2" || entries[2].UserID != "u3" {
		t.Fatalf("ties should order by user id: %+v", entries)
	}

	rank, ok, err := b.RatingRank(ctx, domain.TC30s, "u3")
	if err != nil || !ok || rank != 2 {
		t.Fatalf("RatingRank(u3) = %d, %v, %v", rank, ok, err)
	}
	if _, ok, _ := b.RatingRank(ctx, domain.TC30s, "ghost"); ok {
		t.Fatalf("unknown user should not be ranked")
	}

	if !mr.Exists("test:lb:rating:60") {
		t.Fatalf("expected a per time control key")
	}
}

func TestBoardKeepsCustomName(t *testing.T) {
	b, _ := newTestBoard(t)
	ctx := context.Background()
	if err := b.UpdateName(ctx, "u1", "Alice"); err != nil {
		t.Fatalf("UpdateName: %v", err)
	}
	if err := b.UpdateSurvival(ctx, domain.TC15s, "u1", "alice-sender", 12); err != nil {
		t.Fatalf("UpdateSurvival: %v", err)
	}
	entries, err := b.TopSurvival(ctx, domain.TC15s, 0)
	if err != nil {
		t.Fatalf("TopSurvival: %v", err)
	}
	if len(entries) != 1 || entries[0].Username != "Alice" || entries[0].Score != 12 {
		t.Fatalf("unexpected survival board: %+v", entries)
	}
}

type staticSource struct {
	ratings  map[domain.TimeControl][]domain.LeaderboardEntry
	survival map[domain.TimeControl][]domain.LeaderboardEntry
}

func (s staticSource) Leaderboard(_ context.Context, tc domain.TimeControl, _ int) ([]domain.LeaderboardEntry, error) {
	return s.ratings[tc], nil
}

func (s staticSource) SurvivalLeaderboard(_ context.Context, tc domain.TimeControl, _ int) ([]domain.LeaderboardEntry, error) {
	return s.survival[tc], nil
}

func TestSyncReplacesBoard(t *testing.T) {
	b, _ := newTestBoard(t)
	ctx := context.Background()

	// stale entry that the store no longer knows about
	if err := b.UpdateRating(ctx, domain.TC5s, "gone", "gone", 3000); err != nil {
		t.Fatalf("UpdateRating: %v", err)
	}

	src := staticSource{
		ratings: map[domain.TimeControl][]domain.LeaderboardEntry{
			domain.TC5s: {
				{UserID: "u1", Username: "alice", Score: 1550},
				{UserID: "u2", Username: "bob", Score: 1480},
			},
		},
		survival: map[domain.TimeControl][]domain.LeaderboardEntry{
			domain.TC5s: {{UserID: "u2", Username: "bob", Score: 6}},
		},
	}
	s := NewSyncer(b, src, 0, nil)
	if err := s.Sync(ctx); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	entries, err := b.TopRatings(ctx, domain.TC5s, 0)
	if err != nil {
		t.Fatalf("TopRatings: %v", err)
	}
	if len(entries) != 2 || entries[0].UserID != "u1" {
		t.Fatalf("sync should drop stale rows: %+v", entries)
	}
	survival, err := b.TopSurvival(ctx, domain.TC5s, 0)
	if err != nil {
		t.Fatalf("TopSurvival: %v", err)
	}
	if len(survival) != 1 || survival[0].Score != 6 {
		t.Fatalf("unexpected survival board: %+v", survival)
	}
	if empty, _ := b.TopRatings(ctx, domain.TC300s, 0); len(empty) != 0 {
		t.Fatalf("empty source should leave an empty board, got %+v", empty)
	}
}
