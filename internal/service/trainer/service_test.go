package trainer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/park285/eval-trainer-bot/internal/domain"
	"github.com/park285/eval-trainer-bot/internal/round"
)

type fakeTicker struct {
	ch chan time.Time
}

func (f *fakeTicker) C() <-chan time.Time { return f.ch }
func (f *fakeTicker) Stop()               {}

type fakeClock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
}

func (c *fakeClock) NewTicker(time.Duration) round.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTicker{ch: make(chan time.Time)}
	c.tickers = append(c.tickers, t)
	return t
}

func (c *fakeClock) last() *fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tickers[len(c.tickers)-1]
}

const (
	startFEN    = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"
	blackToMove = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1"
)

func newTestService(t *testing.T, cfg Config, positions ...domain.Position) (*Service, Repository, *fakeClock) {
	t.Helper()
	repo := NewMemoryRepository()
	if len(positions) == 0 {
		positions = []domain.Position{{ID: "even", FEN: startFEN, Eval: 0}}
	}
	if _, err := repo.InsertPositions(context.Background(), positions); err != nil {
		t.Fatalf("InsertPositions: %v", err)
	}
	clock := &fakeClock{}
	cfg.Clock = clock
	svc, err := NewService(repo, nil, cfg, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	t.Cleanup(svc.Close)
	return svc, repo, clock
}

var alice = SessionMeta{Room: "Lobby", Sender: "alice", UserID: "u-1"}

func TestPlayGuessExchangesRating(t *testing.T) {
	svc, repo, _ := newTestService(t, Config{})
	ctx := context.Background()

	view, err := svc.StartPlay(ctx, alice, domain.TC30s)
	if err != nil {
		t.Fatalf("StartPlay: %v", err)
	}
	if view.Remaining != 30 || view.State != round.StateAwaitingGuess || view.UserRating != domain.DefaultRating {
		t.Fatalf("unexpected view: %+v", view)
	}

	res, err := svc.Guess(ctx, alice, "0")
	if err != nil {
		t.Fatalf("Guess: %v", err)
	}
	if res.GuessError != 0 {
		t.Fatalf("expected exact guess, got error %v", res.GuessError)
	}
	if res.Exchange == nil || res.Exchange.UserAfter != 1514 || res.Exchange.PositionAfter != 1486 {
		t.Fatalf("unexpected exchange: %+v", res.Exchange)
	}
	if !res.RatingApplied || !res.Persisted {
		t.Fatalf("expected persisted rating, got %+v", res)
	}

	userID := deriveIdentity(alice).UserID
	if got, _ := repo.UserRating(ctx, userID, domain.TC30s); got != 1514 {
		t.Fatalf("stored user rating = %d", got)
	}
	if got, _ := repo.UserRating(ctx, userID, domain.TC60s); got != domain.DefaultRating {
		t.Fatalf("other time control should be untouched, got %d", got)
	}
	pos, _ := repo.RandomPosition(ctx, domain.TC30s)
	if pos.Rating != 1486 {
		t.Fatalf("stored position rating = %d", pos.Rating)
	}

	if _, err := svc.Guess(ctx, alice, "1"); !errors.Is(err, ErrRoundNotAwaitingGuess) {
		t.Fatalf("second guess should be rejected, got %v", err)
	}
}

func TestPlayNextRequiresAnswer(t *testing.T) {
	svc, _, _ := newTestService(t, Config{})
	ctx := context.Background()
	if _, err := svc.StartPlay(ctx, alice, domain.TC15s); err != nil {
		t.Fatalf("StartPlay: %v", err)
	}
	if _, err := svc.Next(ctx, alice); !errors.Is(err, ErrRoundNotSubmitted) {
		t.Fatalf("expected ErrRoundNotSubmitted, got %v", err)
	}
	if _, err := svc.Guess(ctx, alice, "55%"); err != nil {
		t.Fatalf("Guess: %v", err)
	}
	view, err := svc.Next(ctx, alice)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if view.State != round.StateAwaitingGuess || view.Remaining != 15 {
		t.Fatalf("unexpected next view: %+v", view)
	}
}

func TestSettingsDisableRatingUpdates(t *testing.T) {
	svc, repo, _ := newTestService(t, Config{})
	ctx := context.Background()
	off := false
	if _, err := svc.UpdateSettings(ctx, alice, SettingsPatch{UpdateRatings: &off}); err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if _, err := svc.StartPlay(ctx, alice, domain.TC30s); err != nil {
		t.Fatalf("StartPlay: %v", err)
	}
	res, err := svc.Guess(ctx, alice, "0")
	if err != nil {
		t.Fatalf("Guess: %v", err)
	}
	if res.RatingApplied || res.Exchange == nil || res.Exchange.Delta == 0 {
		t.Fatalf("expected an unapplied exchange, got %+v", res)
	}
	if got, _ := repo.UserRating(ctx, deriveIdentity(alice).UserID, domain.TC30s); got != domain.DefaultRating {
		t.Fatalf("rating should not change, got %d", got)
	}
}

func TestExpiryScoresAndNotifies(t *testing.T) {
	svc, _, clock := newTestService(t, Config{})
	done := make(chan *RoundResult, 1)
	svc.SetNotifier(func(room string, res *RoundResult) {
		if room != "Lobby" {
			t.Errorf("unexpected room %q", room)
		}
		done <- res
	})

	if _, err := svc.StartPlay(context.Background(), alice, domain.TC5s); err != nil {
		t.Fatalf("StartPlay: %v", err)
	}
	ticker := clock.last()
	for i := 0; i < 5; i++ {
		ticker.ch <- time.Now()
	}

	select {
	case res := <-done:
		if !res.Guess.TimedOut || res.Guess.Probability != 0.5 {
			t.Fatalf("expected a timed-out even guess, got %+v", res.Guess)
		}
		if res.Exchange == nil || res.Exchange.UserAfter != 1514 {
			t.Fatalf("unexpected exchange: %+v", res.Exchange)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expiry was not reported")
	}

	if _, err := svc.Guess(context.Background(), alice, "0"); !errors.Is(err, ErrRoundNotAwaitingGuess) {
		t.Fatalf("late guess should be rejected, got %v", err)
	}
}

func TestSurvivalRunEndsAndStoresBest(t *testing.T) {
	svc, repo, _ := newTestService(t, Config{})
	ctx := context.Background()

	view, err := svc.StartSurvival(ctx, alice, domain.TC30s)
	if err != nil {
		t.Fatalf("StartSurvival: %v", err)
	}
	if view.Health != 1000 || view.Band.Min != 1150 || view.Band.Max != 1350 {
		t.Fatalf("unexpected survival view: %+v", view)
	}

	var last *RoundResult
	for i := 0; i < 3; i++ {
		last, err = svc.Guess(ctx, alice, "99%")
		if err != nil {
			t.Fatalf("Guess %d: %v", i, err)
		}
		if last.Survival.HealthLost != 365 {
			t.Fatalf("guess %d lost %d health", i, last.Survival.HealthLost)
		}
		if i < 2 && last.Next == nil {
			t.Fatalf("guess %d should chain to the next position", i)
		}
	}
	if !last.Survival.GameOver || last.Survival.Health != 0 {
		t.Fatalf("expected game over, got %+v", last.Survival)
	}
	if last.Survival.FinalScore != 2 || !last.Survival.NewBest || last.Survival.Best != 2 {
		t.Fatalf("unexpected final outcome: %+v", last.Survival)
	}
	if last.Exchange != nil {
		t.Fatalf("survival must not exchange ratings")
	}
	if got, _ := repo.SurvivalBest(ctx, deriveIdentity(alice).UserID, domain.TC30s); got != 2 {
		t.Fatalf("stored best = %d", got)
	}
	if got, _ := repo.UserRating(ctx, deriveIdentity(alice).UserID, domain.TC30s); got != domain.DefaultRating {
		t.Fatalf("survival changed the rating to %d", got)
	}

	if _, err := svc.Next(ctx, alice); !errors.Is(err, ErrGameOver) {
		t.Fatalf("expected ErrGameOver, got %v", err)
	}

	view, prev, err := svc.Restart(ctx, alice)
	if err != nil {
		t.Fatalf("Restart: %v", err)
	}
	if prev == nil || prev.NewBest {
		t.Fatalf("restart should not rewrite an equal best: %+v", prev)
	}
	if view.Health != 1000 || view.PositionsEvaluated != 0 {
		t.Fatalf("restart did not reset the run: %+v", view)
	}
}

func TestStopPersistsAbandonedRun(t *testing.T) {
	svc, _, _ := newTestService(t, Config{})
	ctx := context.Background()
	if _, err := svc.StartSurvival(ctx, alice, domain.TC15s); err != nil {
		t.Fatalf("StartSurvival: %v", err)
	}
	for i := 0; i < 2; i++ {
		if _, err := svc.Guess(ctx, alice, "0"); err != nil {
			t.Fatalf("Guess: %v", err)
		}
	}
	summary, err := svc.Stop(ctx, alice)
	if err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if summary.FinalScore != 2 || !summary.NewBest || summary.Best != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if _, err := svc.Stop(ctx, alice); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRestartRequiresSurvival(t *testing.T) {
	svc, _, _ := newTestService(t, Config{})
	ctx := context.Background()
	if _, err := svc.StartPlay(ctx, alice, domain.TC30s); err != nil {
		t.Fatalf("StartPlay: %v", err)
	}
	if _, _, err := svc.Restart(ctx, alice); !errors.Is(err, ErrNotSurvival) {
		t.Fatalf("expected ErrNotSurvival, got %v", err)
	}
}

func TestBlackToMoveGuessUsesWhitePerspective(t *testing.T) {
	svc, _, _ := newTestService(t, Config{}, domain.Position{ID: "b1", FEN: blackToMove, Eval: 2})
	ctx := context.Background()
	view, err := svc.StartPlay(ctx, alice, domain.TC30s)
	if err != nil {
		t.Fatalf("StartPlay: %v", err)
	}
	if view.Side.String() != "black" {
		t.Fatalf("expected black to move, got %s", view.Side)
	}
	res, err := svc.Guess(ctx, alice, "+2")
	if err != nil {
		t.Fatalf("Guess: %v", err)
	}
	if res.GuessError > 1e-9 {
		t.Fatalf("matching eval should score zero error, got %v", res.GuessError)
	}
	if res.TrueProbability > 0.5 {
		t.Fatalf("black is worse here, got probability %v", res.TrueProbability)
	}
}

func TestRoomAllowList(t *testing.T) {
	svc, _, _ := newTestService(t, Config{AllowedRooms: []string{"lobby"}})
	ctx := context.Background()
	if _, err := svc.StartPlay(ctx, alice, 0); err != nil {
		t.Fatalf("allowed room rejected: %v", err)
	}
	other := SessionMeta{Room: "elsewhere", Sender: "bob"}
	if _, err := svc.StartPlay(ctx, other, 0); !errors.Is(err, ErrRoomNotAllowed) {
		t.Fatalf("expected ErrRoomNotAllowed, got %v", err)
	}
}

func TestStartWithoutPositions(t *testing.T) {
	repo := NewMemoryRepository()
	svc, err := NewService(repo, nil, Config{Clock: &fakeClock{}}, nil)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	defer svc.Close()
	if _, err := svc.StartPlay(context.Background(), alice, domain.TC30s); !errors.Is(err, ErrNoPositions) {
		t.Fatalf("expected ErrNoPositions, got %v", err)
	}
	if _, err := svc.StartPlay(context.Background(), alice, 7); err == nil {
		t.Fatalf("expected unsupported time control error")
	}
}

func TestSetUsernameAndLeaderboard(t *testing.T) {
	svc, _, _ := newTestService(t, Config{})
	ctx := context.Background()
	if _, err := svc.SetUsername(ctx, alice, "   "); !errors.Is(err, ErrInvalidUsername) {
		t.Fatalf("expected ErrInvalidUsername, got %v", err)
	}
	profile, err := svc.SetUsername(ctx, alice, "Alice")
	if err != nil {
		t.Fatalf("SetUsername: %v", err)
	}
	if profile.Username != "Alice" {
		t.Fatalf("username = %q", profile.Username)
	}

	if _, err := svc.StartPlay(ctx, alice, domain.TC30s); err != nil {
		t.Fatalf("StartPlay: %v", err)
	}
	if _, err := svc.Guess(ctx, alice, "0"); err != nil {
		t.Fatalf("Guess: %v", err)
	}
	bob := SessionMeta{Room: "Lobby", Sender: "bob"}
	if _, err := svc.Profile(ctx, bob); err != nil {
		t.Fatalf("Profile: %v", err)
	}

	entries, err := svc.Leaderboard(ctx, domain.TC30s, 0)
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 2 || entries[0].Username != "Alice" || entries[0].Score != 1514 || entries[0].Rank != 1 {
		t.Fatalf("unexpected leaderboard: %+v", entries)
	}

	view, err := svc.Profile(ctx, alice)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if view.Ranks[domain.TC30s] != 1 || view.Ranks[domain.TC60s] != 1 {
		t.Fatalf("unexpected ranks: %+v", view.Ranks)
	}
}
