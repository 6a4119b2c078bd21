package trainer

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/park285/eval-trainer-bot/internal/domain"
	"github.com/park285/eval-trainer-bot/internal/evaluation"
	"github.com/park285/eval-trainer-bot/internal/rating"
	"github.com/park285/eval-trainer-bot/internal/round"
	"github.com/park285/eval-trainer-bot/internal/survival"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound       = errors.New("trainer session not found")
	ErrRoundNotAwaitingGuess = errors.New("no position is awaiting a guess")
	ErrRoundNotSubmitted     = errors.New("current position has not been answered")
	ErrInvalidGuess          = errors.New("invalid evaluation guess")
	ErrNoPositions           = errors.New("no positions available")
	ErrRoomNotAllowed        = errors.New("trainer room not allowed")
	ErrGameOver              = errors.New("survival run is over")
	ErrNotSurvival           = errors.New("no survival run in progress")
	ErrInvalidUsername       = errors.New("invalid username")
)

const (
	defaultStoreTimeout     = 3 * time.Second
	defaultLeaderboardLimit = 30
	maxLeaderboardLimit     = 100
	usernameRuneLimit       = 24
)

type Mode string

const (
	ModePlay     Mode = "play"
	ModeSurvival Mode = "survival"
)

// Board is an optional fast leaderboard kept next to the repository.
type Board interface {
	UpdateRating(ctx context.Context, tc domain.TimeControl, userID, username string, rating int) error
	UpdateSurvival(ctx context.Context, tc domain.TimeControl, userID, username string, score int) error
	UpdateName(ctx context.Context, userID, username string) error
	TopRatings(ctx context.Context, tc domain.TimeControl, limit int) ([]domain.LeaderboardEntry, error)
	TopSurvival(ctx context.Context, tc domain.TimeControl, limit int) ([]domain.LeaderboardEntry, error)
}

// Notifier receives rounds that were scored by the countdown rather than by a command.
type Notifier func(room string, result *RoundResult)

type SessionMeta struct {
	Room   string
	Sender string
	// UserID is the chat platform id when available; Sender is used otherwise.
	UserID string
}

type sessionIdentity struct {
	Key      string
	UserID   string
	Username string
	Room     string
}

type Config struct {
	AllowedRooms       []string
	DefaultTimeControl domain.TimeControl
	Params             rating.Params
	StoreTimeout       time.Duration
	LeaderboardLimit   int
	Clock              round.Clock
}

// RoundView is what a user sees while a position is on the board.
type RoundView struct {
	Mode        Mode
	RoundID     string
	TimeControl domain.TimeControl
	Position    domain.Position
	Side        evaluation.Side
	State       round.State
	Remaining   int
	UserRating  int
	Settings    domain.Settings

	// survival only
	RunID              string
	Health             int
	PositionsEvaluated int
	Band               survival.Band
}

type SurvivalOutcome struct {
	survival.Outcome
	FinalScore int
	Best       int
	NewBest    bool
	// Persisted is false when the best-score write failed.
	Persisted  bool
}

type RoundResult struct {
	Mode            Mode
	TimeControl     domain.TimeControl
	Position        domain.Position
	Guess           round.Guess
	TrueProbability float64
	GuessError      float64
	Verdict         evaluation.Verdict
	Settings        domain.Settings

	// play only
	Exchange      *rating.Exchange
	RatingApplied bool
	Persisted     bool

	// survival only
	Survival *SurvivalOutcome
	Next     *RoundView
}

type StopSummary struct {
	Mode       Mode
	FinalScore int
	Best       int
	NewBest    bool
}

type ProfileView struct {
	Profile *domain.UserProfile
	Ranks   map[domain.TimeControl]int
}

type SettingsPatch struct {
	EvalDisplay   *domain.EvalDisplay
	UpdateRatings *bool
}

type session struct {
	mu sync.Mutex

	identity   sessionIdentity
	mode       Mode
	tc         domain.TimeControl
	round      *round.Round
	run        *survival.Run
	userRating int
	settings   domain.Settings
}

type Service struct {
	repo         Repository
	board        Board
	cfg          Config
	allowedRooms map[string]struct{}
	logger       *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session
	notifier Notifier
}

func NewService(repo Repository, board Board, cfg Config, logger *zap.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("trainer repository is required")
	}
	if cfg.DefaultTimeControl == 0 {
		cfg.DefaultTimeControl = domain.TC30s
	}
	if !cfg.DefaultTimeControl.Valid() {
		return nil, fmt.Errorf("default time control %d is not supported", cfg.DefaultTimeControl)
	}
	if cfg.Params == (rating.Params{}) {
		cfg.Params = rating.DefaultParams()
	}
	if cfg.StoreTimeout <= 0 {
		cfg.StoreTimeout = defaultStoreTimeout
	}
	if cfg.LeaderboardLimit <= 0 || cfg.LeaderboardLimit > maxLeaderboardLimit {
		cfg.LeaderboardLimit = defaultLeaderboardLimit
	}
	if cfg.Clock == nil {
		cfg.Clock = round.SystemClock()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	allowedRooms := make(map[string]struct{})
	for _, room := range cfg.AllowedRooms {
		normalized := strings.ToLower(strings.TrimSpace(room))
		if normalized == "" {
			continue
		}
		allowedRooms[normalized] = struct{}{}
	}

	return &Service{
		repo:         repo,
		board:        board,
		cfg:          cfg,
		allowedRooms: allowedRooms,
		logger:       logger,
		sessions:     make(map[string]*session),
	}, nil
}

// SetNotifier installs the callback used for countdown expiries.
func (s *Service) SetNotifier(n Notifier) {
	s.mu.Lock()
	s.notifier = n
	s.mu.Unlock()
}

func (s *Service) DefaultTimeControl() domain.TimeControl { return s.cfg.DefaultTimeControl }

// StartPlay replaces any running session of the user with a rated Play session.
func (s *Service) StartPlay(ctx context.Context, meta SessionMeta, tc domain.TimeControl) (*RoundView, error) {
	return s.start(ctx, meta, ModePlay, tc)
}

// StartSurvival replaces any running session of the user with a new survival run.
func (s *Service) StartSurvival(ctx context.Context, meta SessionMeta, tc domain.TimeControl) (*RoundView, error) {
	return s.start(ctx, meta, ModeSurvival, tc)
}

func (s *Service) start(ctx context.Context, meta SessionMeta, mode Mode, tc domain.TimeControl) (*RoundView, error) {
	if err := s.ensureRoomAllowed(meta); err != nil {
		return nil, err
	}
	if tc == 0 {
		tc = s.cfg.DefaultTimeControl
	}
	if !tc.Valid() {
		return nil, fmt.Errorf("%w %d", domain.ErrUnsupportedTimeControl, tc)
	}
	identity := deriveIdentity(meta)

	profile, err := s.repo.EnsureProfile(ctx, identity.UserID, identity.Username)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	sess := &session{
		identity:   identity,
		mode:       mode,
		tc:         tc,
		userRating: profile.Rating(tc),
		settings:   profile.Settings,
	}
	if mode == ModeSurvival {
		sess.run = survival.NewRun()
	}
	rd, err := round.New(round.Config{
		TimeControl: tc,
		Clock:       s.cfg.Clock,
		OnExpire:    func(g round.Guess) { s.handleExpire(sess, g) },
	})
	if err != nil {
		return nil, err
	}
	sess.round = rd

	if prev := s.swapSession(identity.Key, sess); prev != nil {
		s.teardown(ctx, prev)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if err := s.loadNextLocked(ctx, sess); err != nil {
		return nil, err
	}
	view := s.viewLocked(sess)
	s.logger.Info("trainer session started",
		zap.String("mode", string(mode)),
		zap.Int("time_control", int(tc)),
		zap.String("room", identity.Room),
		zap.String("position_id", view.Position.ID),
	)
	return view, nil
}

// Guess submits the user's answer for the position on the board.
func (s *Service) Guess(ctx context.Context, meta SessionMeta, input string) (*RoundResult, error) {
	parsed, err := ParseGuess(input)
	if err != nil {
		return nil, err
	}
	sess, err := s.lookup(meta)
	if err != nil {
		return nil, err
	}

	var accepted bool
	switch parsed.Kind {
	case GuessProbability:
		accepted = sess.round.SetProbability(parsed.Value)
	default:
		accepted = sess.round.SetEval(parsed.Value)
	}
	if !accepted {
		return nil, ErrRoundNotAwaitingGuess
	}
	g, ok := sess.round.Submit()
	if !ok {
		return nil, ErrRoundNotAwaitingGuess
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	if !stillCurrentLocked(sess, g) {
		return nil, ErrRoundNotAwaitingGuess
	}
	return s.scoreLocked(ctx, sess, g), nil
}

// Next loads the following position after a scored round, or retries a failed load.
func (s *Service) Next(ctx context.Context, meta SessionMeta) (*RoundView, error) {
	sess, err := s.lookup(meta)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if sess.run != nil && sess.run.GameOver {
		return nil, ErrGameOver
	}
	switch sess.round.State() {
	case round.StateAwaitingGuess:
		if sess.mode == ModeSurvival {
			return s.viewLocked(sess), nil
		}
		return nil, ErrRoundNotSubmitted
	case round.StateSubmitted:
		if err := sess.round.Continue(); err != nil {
			return nil, err
		}
	}
	if err := s.loadNextLocked(ctx, sess); err != nil {
		return nil, err
	}
	return s.viewLocked(sess), nil
}

// Restart resets a survival run after persisting its score.
func (s *Service) Restart(ctx context.Context, meta SessionMeta) (*RoundView, *SurvivalOutcome, error) {
	sess, err := s.lookup(meta)
	if err != nil {
		return nil, nil, err
	}
	if sess.mode != ModeSurvival {
		return nil, nil, ErrNotSurvival
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.round.Cancel()
	prev := s.persistSurvivalLocked(ctx, sess)
	sess.run.Restart()
	if err := s.loadNextLocked(ctx, sess); err != nil {
		return nil, prev, err
	}
	return s.viewLocked(sess), prev, nil
}

// Stop ends the user's session. Survival scores are persisted on the way out.
func (s *Service) Stop(ctx context.Context, meta SessionMeta) (*StopSummary, error) {
	identity := deriveIdentity(meta)
	s.mu.Lock()
	sess, ok := s.sessions[identity.Key]
	if ok {
		delete(s.sessions, identity.Key)
	}
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s.teardown(ctx, sess), nil
}

// Current reports the round on the board without changing it.
func (s *Service) Current(meta SessionMeta) (*RoundView, error) {
	sess, err := s.lookup(meta)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.viewLocked(sess), nil
}

func (s *Service) Profile(ctx context.Context, meta SessionMeta) (*ProfileView, error) {
	if err := s.ensureRoomAllowed(meta); err != nil {
		return nil, err
	}
	identity := deriveIdentity(meta)
	profile, err := s.repo.EnsureProfile(ctx, identity.UserID, identity.Username)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	ranks := make(map[domain.TimeControl]int, len(domain.TimeControls))
	for _, tc := range domain.TimeControls {
		rank, err := s.repo.Rank(ctx, identity.UserID, tc)
		if err != nil {
			s.logger.Warn("failed to compute trainer rank", zap.Error(err), zap.Int("time_control", int(tc)))
			continue
		}
		ranks[tc] = rank
	}
	return &ProfileView{Profile: profile, Ranks: ranks}, nil
}

func (s *Service) Leaderboard(ctx context.Context, tc domain.TimeControl, limit int) ([]domain.LeaderboardEntry, error) {
	if !tc.Valid() {
		return nil, fmt.Errorf("%w %d", domain.ErrUnsupportedTimeControl, tc)
	}
	limit = s.clampLimit(limit)
	if s.board != nil {
		entries, err := s.board.TopRatings(ctx, tc, limit)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
		if err != nil {
			s.logger.Warn("leaderboard cache read failed", zap.Error(err))
		}
	}
	return s.repo.Leaderboard(ctx, tc, limit)
}

func (s *Service) SurvivalLeaderboard(ctx context.Context, tc domain.TimeControl, limit int) ([]domain.LeaderboardEntry, error) {
	if !tc.Valid() {
		return nil, fmt.Errorf("%w %d", domain.ErrUnsupportedTimeControl, tc)
	}
	limit = s.clampLimit(limit)
	if s.board != nil {
		entries, err := s.board.TopSurvival(ctx, tc, limit)
		if err == nil && len(entries) > 0 {
			return entries, nil
		}
		if err != nil {
			s.logger.Warn("survival leaderboard cache read failed", zap.Error(err))
		}
	}
	return s.repo.SurvivalLeaderboard(ctx, tc, limit)
}

func (s *Service) SetUsername(ctx context.Context, meta SessionMeta, name string) (*domain.UserProfile, error) {
	if err := s.ensureRoomAllowed(meta); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > usernameRuneLimit {
		return nil, ErrInvalidUsername
	}
	identity := deriveIdentity(meta)
	if _, err := s.repo.EnsureProfile(ctx, identity.UserID, identity.Username); err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if err := s.repo.UpdateUsername(ctx, identity.UserID, name); err != nil {
		return nil, err
	}
	if s.board != nil {
		if err := s.board.UpdateName(ctx, identity.UserID, name); err != nil {
			s.logger.Warn("failed to update leaderboard name", zap.Error(err))
		}
	}
	return s.repo.GetProfile(ctx, identity.UserID)
}

func (s *Service) UpdateSettings(ctx context.Context, meta SessionMeta, patch SettingsPatch) (domain.Settings, error) {
	if err := s.ensureRoomAllowed(meta); err != nil {
		return domain.Settings{}, err
	}
	identity := deriveIdentity(meta)
	profile, err := s.repo.EnsureProfile(ctx, identity.UserID, identity.Username)
	if err != nil {
		return domain.Settings{}, fmt.Errorf("load profile: %w", err)
	}
	settings := profile.Settings
	if patch.EvalDisplay != nil {
		settings.EvalDisplay = *patch.EvalDisplay
	}
	if patch.UpdateRatings != nil {
		settings.UpdateRatings = *patch.UpdateRatings
	}
	if err := s.repo.UpdateSettings(ctx, identity.UserID, settings); err != nil {
		return domain.Settings{}, err
	}

	s.mu.Lock()
	sess := s.sessions[identity.Key]
	s.mu.Unlock()
	if sess != nil {
		sess.mu.Lock()
		sess.settings = settings
		sess.mu.Unlock()
	}
	return settings, nil
}

// Close cancels every running countdown.
func (s *Service) Close() {
	s.mu.Lock()
	sessions := make([]*session, 0, len(s.sessions))
	for k, sess := range s.sessions {
		sessions = append(sessions, sess)
		delete(s.sessions, k)
	}
	s.mu.Unlock()
	for _, sess := range sessions {
		sess.round.Cancel()
	}
}

func (s *Service) handleExpire(sess *session, g round.Guess) {
	s.mu.Lock()
	current := s.sessions[sess.identity.Key]
	notify := s.notifier
	s.mu.Unlock()
	if current != sess {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*s.cfg.StoreTimeout)
	defer cancel()

	sess.mu.Lock()
	if !stillCurrentLocked(sess, g) {
		sess.mu.Unlock()
		return
	}
	result := s.scoreLocked(ctx, sess, g)
	sess.mu.Unlock()

	s.logger.Info("round_expired",
		zap.String("room", sess.identity.Room),
		zap.String("round_id", g.RoundID),
		zap.Float64("guess_error", result.GuessError),
	)
	if notify != nil {
		notify(sess.identity.Room, result)
	}
}

// stillCurrentLocked rejects guesses frozen before a restart or stop replaced the round.
func stillCurrentLocked(sess *session, g round.Guess) bool {
	snap := sess.round.Snapshot()
	return snap.RoundID == g.RoundID && snap.State == round.StateSubmitted
}

func (s *Service) scoreLocked(ctx context.Context, sess *session, g round.Guess) *RoundResult {
	truth := evaluation.ToProbability(g.Position.Eval, g.Side)
	gerr := evaluation.GuessError(g.Probability, truth)

	result := &RoundResult{
		Mode:            sess.mode,
		TimeControl:     sess.tc,
		Position:        g.Position,
		Guess:           g,
		TrueProbability: truth,
		GuessError:      gerr,
		Verdict:         evaluation.Explain(g.Position.Eval),
		Settings:        sess.settings,
	}

	if sess.mode == ModeSurvival {
		s.scoreSurvivalLocked(ctx, sess, result)
		return result
	}

	ex := rating.Apply(sess.userRating, g.Position.Rating, gerr, s.cfg.Params)
	result.Exchange = &ex
	if !sess.settings.UpdateRatings {
		return result
	}
	result.RatingApplied = true
	sess.userRating = ex.UserAfter
	result.Position.Rating = ex.PositionAfter
	result.Persisted = s.persistExchange(ctx, sess, g.Position.ID, ex)
	return result
}

// persistExchange issues both rating writes. Failures are logged and never undo the local result.
func (s *Service) persistExchange(ctx context.Context, sess *session, positionID string, ex rating.Exchange) bool {
	wctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	ok := true
	if err := s.repo.WriteUserRating(wctx, sess.identity.UserID, sess.tc, ex.UserAfter); err != nil {
		ok = false
		s.logger.Warn("failed to persist user rating", zap.Error(err), zap.String("user_id", sess.identity.UserID))
	}
	if err := s.repo.WriteDifficultyRating(wctx, positionID, sess.tc, ex.PositionAfter); err != nil {
		ok = false
		s.logger.Warn("failed to persist position rating", zap.Error(err), zap.String("position_id", positionID))
	}
	if s.board != nil {
		if err := s.board.UpdateRating(wctx, sess.tc, sess.identity.UserID, sess.identity.Username, ex.UserAfter); err != nil {
			s.logger.Warn("failed to update rating leaderboard", zap.Error(err))
		}
	}
	return ok
}

func (s *Service) scoreSurvivalLocked(ctx context.Context, sess *session, result *RoundResult) {
	out := sess.run.Record(result.GuessError)
	so := &SurvivalOutcome{Outcome: out, FinalScore: sess.run.FinalScore()}
	result.Survival = so

	if out.GameOver {
		if persisted := s.persistSurvivalLocked(ctx, sess); persisted != nil {
			so.Best = persisted.Best
			so.NewBest = persisted.NewBest
			so.Persisted = persisted.Persisted
			result.Persisted = persisted.Persisted
		}
		return
	}

	if err := sess.round.Continue(); err != nil {
		return
	}
	if err := s.loadNextLocked(ctx, sess); err != nil {
		s.logger.Warn("failed to load next survival position", zap.Error(err), zap.String("run_id", sess.run.ID))
		return
	}
	result.Next = s.viewLocked(sess)
}

// persistSurvivalLocked writes the run's score when it beats the stored best.
func (s *Service) persistSurvivalLocked(ctx context.Context, sess *session) *SurvivalOutcome {
	if sess.run == nil {
		return nil
	}
	score := sess.run.FinalScore()
	out := &SurvivalOutcome{
		Outcome: survival.Outcome{
			Health:             sess.run.Health,
			PositionsEvaluated: sess.run.PositionsEvaluated,
			GameOver:           sess.run.GameOver,
		},
		FinalScore: score,
		Persisted:  true,
	}

	wctx, cancel := context.WithTimeout(ctx, s.cfg.StoreTimeout)
	defer cancel()

	if score > 0 {
		wrote, err := s.repo.WriteSurvivalBest(wctx, sess.identity.UserID, sess.tc, score)
		if err != nil {
			out.Persisted = false
			s.logger.Warn("failed to persist survival best", zap.Error(err), zap.String("run_id", sess.run.ID))
		}
		out.NewBest = wrote
		if wrote && s.board != nil {
			if err := s.board.UpdateSurvival(wctx, sess.tc, sess.identity.UserID, sess.identity.Username, score); err != nil {
				s.logger.Warn("failed to update survival leaderboard", zap.Error(err))
			}
		}
	}
	best, err := s.repo.SurvivalBest(wctx, sess.identity.UserID, sess.tc)
	if err != nil {
		s.logger.Warn("failed to read survival best", zap.Error(err))
		best = score
	}
	out.Best = best
	return out
}

func (s *Service) loadNextLocked(ctx context.Context, sess *session) error {
	var (
		pos *domain.Position
		err error
	)
	if sess.mode == ModeSurvival {
		band := sess.run.NextBand()
		pos, err = s.repo.PositionInBand(ctx, band.Min, band.Max, sess.tc)
	} else {
		pos, err = s.repo.RandomPosition(ctx, sess.tc)
	}
	if err != nil {
		return fmt.Errorf("fetch position: %w", err)
	}
	if pos == nil {
		return ErrNoPositions
	}
	return sess.round.Begin(*pos)
}

func (s *Service) viewLocked(sess *session) *RoundView {
	snap := sess.round.Snapshot()
	view := &RoundView{
		Mode:        sess.mode,
		RoundID:     snap.RoundID,
		TimeControl: sess.tc,
		Position:    snap.Position,
		Side:        evaluation.SideToMove(snap.Position.FEN),
		State:       snap.State,
		Remaining:   snap.Remaining,
		UserRating:  sess.userRating,
		Settings:    sess.settings,
	}
	if sess.run != nil {
		view.RunID = sess.run.ID
		view.Health = sess.run.Health
		view.PositionsEvaluated = sess.run.PositionsEvaluated
		view.Band = sess.run.NextBand()
	}
	return view
}

func (s *Service) teardown(ctx context.Context, sess *session) *StopSummary {
	sess.round.Cancel()
	sess.mu.Lock()
	defer sess.mu.Unlock()
	summary := &StopSummary{Mode: sess.mode}
	if sess.mode == ModeSurvival {
		if out := s.persistSurvivalLocked(ctx, sess); out != nil {
			summary.FinalScore = out.FinalScore
			summary.Best = out.Best
			summary.NewBest = out.NewBest
		}
	}
	return summary
}

func (s *Service) swapSession(key string, sess *session) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.sessions[key]
	s.sessions[key] = sess
	return prev
}

func (s *Service) lookup(meta SessionMeta) (*session, error) {
	if err := s.ensureRoomAllowed(meta); err != nil {
		return nil, err
	}
	identity := deriveIdentity(meta)
	s.mu.Lock()
	sess, ok := s.sessions[identity.Key]
	s.mu.Unlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *Service) clampLimit(limit int) int {
	if limit <= 0 {
		return s.cfg.LeaderboardLimit
	}
	if limit > maxLeaderboardLimit {
		return maxLeaderboardLimit
	}
	return limit
}

func (s *Service) ensureRoomAllowed(meta SessionMeta) error {
	if len(s.allowedRooms) == 0 {
		return nil
	}
	room := strings.ToLower(strings.TrimSpace(meta.Room))
	if room == "" {
		room = "unknown-room"
	}
	if _, ok := s.allowedRooms[room]; ok {
		return nil
	}
	s.logger.Info("trainer room access denied",
		zap.String("room", room),
		zap.String("sender", strings.TrimSpace(meta.Sender)),
	)
	return ErrRoomNotAllowed
}

// deriveIdentity keys sessions by room and user, and ratings by user alone.
func deriveIdentity(meta SessionMeta) sessionIdentity {
	room := strings.ToLower(strings.TrimSpace(meta.Room))
	user := strings.TrimSpace(meta.UserID)
	if user == "" {
		user = strings.ToLower(strings.TrimSpace(meta.Sender))
	}
	name := strings.TrimSpace(meta.Sender)
	if name == "" {
		name = "player"
	}
	userID := hashString("user:" + user)
	return sessionIdentity{
		Key:      hashString(room + ":" + user),
		UserID:   userID,
		Username: name,
		Room:     strings.TrimSpace(meta.Room),
	}
}

func hashString(value string) string {
	sum := sha256.Sum256([]byte(value))
	return hex.EncodeToString(sum[:])
}
