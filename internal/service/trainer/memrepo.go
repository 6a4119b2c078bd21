package trainer

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/park285/eval-trainer-bot/internal/domain"
)

// memrepo is an in-memory Repository used when no database is configured and in tests.
type memrepo struct {
	mu  sync.RWMutex
	rnd *rand.Rand

	positions     []domain.Position              // insertion order
	positionIndex map[string]int                 // id -> index into positions
	posRatings    map[string]int                 // positionID|tc -> rating
	profiles      map[string]*domain.UserProfile // userID -> profile
}

func NewMemoryRepository() Repository {
	return &memrepo{
		rnd:           rand.New(rand.NewSource(time.Now().UnixNano())),
		positionIndex: make(map[string]int),
		posRatings:    make(map[string]int),
		profiles:      make(map[string]*domain.UserProfile),
	}
}

func (m *memrepo) ratingKey(id string, tc domain.TimeControl) string {
	return strings.TrimSpace(id) + "|" + strconv.Itoa(int(tc))
}

func (m *memrepo) withRating(p domain.Position, tc domain.TimeControl) *domain.Position {
	out := p
	out.Tags = append([]string(nil), p.Tags...)
	if r, ok := m.posRatings[m.ratingKey(p.ID, tc)]; ok {
		out.Rating = r
	} else {
		out.Rating = domain.DefaultRating
	}
	return &out
}

func (m *memrepo) RandomPosition(ctx context.Context, tc domain.TimeControl) (*domain.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.positions) == 0 {
		return nil, nil
	}
	return m.withRating(m.positions[m.rnd.Intn(len(m.positions))], tc), nil
}

func (m *memrepo) PositionInBand(ctx context.Context, min, max int, tc domain.TimeControl) (*domain.Position, error) {
	m.mu.Lock()
	var candidates []domain.Position
	for _, p := range m.positions {
		r, ok := m.posRatings[m.ratingKey(p.ID, tc)]
		if !ok {
			r = domain.DefaultRating
		}
		if r >= min && r <= max {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) == 0 {
		m.mu.Unlock()
		return m.RandomPosition(ctx, tc)
	}
	out := m.withRating(candidates[m.rnd.Intn(len(candidates))], tc)
	m.mu.Unlock()
	return out, nil
}

func (m *memrepo) WriteDifficultyRating(ctx context.Context, positionID string, tc domain.TimeControl, rating int) error {
	m.mu.Lock()
	m.posRatings[m.ratingKey(positionID, tc)] = rating
	m.mu.Unlock()
	return nil
}

func (m *memrepo) InsertPositions(ctx context.Context, positions []domain.Position) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range positions {
		cp := p
		cp.Tags = append([]string(nil), p.Tags...)
		if idx, ok := m.positionIndex[p.ID]; ok {
			m.positions[idx] = cp
		} else {
			m.positionIndex[p.ID] = len(m.positions)
			m.positions = append(m.positions, cp)
		}
		rating := p.Rating
		if rating == 0 {
			rating = domain.DefaultRating
		}
		for _, tc := range domain.TimeControls {
			key := m.ratingKey(p.ID, tc)
			if _, ok := m.posRatings[key]; !ok {
				m.posRatings[key] = rating
			}
		}
	}
	return len(positions), nil
}

func (m *memrepo) CountPositions(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.positions), nil
}

func copyProfile(p *domain.UserProfile) *domain.UserProfile {
	out := *p
	out.Ratings = make(map[domain.TimeControl]int, len(p.Ratings))
	for k, v := range p.Ratings {
		out.Ratings[k] = v
	}
	out.SurvivalBest = make(map[domain.TimeControl]int, len(p.SurvivalBest))
	for k, v := range p.SurvivalBest {
		out.SurvivalBest[k] = v
	}
	return &out
}

func (m *memrepo) EnsureProfile(ctx context.Context, userID, username string) (*domain.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		p = domain.NewUserProfile(userID, username, time.Now().UTC())
		m.profiles[userID] = p
	}
	return copyProfile(p), nil
}

func (m *memrepo) GetProfile(ctx context.Context, userID string) (*domain.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.profiles[userID]; ok {
		return copyProfile(p), nil
	}
	return nil, nil
}

func (m *memrepo) UserRating(ctx context.Context, userID string, tc domain.TimeControl) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profiles[userID].Rating(tc), nil
}

func (m *memrepo) WriteUserRating(ctx context.Context, userID string, tc domain.TimeControl, rating int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		p = domain.NewUserProfile(userID, "", time.Now().UTC())
		m.profiles[userID] = p
	}
	p.Ratings[tc] = rating
	return nil
}

func (m *memrepo) SurvivalBest(ctx context.Context, userID string, tc domain.TimeControl) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.profiles[userID]; ok {
		return p.SurvivalBest[tc], nil
	}
	return 0, nil
}

func (m *memrepo) WriteSurvivalBest(ctx context.Context, userID string, tc domain.TimeControl, score int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		p = domain.NewUserProfile(userID, "", time.Now().UTC())
		m.profiles[userID] = p
	}
	if score <= p.SurvivalBest[tc] {
		return false, nil
	}
	p.SurvivalBest[tc] = score
	return true, nil
}

func (m *memrepo) UpdateUsername(ctx context.Context, userID, username string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return ErrProfileNotFound
	}
	p.Username = username
	return nil
}

func (m *memrepo) UpdateSettings(ctx context.Context, userID string, settings domain.Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return ErrProfileNotFound
	}
	p.Settings = settings
	return nil
}

func (m *memrepo) ranked(tc domain.TimeControl, limit int, score func(*domain.UserProfile) int, keep func(int) bool) []domain.LeaderboardEntry {
	m.mu.RLock()
	entries := make([]domain.LeaderboardEntry, 0, len(m.profiles))
	for _, p := range m.profiles {
		s := score(p)
		if !keep(s) {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{UserID: p.UserID, Username: p.Username, Score: s})
	}
	m.mu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].UserID < entries[j].UserID
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

func (m *memrepo) Leaderboard(ctx context.Context, tc domain.TimeControl, limit int) ([]domain.LeaderboardEntry, error) {
	return m.ranked(tc, limit,
		func(p *domain.UserProfile) int { return p.Rating(tc) },
		func(int) bool { return true }), nil
}

func (m *memrepo) SurvivalLeaderboard(ctx context.Context, tc domain.TimeControl, limit int) ([]domain.LeaderboardEntry, error) {
	return m.ranked(tc, limit,
		func(p *domain.UserProfile) int { return p.SurvivalBest[tc] },
		func(s int) bool { return s > 0 }), nil
}

func (m *memrepo) Rank(ctx context.Context, userID string, tc domain.TimeControl) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mine := m.profiles[userID].Rating(tc)
	above := 0
	for _, p := range m.profiles {
		if p.Rating(tc) > mine {
			above++
		}
	}
	return above + 1, nil
}
