package domain

import "time"

// DefaultRating seeds both user ratings and position difficulty ratings.
const DefaultRating = 1500

// Position is one evaluation puzzle. Eval is in pawns, positive favoring White.
// Rating is the difficulty rating for the time control it was fetched under.
type Position struct {
	ID     string
	FEN    string
	Eval   float64
	Rating int
	Tags   []string
}

// EvalCP returns the stored centipawn value.
func (p Position) EvalCP() int {
	if p.Eval >= 0 {
		return int(p.Eval*100 + 0.5)
	}
	return int(p.Eval*100 - 0.5)
}

// EvalFromCP converts a stored centipawn value to pawns.
func EvalFromCP(cp int) float64 {
	return float64(cp) / 100
}

type EvalDisplay string

const (
	EvalDisplayRaw     EvalDisplay = "raw"
	EvalDisplaySigmoid EvalDisplay = "sigmoid"
)

func ParseEvalDisplay(s string) (EvalDisplay, bool) {
	switch EvalDisplay(s) {
	case EvalDisplayRaw, "pawns", "cp":
		return EvalDisplayRaw, true
	case EvalDisplaySigmoid, "percent", "prob":
		return EvalDisplaySigmoid, true
	default:
		return "", false
	}
}

// Settings are per-user presentation and scoring toggles.
type Settings struct {
	EvalDisplay   EvalDisplay
	UpdateRatings bool
}

func DefaultSettings() Settings {
	return Settings{EvalDisplay: EvalDisplayRaw, UpdateRatings: true}
}

// UserProfile holds one independent rating and survival best per time control.
type UserProfile struct {
	UserID       string
	Username     string
	Settings     Settings
	Ratings      map[TimeControl]int
	SurvivalBest map[TimeControl]int
	CreatedAt    time.Time
}

// NewUserProfile returns a profile with every time control at DefaultRating.
func NewUserProfile(userID, username string, now time.Time) *UserProfile {
	p := &UserProfile{
		UserID:       userID,
		Username:     username,
		Settings:     DefaultSettings(),
		Ratings:      make(map[TimeControl]int, len(TimeControls)),
		SurvivalBest: make(map[TimeControl]int, len(TimeControls)),
		CreatedAt:    now,
	}
	for _, tc := range TimeControls {
		p.Ratings[tc] = DefaultRating
		p.SurvivalBest[tc] = 0
	}
	return p
}

func (p *UserProfile) Rating(tc TimeControl) int {
	if p == nil {
		return DefaultRating
	}
	if r, ok := p.Ratings[tc]; ok {
		return r
	}
	return DefaultRating
}

type LeaderboardEntry struct {
	Rank     int
	UserID   string
	Username string
	Score    int
}
