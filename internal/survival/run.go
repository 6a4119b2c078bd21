package survival

import (
	"github.com/google/uuid"
)

// Outcome describes what a single recorded guess did to the run.
type Outcome struct {
	HealthLost         int
	Health             int
	PositionsEvaluated int
	GameOver           bool
	// Ignored is set when the run was already over.
	Ignored bool
}

// Run is the depleting-health progression of one survival attempt.
type Run struct {
	ID                 string
	Health             int
	PositionsEvaluated int
	GameOver           bool
}

func NewRun() *Run {
	return &Run{ID: uuid.NewString(), Health: StartingHealth}
}

// NextBand is the rating band for the position about to be fetched.
func (r *Run) NextBand() Band { return BandFor(r.PositionsEvaluated) }

func (r *Run) Record(guessErr float64) Outcome {
	if r.GameOver {
		return Outcome{Health: r.Health, PositionsEvaluated: r.PositionsEvaluated, GameOver: true, Ignored: true}
	}
	lost := HealthLost(guessErr)
	r.PositionsEvaluated++
	r.Health -= lost
	if r.Health <= 0 {
		r.Health = 0
		r.GameOver = true
	}
	return Outcome{
		HealthLost:         lost,
		Health:             r.Health,
		PositionsEvaluated: r.PositionsEvaluated,
		GameOver:           r.GameOver,
	}
}

// FinalScore excludes the guess that ended the run. A run abandoned before game
// over scores every position it completed.
func (r *Run) FinalScore() int {
	score := r.PositionsEvaluated
	if r.GameOver {
		score--
	}
	if score < 0 {
		return 0
	}
	return score
}

func (r *Run) Restart() {
	r.ID = uuid.NewString()
	r.Health = StartingHealth
	r.PositionsEvaluated = 0
	r.GameOver = false
}
