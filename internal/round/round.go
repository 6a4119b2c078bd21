package round

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/park285/eval-trainer-bot/internal/domain"
	"github.com/park285/eval-trainer-bot/internal/evaluation"
)

var (
	ErrInvalidTimeControl = errors.New("round requires a supported time control")
	ErrNotLoading         = errors.New("round is not loading")
	ErrNotSubmitted       = errors.New("round has not been submitted")
)

type State int

const (
	StateLoading State = iota
	StateAwaitingGuess
	StateSubmitted
)

func (s State) String() string {
	switch s {
	case StateAwaitingGuess:
		return "awaiting_guess"
	case StateSubmitted:
		return "submitted"
	default:
		return "loading"
	}
}

// Guess is the frozen input of a submitted round.
type Guess struct {
	RoundID     string
	Position    domain.Position
	Side        evaluation.Side
	Probability float64
	Eval        float64
	TimedOut    bool
	Remaining   int
}

type Snapshot struct {
	RoundID     string
	State       State
	TimeControl domain.TimeControl
	Position    domain.Position
	Remaining   int
	Probability float64
	Eval        float64
}

type Config struct {
	TimeControl domain.TimeControl
	Clock       Clock
	// OnExpire receives the guess auto-submitted when the countdown reaches zero.
	// It runs on the timer goroutine without the round lock held.
	OnExpire func(Guess)
}

// Round sequences one position: Loading -> AwaitingGuess -> Submitted -> Loading.
type Round struct {
	mu sync.Mutex

	tc       domain.TimeControl
	clock    Clock
	onExpire func(Guess)

	state     State
	id        string
	pos       domain.Position
	side      evaluation.Side
	remaining int
	prob      float64

	// gen invalidates ticks belonging to a cancelled or submitted countdown.
	gen  uint64
	stop chan struct{}
}

func New(cfg Config) (*Round, error) {
	if !cfg.TimeControl.Valid() {
		return nil, ErrInvalidTimeControl
	}
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock()
	}
	return &Round{
		tc:       cfg.TimeControl,
		clock:    clock,
		onExpire: cfg.OnExpire,
		state:    StateLoading,
		prob:     0.5,
	}, nil
}

func (r *Round) TimeControl() domain.TimeControl { return r.tc }

// Begin starts the countdown for pos. The guess resets to an even 0.5.
func (r *Round) Begin(pos domain.Position) error {
	r.mu.Lock()
	if r.state != StateLoading {
		r.mu.Unlock()
		return ErrNotLoading
	}
	r.gen++
	gen := r.gen
	r.id = uuid.NewString()
	r.pos = pos
	r.side = evaluation.SideToMove(pos.FEN)
	r.remaining = r.tc.Seconds()
	r.prob = 0.5
	r.state = StateAwaitingGuess

	ticker := r.clock.NewTicker(time.Second)
	stop := make(chan struct{})
	r.stop = stop
	r.mu.Unlock()

	go r.run(gen, ticker, stop)
	return nil
}

func (r *Round) run(gen uint64, ticker Ticker, stop <-chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			if r.tick(gen) {
				return
			}
		}
	}
}

// tick reports whether the countdown identified by gen is finished.
func (r *Round) tick(gen uint64) bool {
	r.mu.Lock()
	if gen != r.gen || r.state != StateAwaitingGuess {
		r.mu.Unlock()
		return true
	}
	if r.remaining > 0 {
		r.remaining--
	}
	if r.remaining > 0 {
		r.mu.Unlock()
		return false
	}
	g := r.submitLocked(true)
	cb := r.onExpire
	r.mu.Unlock()

	if cb != nil {
		cb(g)
	}
	return true
}

// SetProbability updates the side-to-move win probability guess.
func (r *Round) SetProbability(p float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateAwaitingGuess {
		return false
	}
	r.prob = evaluation.ClampProbability(p)
	return true
}

// SetEval updates the guess from a pawn evaluation seen from White.
func (r *Round) SetEval(eval float64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateAwaitingGuess {
		return false
	}
	r.prob = evaluation.ToProbability(eval, r.side)
	return true
}

// Submit freezes the guess. Only the first caller, or the timer, wins.
func (r *Round) Submit() (Guess, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateAwaitingGuess {
		return Guess{}, false
	}
	return r.submitLocked(false), true
}

func (r *Round) submitLocked(timedOut bool) Guess {
	r.state = StateSubmitted
	r.stopLocked()
	return Guess{
		RoundID:     r.id,
		Position:    r.pos,
		Side:        r.side,
		Probability: r.prob,
		Eval:        evaluation.ToEval(r.prob, r.side),
		TimedOut:    timedOut,
		Remaining:   r.remaining,
	}
}

func (r *Round) stopLocked() {
	r.gen++
	if r.stop != nil {
		close(r.stop)
		r.stop = nil
	}
}

// Continue moves a submitted round back to Loading.
func (r *Round) Continue() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state != StateSubmitted {
		return ErrNotSubmitted
	}
	r.state = StateLoading
	return nil
}

// Cancel stops any running countdown and returns to Loading. No tick acts after it returns.
func (r *Round) Cancel() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
	r.state = StateLoading
}

func (r *Round) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *Round) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		RoundID:     r.id,
		State:       r.state,
		TimeControl: r.tc,
		Position:    r.pos,
		Remaining:   r.remaining,
		Probability: r.prob,
		Eval:        evaluation.ToEval(r.prob, r.side),
	}
}
