package evaluation

import (
	"math"
	"strings"
)

const (
	DefaultSquish  = 0.5
	DefaultStretch = 2.0

	MinProbability = 0.001
	MaxProbability = 0.999
)

type Side int

const (
	White Side = iota
	Black
)

func (s Side) String() string {
	if s == Black {
		return "black"
	}
	return "white"
}

// SideToMove reads the active-color field of a FEN. Anything other than "b" is White.
func SideToMove(fen string) Side {
	fields := strings.Fields(fen)
	if len(fields) < 2 {
		return White
	}
	if fields[1] == "b" {
		return Black
	}
	return White
}

// ClampProbability keeps p inside [MinProbability, MaxProbability]. NaN maps to 0.5.
func ClampProbability(p float64) float64 {
	if math.IsNaN(p) {
		return 0.5
	}
	if p < MinProbability {
		return MinProbability
	}
	if p > MaxProbability {
		return MaxProbability
	}
	return p
}

// ToProbability maps a pawn evaluation to the side-to-move win probability.
func ToProbability(eval float64, side Side) float64 {
	return ToProbabilityWith(eval, side, DefaultSquish)
}

func ToProbabilityWith(eval float64, side Side, squish float64) float64 {
	if math.IsNaN(eval) {
		eval = 0
	}
	s := eval
	if side == Black {
		s = -eval
	}
	return ClampProbability(1 / (1 + math.Exp(-s*squish)))
}

// ToEval maps a side-to-move probability back to a pawn evaluation from White's view.
func ToEval(p float64, side Side) float64 {
	return ToEvalWith(p, side, DefaultStretch)
}

func ToEvalWith(p float64, side Side, stretch float64) float64 {
	p = ClampProbability(p)
	raw := -stretch * math.Log(1/p-1)
	if side == Black {
		return -raw
	}
	return raw
}

// GuessError is the absolute distance between two probabilities after clamping.
func GuessError(guess, truth float64) float64 {
	return math.Abs(ClampProbability(guess) - ClampProbability(truth))
}
