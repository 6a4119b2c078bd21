package trainer

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

type GuessKind int

const (
	// GuessEval is a pawn evaluation from White's point of view.
	GuessEval GuessKind = iota
	// GuessProbability is the win probability of the side to move.
	GuessProbability
)

type GuessInput struct {
	Kind  GuessKind
	Value float64
}

// ParseGuess accepts "+1.5", "-0.3", "0", "65%" and "65.5%". Out-of-range numbers are
// clamped later by the round; only non-numeric input is rejected.
func ParseGuess(raw string) (GuessInput, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, ",", ".")
	if s == "" {
		return GuessInput{}, ErrInvalidGuess
	}
	if strings.HasSuffix(s, "%") {
		v, err := parseNumber(strings.TrimSpace(strings.TrimSuffix(s, "%")))
		if err != nil {
			return GuessInput{}, err
		}
		return GuessInput{Kind: GuessProbability, Value: v / 100}, nil
	}
	v, err := parseNumber(s)
	if err != nil {
		return GuessInput{}, err
	}
	return GuessInput{Kind: GuessEval, Value: v}, nil
}

// parseNumber keeps overflowing literals such as "1e400" as ±Inf so the round saturates them.
// Spelled-out "inf" and "NaN" are text, not numbers.
func parseNumber(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return v, nil
		}
		return 0, ErrInvalidGuess
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, ErrInvalidGuess
	}
	return v, nil
}
