package survival

import "math"

const (
	BaseRating    = 1250
	RatingStep    = 20
	BandHalfWidth = 100

	StartingHealth  = 1000
	FreeErrorMargin = 0.125
	HealthScale     = 1000
)

// Band is an inclusive difficulty rating range.
type Band struct {
	Min int
	Max int
}

func (b Band) Center() int { return (b.Min + b.Max) / 2 }

func (b Band) Contains(rating int) bool { return rating >= b.Min && rating <= b.Max }

// BandFor returns the target band for the position after positionsEvaluated guesses.
func BandFor(positionsEvaluated int) Band {
	if positionsEvaluated < 0 {
		positionsEvaluated = 0
	}
	center := BaseRating + RatingStep*positionsEvaluated
	return Band{Min: center - BandHalfWidth, Max: center + BandHalfWidth}
}

// HealthLost truncates toward zero; errors within FreeErrorMargin cost nothing.
func HealthLost(guessErr float64) int {
	if math.IsNaN(guessErr) {
		return 0
	}
	margin := math.Max(guessErr-FreeErrorMargin, 0)
	return int(margin * HealthScale)
}
