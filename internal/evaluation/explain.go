package evaluation

import (
	"fmt"
	"math"
)

// Verdict is a coarse human label for an evaluation, keyed for the message catalog.
type Verdict string

const (
	VerdictBlackWinning     Verdict = "black_winning"
	VerdictBlackSignificant Verdict = "black_significant"
	VerdictBlackBetter      Verdict = "black_better"
	VerdictBlackSlightly    Verdict = "black_slightly"
	VerdictEqual            Verdict = "equal"
	VerdictWhiteSlightly    Verdict = "white_slightly"
	VerdictWhiteBetter      Verdict = "white_better"
	VerdictWhiteSignificant Verdict = "white_significant"
	VerdictWhiteWinning     Verdict = "white_winning"
)

func Explain(eval float64) Verdict {
	switch {
	case eval <= -2.5:
		return VerdictBlackWinning
	case eval <= -1.25:
		return VerdictBlackSignificant
	case eval <= -0.55:
		return VerdictBlackBetter
	case eval <= -0.25:
		return VerdictBlackSlightly
	case eval < 0.25:
		return VerdictEqual
	case eval < 0.55:
		return VerdictWhiteSlightly
	case eval < 1.25:
		return VerdictWhiteBetter
	case eval < 2.5:
		return VerdictWhiteSignificant
	default:
		return VerdictWhiteWinning
	}
}

// FormatPawns renders an evaluation with an explicit sign, e.g. +1.25.
func FormatPawns(eval float64) string {
	if math.Abs(eval) < 0.005 {
		return "0.00"
	}
	return fmt.Sprintf("%+.2f", eval)
}

// FormatPercent renders a probability as a percentage with one decimal.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.1f%%", ClampProbability(p)*100)
}
