package evaluation

import (
	"math"
	"testing"
)

func TestSideToMove(t *testing.T) {
	cases := map[string]Side{
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1": Black,
		"rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1":    White,
		"":                   White,
		"garbage":            White,
		"8/8/8/8/8/8/8/8 x":  White,
		"8/8/8/8/8/8/8/8  B": White,
		"8/8/8/8/8/8/8/8  b": Black,
	}
	for fen, want := range cases {
		if got := SideToMove(fen); got != want {
			t.Fatalf("SideToMove(%q) = %v, want %v", fen, got, want)
		}
	}
}

func TestToProbabilityKnownValues(t *testing.T) {
	if got := ToProbability(0, White); got != 0.5 {
		t.Fatalf("ToProbability(0) = %v", got)
	}
	if got := ToProbability(2, White); math.Abs(got-0.7310585786) > 1e-6 {
		t.Fatalf("ToProbability(2, White) = %v", got)
	}
	if got := ToProbability(2, Black); math.Abs(got-0.2689414214) > 1e-6 {
		t.Fatalf("ToProbability(2, Black) = %v", got)
	}
	if got := ToProbability(100, White); got != MaxProbability {
		t.Fatalf("expected clamp to max, got %v", got)
	}
	if got := ToProbability(-100, White); got != MinProbability {
		t.Fatalf("expected clamp to min, got %v", got)
	}
	if got := ToProbability(math.NaN(), White); got != 0.5 {
		t.Fatalf("NaN eval should map to 0.5, got %v", got)
	}
}

func TestRoundTrip(t *testing.T) {
	for _, side := range []Side{White, Black} {
		for x := -8.0; x <= 8.0; x += 0.25 {
			got := ToEval(ToProbability(x, side), side)
			if math.Abs(got-x) > 1e-9 {
				t.Fatalf("round trip side=%v x=%v got %v", side, x, got)
			}
		}
	}
}

func TestMonotonicity(t *testing.T) {
	prevW, prevB := -1.0, 2.0
	for x := -8.0; x <= 8.0; x += 0.5 {
		w := ToProbability(x, White)
		b := ToProbability(x, Black)
		if w <= prevW {
			t.Fatalf("white not strictly increasing at %v", x)
		}
		if b >= prevB {
			t.Fatalf("black not strictly decreasing at %v", x)
		}
		prevW, prevB = w, b
	}
}

func TestToEvalClampsDomain(t *testing.T) {
	for _, p := range []float64{-1, 0, 1, 2, math.NaN(), math.Inf(1)} {
		v := ToEval(p, White)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("ToEval(%v) produced %v", p, v)
		}
	}
	if ToEval(0.5, Black) != 0 {
		t.Fatalf("ToEval(0.5) should be 0")
	}
}

func TestGuessError(t *testing.T) {
	if got := GuessError(0.7, 0.5); math.Abs(got-0.2) > 1e-12 {
		t.Fatalf("GuessError = %v", got)
	}
	if got := GuessError(-3, 0.5); math.Abs(got-0.499) > 1e-12 {
		t.Fatalf("GuessError clamps inputs, got %v", got)
	}
}

func TestExplainThresholds(t *testing.T) {
	cases := []struct {
		eval float64
		want Verdict
	}{
		{-3, VerdictBlackWinning},
		{-2.5, VerdictBlackWinning},
		{-1.25, VerdictBlackSignificant},
		{-0.55, VerdictBlackBetter},
		{-0.25, VerdictBlackSlightly},
		{-0.2, VerdictEqual},
		{0.24, VerdictEqual},
		{0.25, VerdictWhiteSlightly},
		{0.55, VerdictWhiteBetter},
		{1.25, VerdictWhiteSignificant},
		{2.5, VerdictWhiteWinning},
	}
	for _, c := range cases {
		if got := Explain(c.eval); got != c.want {
			t.Fatalf("Explain(%v) = %s, want %s", c.eval, got, c.want)
		}
	}
}

func TestFormatPawns(t *testing.T) {
	if got := FormatPawns(1.5); got != "+1.50" {
		t.Fatalf("FormatPawns(1.5) = %q", got)
	}
	if got := FormatPawns(-0.3); got != "-0.30" {
		t.Fatalf("FormatPawns(-0.3) = %q", got)
	}
	if got := FormatPawns(0); got != "0.00" {
		t.Fatalf("FormatPawns(0) = %q", got)
	}
	if got := FormatPercent(0.5); got != "50.0%" {
		t.Fatalf("FormatPercent(0.5) = %q", got)
	}
}
