package rating

import (
	"math"
	"testing"
)

func TestExpected(t *testing.T) {
	if got := Expected(1500, 1500, 400); got != 0.5 {
		t.Fatalf("Expected equal ratings = %v", got)
	}
	if got := Expected(1700, 1300, 400); math.Abs(got-10.0/11.0) > 1e-12 {
		t.Fatalf("Expected(1700,1300) = %v", got)
	}
	if got := Expected(1500, 1500, 0); got != 0.5 {
		t.Fatalf("non-positive scale should fall back, got %v", got)
	}
}

func TestDeltaBranches(t *testing.T) {
	p := DefaultParams()
	cases := []struct {
		name      string
		user, pos int
		guessErr  float64
		want      int
	}{
		{"bad guess equal ratings", 1500, 1500, 0.43, 17},
		{"good guess equal ratings", 1500, 1500, 0.03, -12},
		{"bad guess strong user", 1700, 1300, 0.43, 31},
		{"good guess strong user", 1700, 1300, 0.03, -2},
		{"exactly at offset", 1500, 1500, 0.18, -5},
	}
	for _, c := range cases {
		if got := Delta(c.user, c.pos, c.guessErr, p); got != c.want {
			t.Fatalf("%s: Delta = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestBoundaryRoutesToGoodGuess(t *testing.T) {
	p := DefaultParams()
	atOffset := Apply(1500, 1500, p.ErrorOffset, p)
	below := Apply(1500, 1500, p.ErrorOffset-0.0001, p)
	if !atOffset.GoodGuess || !below.GoodGuess {
		t.Fatalf("offset boundary must be a good guess: at=%+v below=%+v", atOffset, below)
	}
	if atOffset.Error != 0 {
		t.Fatalf("error at offset = %v", atOffset.Error)
	}
	if atOffset.UserChange() <= 0 {
		t.Fatalf("user should gain at the offset, change=%d", atOffset.UserChange())
	}
	above := Apply(1500, 1500, p.ErrorOffset+0.0001, p)
	if above.GoodGuess {
		t.Fatalf("just above offset must be a bad guess")
	}
}

func TestApplyIsZeroSum(t *testing.T) {
	p := DefaultParams()
	for user := 800; user <= 2400; user += 160 {
		for pos := 800; pos <= 2400; pos += 200 {
			for e := 0.0; e <= 1.0; e += 0.05 {
				x := Apply(user, pos, e, p)
				if x.UserAfter+x.PositionAfter != user+pos {
					t.Fatalf("not zero-sum: user=%d pos=%d err=%v -> %+v", user, pos, e, x)
				}
				if x.GoodGuess && x.Delta > 0 {
					t.Fatalf("good guess must not cost the user: %+v", x)
				}
				if !x.GoodGuess && x.Delta < 0 {
					t.Fatalf("bad guess must not reward the user: %+v", x)
				}
			}
		}
	}
}

func TestApplyAllowsNegativeRatings(t *testing.T) {
	x := Apply(10, 10, 1, DefaultParams())
	if x.UserAfter >= 0 {
		t.Fatalf("expected rating below zero, got %+v", x)
	}
	y := Apply(-50, 1500, 1, DefaultParams())
	if y.UserAfter+y.PositionAfter != -50+1500 {
		t.Fatalf("zero-sum violated for negative rating: %+v", y)
	}
}
