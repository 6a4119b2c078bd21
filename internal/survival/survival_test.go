package survival

import "testing"

func TestBandFor(t *testing.T) {
	if b := BandFor(0); b.Min != 1150 || b.Max != 1350 {
		t.Fatalf("BandFor(0) = %+v", b)
	}
	if b := BandFor(10); b.Center() != 1450 || b.Min != 1350 || b.Max != 1550 {
		t.Fatalf("BandFor(10) = %+v", b)
	}
	if b := BandFor(-3); b != BandFor(0) {
		t.Fatalf("negative counter should clamp, got %+v", b)
	}
	if !BandFor(0).Contains(1350) || BandFor(0).Contains(1351) {
		t.Fatalf("band bounds must be inclusive")
	}
}

func TestHealthLost(t *testing.T) {
	cases := []struct {
		err  float64
		want int
	}{
		{0, 0},
		{0.1, 0},
		{0.125, 0},
		{0.375, 250},
		{0.6255, 500},
		{1, 875},
		{-1, 0},
	}
	for _, c := range cases {
		if got := HealthLost(c.err); got != c.want {
			t.Fatalf("HealthLost(%v) = %d, want %d", c.err, got, c.want)
		}
	}
}

func TestRunGameOverAndFinalScore(t *testing.T) {
	r := NewRun()
	if r.Health != StartingHealth || r.ID == "" {
		t.Fatalf("unexpected new run: %+v", r)
	}

	// four guesses at 0.375 cost 250 each; the fifth finishes the run
	errs := []float64{0.05, 0.375, 0.375, 0.375, 0.375}
	for i, e := range errs {
		out := r.Record(e)
		if out.Health < 0 {
			t.Fatalf("health below zero at %d", i)
		}
		if out.HealthLost < 0 {
			t.Fatalf("negative health loss at %d", i)
		}
		if i < len(errs)-1 && out.GameOver {
			t.Fatalf("game over too early at guess %d (health %d)", i, out.Health)
		}
	}
	if !r.GameOver || r.Health != 0 {
		t.Fatalf("expected game over with zero health: %+v", r)
	}
	if r.PositionsEvaluated != 5 {
		t.Fatalf("positions evaluated = %d", r.PositionsEvaluated)
	}
	if got := r.FinalScore(); got != 4 {
		t.Fatalf("final score = %d, want 4", got)
	}

	out := r.Record(0.9)
	if !out.Ignored || r.PositionsEvaluated != 5 {
		t.Fatalf("record after game over must be ignored: %+v", out)
	}
}

func TestHealthFloorsAtZero(t *testing.T) {
	r := NewRun()
	r.Record(0.6) // 475
	r.Record(0.6) // 950
	out := r.Record(0.9)
	if out.Health != 0 || !out.GameOver {
		t.Fatalf("expected floor at zero: %+v", out)
	}
}

func TestFinalScoreWithoutGameOver(t *testing.T) {
	r := NewRun()
	if r.FinalScore() != 0 {
		t.Fatalf("fresh run score = %d", r.FinalScore())
	}
	r.Record(0)
	r.Record(0)
	if r.FinalScore() != 2 {
		t.Fatalf("abandoned run score = %d", r.FinalScore())
	}
}

func TestRestart(t *testing.T) {
	r := NewRun()
	id := r.ID
	r.Record(1)
	r.Record(1)
	if !r.GameOver {
		t.Fatalf("expected game over")
	}
	r.Restart()
	if r.GameOver || r.Health != StartingHealth || r.PositionsEvaluated != 0 || r.ID == id {
		t.Fatalf("restart did not reset: %+v", r)
	}
	if r.NextBand() != BandFor(0) {
		t.Fatalf("restart should return to the first band")
	}
}
