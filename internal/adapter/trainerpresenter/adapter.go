package trainerpresenter

import (
	"github.com/park285/eval-trainer-bot/internal/domain"
	"github.com/park285/eval-trainer-bot/internal/material"
	svc "github.com/park285/eval-trainer-bot/internal/service/trainer"
	"github.com/park285/eval-trainer-bot/pkg/trainerdto"
)

func ToDTORound(v *svc.RoundView) *trainerdto.RoundState {
	if v == nil {
		return nil
	}
	out := &trainerdto.RoundState{
		RoundID:          v.RoundID,
		Mode:             string(v.Mode),
		TimeControl:      int(v.TimeControl),
		TimeControlLabel: v.TimeControl.Format(),
		FEN:              v.Position.FEN,
		Side:             v.Side.String(),
		Remaining:        v.Remaining,
		UserRating:       v.UserRating,
		PositionRating:   v.Position.Rating,
		EvalDisplay:      string(v.Settings.EvalDisplay),
	}
	if m, err := material.Balance(v.Position.FEN); err == nil {
		out.Material = m
	}
	if v.Mode == svc.ModeSurvival {
		out.Health = v.Health
		out.PositionsEvaluated = v.PositionsEvaluated
		out.BandMin = v.Band.Min
		out.BandMax = v.Band.Max
	}
	return out
}

func ToDTOResult(r *svc.RoundResult) *trainerdto.RoundResult {
	if r == nil {
		return nil
	}
	out := &trainerdto.RoundResult{
		Mode:            string(r.Mode),
		TimeControl:     int(r.TimeControl),
		PositionID:      r.Position.ID,
		FEN:             r.Position.FEN,
		TrueEval:        r.Position.Eval,
		TrueProbability: r.TrueProbability,
		GuessEval:       r.Guess.Eval,
		GuessProb:       r.Guess.Probability,
		GuessError:      r.GuessError,
		Verdict:         string(r.Verdict),
		TimedOut:        r.Guess.TimedOut,
		EvalDisplay:     string(r.Settings.EvalDisplay),
		RatingApplied:   r.RatingApplied,
		Persisted:       r.Persisted,
		Next:            ToDTORound(r.Next),
	}
	if ex := r.Exchange; ex != nil {
		out.HasExchange = true
		out.UserBefore = ex.UserBefore
		out.UserAfter = ex.UserAfter
		out.UserChange = ex.UserChange()
		out.PositionAfter = ex.PositionAfter
	}
	if s := r.Survival; s != nil {
		out.Survival = &trainerdto.SurvivalResult{
			HealthLost:         s.HealthLost,
			Health:             s.Health,
			PositionsEvaluated: s.PositionsEvaluated,
			GameOver:           s.GameOver,
			FinalScore:         s.FinalScore,
			Best:               s.Best,
			NewBest:            s.NewBest,
		}
	}
	return out
}

func ToDTOLeaderboard(kind string, tc domain.TimeControl, entries []domain.LeaderboardEntry) *trainerdto.Leaderboard {
	out := &trainerdto.Leaderboard{
		Kind:             kind,
		TimeControl:      int(tc),
		TimeControlLabel: tc.Format(),
		Entries:          make([]trainerdto.LeaderboardEntry, 0, len(entries)),
	}
	for _, e := range entries {
		out.Entries = append(out.Entries, trainerdto.LeaderboardEntry{
			Rank:     e.Rank,
			UserID:   e.UserID,
			Username: e.Username,
			Score:    e.Score,
		})
	}
	return out
}

func ToDTOProfile(v *svc.ProfileView) *trainerdto.Profile {
	if v == nil || v.Profile == nil {
		return nil
	}
	p := v.Profile
	out := &trainerdto.Profile{
		UserID:        p.UserID,
		Username:      p.Username,
		EvalDisplay:   string(p.Settings.EvalDisplay),
		UpdateRatings: p.Settings.UpdateRatings,
		CreatedAt:     p.CreatedAt,
	}
	for _, tc := range domain.TimeControls {
		out.Stats = append(out.Stats, trainerdto.TimeControlStats{
			TimeControl:      int(tc),
			TimeControlLabel: tc.Format(),
			Rating:           p.Rating(tc),
			Rank:             v.Ranks[tc],
			SurvivalBest:     p.SurvivalBest[tc],
		})
	}
	return out
}
