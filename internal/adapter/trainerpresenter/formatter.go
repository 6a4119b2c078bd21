package trainerpresenter

import (
	"errors"
	"strconv"
	"strings"

	"github.com/park285/eval-trainer-bot/internal/domain"
	"github.com/park285/eval-trainer-bot/internal/evaluation"
	"github.com/park285/eval-trainer-bot/internal/leaderboard"
	"github.com/park285/eval-trainer-bot/internal/msgcat"
	"github.com/park285/eval-trainer-bot/internal/round"
	svc "github.com/park285/eval-trainer-bot/internal/service/trainer"
	"github.com/park285/eval-trainer-bot/pkg/trainerdto"
)

// PrefixProvider exposes the Prefix that Kakao messages should use.
type PrefixProvider interface {
	Prefix() string
}

// Formatter renders trainer DTOs into Kakao-friendly text through the message catalog.
type Formatter struct {
	prefixProvider PrefixProvider
	cat            *msgcat.Catalog
}

func NewFormatter(provider PrefixProvider, cat *msgcat.Catalog) *Formatter {
	return &Formatter{prefixProvider: provider, cat: cat}
}

func (f *Formatter) Prefix() string {
	if f == nil || f.prefixProvider == nil {
		return ""
	}
	return strings.TrimSpace(f.prefixProvider.Prefix())
}

type prefixData struct{ Prefix string }

func (f *Formatter) Help() string {
	header := f.cat.Text("help.header", nil)
	body := f.cat.Text("help.body", prefixData{f.Prefix()})
	return withSeeMore(header, body)
}

func (f *Formatter) Round(state *trainerdto.RoundState) string {
	if state == nil {
		return ""
	}
	data := map[string]any{
		"TimeControl":    state.TimeControlLabel,
		"Side":           f.side(state.Side),
		"UserRating":     state.UserRating,
		"PositionRating": state.PositionRating,
		"Number":         state.PositionsEvaluated + 1,
		"Health":         state.Health,
		"BandMin":        state.BandMin,
		"BandMax":        state.BandMax,
	}
	key := "round.play"
	if state.Mode == string(svc.ModeSurvival) {
		key = "round.survival"
	}

	var sb strings.Builder
	sb.WriteString(f.cat.Text(key, data))
	sb.WriteString("\n")
	sb.WriteString(f.cat.Text("round.material", map[string]any{"Material": formatMaterial(state.Material)}))
	sb.WriteString("\n")
	sb.WriteString(f.cat.Text("round.fen", map[string]any{"FEN": state.FEN}))
	sb.WriteString("\n\n")
	sb.WriteString(f.cat.Text("round.instruction", map[string]any{
		"Prefix":    f.Prefix(),
		"Remaining": domain.FormatClock(state.Remaining),
	}))
	return sb.String()
}

func (f *Formatter) Result(res *trainerdto.RoundResult) string {
	if res == nil {
		return ""
	}
	side := evaluation.SideToMove(res.FEN)
	display := domain.EvalDisplay(res.EvalDisplay)

	var sb strings.Builder
	sb.WriteString(f.cat.Text("result.header", map[string]any{
		"TimedOut": res.TimedOut,
		"Truth":    formatEval(display, res.TrueEval, side),
		"Verdict":  f.cat.Text("verdict."+res.Verdict, nil),
	}))
	sb.WriteString("\n")
	sb.WriteString(f.cat.Text("result.guess", map[string]any{
		"Guess": formatEval(display, res.GuessEval, side),
		"Error": evaluation.FormatPercent(res.GuessError),
	}))

	if res.HasExchange {
		change := formatChange(res.UserChange)
		sb.WriteString("\n")
		if res.RatingApplied {
			sb.WriteString(f.cat.Text("result.rating", map[string]any{
				"UserAfter":     res.UserAfter,
				"Change":        change,
				"PositionAfter": res.PositionAfter,
			}))
			if !res.Persisted {
				sb.WriteString("\n")
				sb.WriteString(f.cat.Text("result.rating_unsaved", nil))
			}
		} else {
			sb.WriteString(f.cat.Text("result.rating_off", map[string]any{"Change": change}))
		}
	}

	if s := res.Survival; s != nil {
		sb.WriteString("\n")
		sb.WriteString(f.cat.Text("result.survival", map[string]any{"Lost": s.HealthLost, "Health": s.Health}))
		if s.GameOver {
			sb.WriteString("\n\n")
			sb.WriteString(f.cat.Text("survival.over", map[string]any{
				"Score":   s.FinalScore,
				"Best":    s.Best,
				"NewBest": s.NewBest,
				"Prefix":  f.Prefix(),
			}))
			return sb.String()
		}
		sb.WriteString("\n\n")
		if res.Next != nil {
			sb.WriteString(f.Round(res.Next))
		} else {
			sb.WriteString(f.cat.Text("survival.load_failed", prefixData{f.Prefix()}))
		}
		return sb.String()
	}

	sb.WriteString("\n\n")
	sb.WriteString(f.cat.Text("result.next", prefixData{f.Prefix()}))
	return sb.String()
}

func (f *Formatter) Stopped(mode string, score, best int, newBest bool) string {
	if mode == string(svc.ModeSurvival) {
		return f.cat.Text("survival.stopped", map[string]any{"Score": score, "Best": best, "NewBest": newBest})
	}
	return f.cat.Text("session.stopped", nil)
}

func (f *Formatter) Profile(p *trainerdto.Profile) string {
	if p == nil {
		return f.Error(svc.ErrProfileNotFound)
	}
	type row struct {
		TimeControl string
		Rating      int
		Rank        string
		Best        int
	}
	rows := make([]row, 0, len(p.Stats))
	for _, s := range p.Stats {
		rank := "-"
		if s.Rank > 0 {
			rank = strconv.Itoa(s.Rank)
		}
		rows = append(rows, row{TimeControl: s.TimeControlLabel, Rating: s.Rating, Rank: rank, Best: s.SurvivalBest})
	}
	header := f.cat.Text("profile.header", nil)
	body := f.cat.Text("profile.body", map[string]any{
		"Username": p.Username,
		"Display":  p.EvalDisplay,
		"Rated":    onOff(p.UpdateRatings),
		"Rows":     rows,
	})
	return withSeeMore(header, strings.TrimRight(body, "\n"))
}

func (f *Formatter) Leaderboard(lb *trainerdto.Leaderboard) string {
	if lb == nil {
		return ""
	}
	key := "leaderboard.rating_header"
	if lb.Kind == string(leaderboard.KindSurvival) {
		key = "leaderboard.survival_header"
	}
	header := f.cat.Text(key, map[string]any{"TimeControl": lb.TimeControlLabel})
	if len(lb.Entries) == 0 {
		return header + "\n" + f.cat.Text("leaderboard.empty", nil)
	}
	lines := make([]string, 0, len(lb.Entries))
	for _, e := range lb.Entries {
		name := strings.TrimSpace(e.Username)
		if name == "" {
			name = "?"
		}
		lines = append(lines, f.cat.Text("leaderboard.row", map[string]any{"Rank": e.Rank, "Username": name, "Score": e.Score}))
	}
	return withSeeMore(header, strings.Join(lines, "\n"))
}

func (f *Formatter) SettingsUpdated(s domain.Settings) string {
	return f.cat.Text("settings.updated", map[string]any{"Display": string(s.EvalDisplay), "Rated": onOff(s.UpdateRatings)})
}

func (f *Formatter) SettingsUsage() string {
	return f.cat.Text("settings.usage", prefixData{f.Prefix()})
}

func (f *Formatter) NameUpdated(name string) string {
	return f.cat.Text("name.updated", map[string]any{"Name": name})
}

// Error maps service errors onto user-facing text.
func (f *Formatter) Error(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, svc.ErrInvalidGuess):
		return f.cat.Text("error.invalid_guess", nil)
	case errors.Is(err, svc.ErrRoundNotAwaitingGuess):
		return f.cat.Text("error.not_awaiting", nil)
	case errors.Is(err, svc.ErrRoundNotSubmitted):
		return f.cat.Text("error.not_submitted", nil)
	case errors.Is(err, svc.ErrNoPositions):
		return f.cat.Text("error.no_positions", nil)
	case errors.Is(err, svc.ErrGameOver):
		return f.cat.Text("error.game_over", prefixData{f.Prefix()})
	case errors.Is(err, svc.ErrNotSurvival):
		return f.cat.Text("error.not_survival", nil)
	case errors.Is(err, svc.ErrSessionNotFound):
		return f.cat.Text("session.none", prefixData{f.Prefix()})
	case errors.Is(err, svc.ErrRoomNotAllowed):
		return f.cat.Text("error.room", nil)
	case errors.Is(err, svc.ErrInvalidUsername):
		return f.cat.Text("name.invalid", nil)
	case errors.Is(err, round.ErrInvalidTimeControl), errors.Is(err, domain.ErrUnsupportedTimeControl):
		return f.cat.Text("error.time_control", nil)
	default:
		return f.cat.Text("error.internal", nil)
	}
}

func (f *Formatter) side(s string) string {
	return f.cat.Text("side."+s, nil)
}

// formatEval shows a White-relative evaluation in the user's chosen unit.
func formatEval(display domain.EvalDisplay, eval float64, side evaluation.Side) string {
	if display == domain.EvalDisplaySigmoid {
		return evaluation.FormatPercent(evaluation.ToProbability(eval, side))
	}
	return evaluation.FormatPawns(eval)
}

func formatChange(delta int) string {
	switch {
	case delta > 0:
		return "▲" + strconv.Itoa(delta)
	case delta < 0:
		return "▼" + strconv.Itoa(-delta)
	default:
		return "±0"
	}
}

func formatMaterial(m int) string {
	if m > 0 {
		return "+" + strconv.Itoa(m)
	}
	return strconv.Itoa(m)
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
