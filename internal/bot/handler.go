// Package bot routes chat commands to the trainer service and replies through an egress.
package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/park285/eval-trainer-bot/internal/adapter/trainerpresenter"
	"github.com/park285/eval-trainer-bot/internal/domain"
	"github.com/park285/eval-trainer-bot/internal/irisfast"
	"github.com/park285/eval-trainer-bot/internal/leaderboard"
	svc "github.com/park285/eval-trainer-bot/internal/service/trainer"
)

var commandWords = map[string]bool{"평가": true, "eval": true}

type Handler struct {
	prefix    string
	service   *svc.Service
	presenter *trainerpresenter.Presenter
	timeout   time.Duration
	logger    *zap.Logger
}

// New wires the presenter to egress. The service notifier is installed here so countdown
// expiries reach the room that started the round.
func New(prefix string, service *svc.Service, formatter *trainerpresenter.Formatter, egress irisfast.Egress, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{prefix: strings.TrimSpace(prefix), service: service, timeout: 10 * time.Second, logger: logger}
	h.presenter = trainerpresenter.NewPresenter(formatter, func(room, message string) error {
		ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
		defer cancel()
		return egress.SendText(ctx, room, message)
	})
	service.SetNotifier(h.notifyExpired)
	return h
}

// Matches reports whether text is addressed to this bot.
func (h *Handler) Matches(text string) bool {
	rest, ok := strings.CutPrefix(strings.TrimSpace(text), h.prefix)
	if !ok {
		return false
	}
	fields := strings.Fields(rest)
	return len(fields) > 0 && commandWords[strings.ToLower(fields[0])]
}

// Handle runs one chat command. Replies are best-effort; send failures are logged.
func (h *Handler) Handle(ctx context.Context, msg *irisfast.Message) {
	if msg == nil || !h.Matches(msg.Msg) {
		return
	}
	rest := strings.TrimPrefix(strings.TrimSpace(msg.Msg), h.prefix)
	args := strings.Fields(rest)[1:]
	meta := svc.SessionMeta{Room: msg.Room, Sender: msg.SenderName(), UserID: msg.UserID()}

	if err := h.dispatch(ctx, meta, args); err != nil {
		if !isUserError(err) {
			h.logger.Warn("trainer_command_failed", zap.String("room", meta.Room), zap.Strings("args", args), zap.Error(err))
		}
		h.send(meta.Room, h.presenter.Formatter().Error(err))
	}
}

func (h *Handler) dispatch(ctx context.Context, meta svc.SessionMeta, args []string) error {
	f := h.presenter.Formatter()
	if len(args) == 0 {
		h.send(meta.Room, f.Help())
		return nil
	}
	sub := strings.ToLower(args[0])
	rest := args[1:]

	switch sub {
	case "도움말", "help":
		h.send(meta.Room, f.Help())
	case "시작", "play":
		tc, err := h.timeControlArg(rest)
		if err != nil {
			return err
		}
		view, err := h.service.StartPlay(ctx, meta, tc)
		if err != nil {
			return err
		}
		h.send(meta.Room, f.Round(trainerpresenter.ToDTORound(view)))
	case "서바이벌", "survival":
		tc, err := h.timeControlArg(rest)
		if err != nil {
			return err
		}
		view, err := h.service.StartSurvival(ctx, meta, tc)
		if err != nil {
			return err
		}
		h.send(meta.Room, f.Round(trainerpresenter.ToDTORound(view)))
	case "다음", "next":
		view, err := h.service.Next(ctx, meta)
		if err != nil {
			return err
		}
		h.send(meta.Room, f.Round(trainerpresenter.ToDTORound(view)))
	case "현황", "status":
		view, err := h.service.Current(meta)
		if err != nil {
			return err
		}
		h.send(meta.Room, f.Round(trainerpresenter.ToDTORound(view)))
	case "재시작", "restart":
		view, prev, err := h.service.Restart(ctx, meta)
		if prev != nil && !prev.GameOver {
			h.send(meta.Room, f.Stopped(string(svc.ModeSurvival), prev.FinalScore, prev.Best, prev.NewBest))
		}
		if err != nil {
			return err
		}
		h.send(meta.Room, f.Round(trainerpresenter.ToDTORound(view)))
	case "종료", "stop":
		summary, err := h.service.Stop(ctx, meta)
		if err != nil {
			return err
		}
		h.send(meta.Room, f.Stopped(string(summary.Mode), summary.FinalScore, summary.Best, summary.NewBest))
	case "프로필", "profile":
		view, err := h.service.Profile(ctx, meta)
		if err != nil {
			return err
		}
		h.send(meta.Room, f.Profile(trainerpresenter.ToDTOProfile(view)))
	case "랭킹", "top":
		tc, err := h.timeControlArg(rest)
		if err != nil {
			return err
		}
		entries, err := h.service.Leaderboard(ctx, tc, 0)
		if err != nil {
			return err
		}
		h.send(meta.Room, f.Leaderboard(trainerpresenter.ToDTOLeaderboard(string(leaderboard.KindRating), tc, entries)))
	case "서바이벌랭킹", "survivaltop":
		tc, err := h.timeControlArg(rest)
		if err != nil {
			return err
		}
		entries, err := h.service.SurvivalLeaderboard(ctx, tc, 0)
		if err != nil {
			return err
		}
		h.send(meta.Room, f.Leaderboard(trainerpresenter.ToDTOLeaderboard(string(leaderboard.KindSurvival), tc, entries)))
	case "닉네임", "name":
		profile, err := h.service.SetUsername(ctx, meta, strings.Join(rest, " "))
		if err != nil {
			return err
		}
		h.send(meta.Room, f.NameUpdated(profile.Username))
	case "설정", "settings":
		patch, ok := parseSettings(rest)
		if !ok {
			h.send(meta.Room, f.SettingsUsage())
			return nil
		}
		settings, err := h.service.UpdateSettings(ctx, meta, patch)
		if err != nil {
			return err
		}
		h.send(meta.Room, f.SettingsUpdated(settings))
	default:
		// Anything else is a guess; "평가 + 1.5" is joined back into one token.
		res, err := h.service.Guess(ctx, meta, strings.Join(args, ""))
		if err != nil {
			return err
		}
		h.send(meta.Room, f.Result(trainerpresenter.ToDTOResult(res)))
	}
	return nil
}

func (h *Handler) timeControlArg(args []string) (domain.TimeControl, error) {
	if len(args) == 0 {
		return h.service.DefaultTimeControl(), nil
	}
	return domain.ParseTimeControl(args[0])
}

func (h *Handler) notifyExpired(room string, result *svc.RoundResult) {
	if err := h.presenter.Result(room, trainerpresenter.ToDTOResult(result)); err != nil {
		h.logger.Warn("expiry_notify_failed", zap.String("room", room), zap.Error(err))
	}
}

func (h *Handler) send(room, text string) {
	if err := h.presenter.Text(room, text); err != nil {
		h.logger.Warn("reply_failed", zap.String("room", room), zap.Error(err))
	}
}

func parseSettings(args []string) (svc.SettingsPatch, bool) {
	if len(args) != 2 {
		return svc.SettingsPatch{}, false
	}
	value := strings.ToLower(args[1])
	switch strings.ToLower(args[0]) {
	case "표시", "display":
		d, ok := domain.ParseEvalDisplay(value)
		if !ok {
			return svc.SettingsPatch{}, false
		}
		return svc.SettingsPatch{EvalDisplay: &d}, true
	case "레이팅", "elo", "rating":
		on, ok := parseOnOff(value)
		if !ok {
			return svc.SettingsPatch{}, false
		}
		return svc.SettingsPatch{UpdateRatings: &on}, true
	}
	return svc.SettingsPatch{}, false
}

func parseOnOff(v string) (bool, bool) {
	switch v {
	case "on", "켜기":
		return true, true
	case "off", "끄기":
		return false, true
	}
	b, err := strconv.ParseBool(v)
	return b, err == nil
}

var userErrors = []error{
	svc.ErrInvalidGuess,
	svc.ErrRoundNotAwaitingGuess,
	svc.ErrRoundNotSubmitted,
	svc.ErrSessionNotFound,
	svc.ErrRoomNotAllowed,
	svc.ErrGameOver,
	svc.ErrNotSurvival,
	svc.ErrInvalidUsername,
	domain.ErrUnsupportedTimeControl,
}

func isUserError(err error) bool {
	for _, target := range userErrors {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
