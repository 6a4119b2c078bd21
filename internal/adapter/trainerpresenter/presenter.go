package trainerpresenter

import (
	"strings"

	"github.com/park285/eval-trainer-bot/pkg/trainerdto"
)

// Presenter delivers formatted trainer messages without coupling to the command layer.
type Presenter struct {
	formatter   *Formatter
	sendMessage func(room, message string) error
}

func NewPresenter(formatter *Formatter, sendMessage func(room, message string) error) *Presenter {
	return &Presenter{formatter: formatter, sendMessage: sendMessage}
}

func (p *Presenter) Formatter() *Formatter { return p.formatter }

// Text sends message as-is. Blank messages are dropped.
func (p *Presenter) Text(room, message string) error {
	if p == nil || p.sendMessage == nil || strings.TrimSpace(message) == "" {
		return nil
	}
	return p.sendMessage(room, message)
}

func (p *Presenter) Round(room string, state *trainerdto.RoundState) error {
	return p.Text(room, p.formatter.Round(state))
}

func (p *Presenter) Result(room string, res *trainerdto.RoundResult) error {
	return p.Text(room, p.formatter.Result(res))
}

func (p *Presenter) Error(room string, err error) error {
	return p.Text(room, p.formatter.Error(err))
}
