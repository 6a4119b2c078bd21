package irisfast

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Egress sends replies to a room over HTTP or the WebSocket.
type Egress interface {
	SendText(ctx context.Context, room, message string) error
}

const (
	ModeHTTP = "http"
	ModeWS   = "ws"
	ModeAuto = "auto"
)

// NewEgress picks a transport. Auto prefers the WebSocket while it is connected
// and falls back to HTTP once per message.
func NewEgress(mode string, dryrun bool, c *Client, ws *WebSocket, logger *zap.Logger) Egress {
	if logger == nil {
		logger = zap.NewNop()
	}
	w := &wsEgress{ws: ws, dryrun: dryrun, logger: logger}
	h := &httpEgress{c: c, dryrun: dryrun, logger: logger}
	switch mode {
	case ModeWS:
		return w
	case ModeAuto:
		return &autoEgress{ws: w, http: h, logger: logger}
	default:
		return h
	}
}

type httpEgress struct {
	c      *Client
	dryrun bool
	logger *zap.Logger
}

func (h *httpEgress) SendText(ctx context.Context, room, message string) error {
	if h == nil || h.c == nil {
		return errors.New("http egress not available")
	}
	if h.dryrun {
		h.logger.Info("http_egress_dryrun", zap.String("room", room), zap.Int("len", len(message)))
		return nil
	}
	return h.c.SendMessage(ctx, room, message)
}

type wsEgress struct {
	ws     *WebSocket
	dryrun bool
	logger *zap.Logger
}

func (w *wsEgress) SendText(ctx context.Context, room, message string) error {
	if w == nil || w.ws == nil {
		return errors.New("ws egress not available")
	}
	if w.dryrun {
		w.logger.Info("ws_egress_dryrun", zap.String("room", room), zap.Int("len", len(message)))
		return nil
	}
	return w.ws.WriteJSON(ctx, &ReplyRequest{Type: "text", Room: room, Data: message})
}

func (w *wsEgress) available() bool {
	return w != nil && w.ws != nil && w.ws.Connected()
}

type autoEgress struct {
	ws     *wsEgress
	http   *httpEgress
	logger *zap.Logger
}

func (a *autoEgress) SendText(ctx context.Context, room, message string) error {
	if a.ws.available() {
		err := a.ws.SendText(ctx, room, message)
		if err == nil {
			return nil
		}
		a.logger.Warn("egress_fallback", zap.String("room", room), zap.Error(err))
	}
	return a.http.SendText(ctx, room, message)
}
