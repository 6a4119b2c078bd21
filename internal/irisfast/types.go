package irisfast

import "strings"

// Message is one chat event pushed by the Iris bridge.
type Message struct {
	Msg    string       `json:"msg"`
	Room   string       `json:"room"`
	Sender *string      `json:"sender,omitempty"`
	JSON   *MessageJSON `json:"json,omitempty"`
}

type MessageJSON struct {
	UserID    string `json:"user_id,omitempty"`
	ChatID    string `json:"chat_id,omitempty"`
	MessageID string `json:"message_id,omitempty"`
}

// SenderName is the display name, falling back to "player".
func (m *Message) SenderName() string {
	if m != nil && m.Sender != nil && strings.TrimSpace(*m.Sender) != "" {
		return strings.TrimSpace(*m.Sender)
	}
	return "player"
}

// UserID is the platform user id when the bridge provides one.
func (m *Message) UserID() string {
	if m == nil || m.JSON == nil {
		return ""
	}
	return strings.TrimSpace(m.JSON.UserID)
}

type WebSocketState int

const (
	WSStateDisconnected WebSocketState = iota
	WSStateConnecting
	WSStateConnected
	WSStateReconnecting
	WSStateFailed
)

func (s WebSocketState) String() string {
	switch s {
	case WSStateConnecting:
		return "connecting"
	case WSStateConnected:
		return "connected"
	case WSStateReconnecting:
		return "reconnecting"
	case WSStateFailed:
		return "failed"
	default:
		return "disconnected"
	}
}

// Config is the bridge's /config payload.
type Config struct {
	Port              int    `json:"bot_http_port"`
	PollingSpeed      int    `json:"db_polling_rate"`
	MessageRate       int    `json:"message_send_rate"`
	WebserverEndpoint string `json:"web_server_endpoint"`
}

type ReplyRequest struct {
	Type string `json:"type"`
	Room string `json:"room"`
	Data string `json:"data"`
}
