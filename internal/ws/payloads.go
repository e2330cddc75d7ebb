package ws

import "avatar_bot/internal/domain"

// Envelope is every server message. Data is set for MsgEvent only.
type Envelope struct {
	Type string        `json:"type"`
	Data *domain.Event `json:"data,omitempty"`
}

// client → server
type ClientMessage struct {
	Type string `json:"type"`
}
