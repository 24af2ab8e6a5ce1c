package chat

import "time"

// Wire event names predate this service and are kept for client
// compatibility: clients submit NEW_MESSAGE frames, the server pushes
// SEND_MESSAGE frames.
const (
	eventNewMessage  = "NEW_MESSAGE"
	eventSendMessage = "SEND_MESSAGE"
)

// UserRef is the display shape of a participant inside envelopes. IDs are
// public ids, never storage keys.
type UserRef struct {
	ID         string `json:"id"`
	Username   string `json:"username,omitempty"`
	AvatarPath string `json:"avatar_path,omitempty"`
}

// InboundEnvelope is what a connected client sends to deliver a chat
// message. CreatedAt is advisory; the server assigns the real timestamp.
type InboundEnvelope struct {
	Type           string  `json:"type"`
	ConversationID string  `json:"conversationId"`
	Sender         UserRef `json:"sender"`
	Receiver       UserRef `json:"receiver"`
	Text           string  `json:"text"`
	CreatedAt      string  `json:"createdAt"`
}

type OutboundMessage struct {
	ID        string    `json:"id"`
	Sender    UserRef   `json:"sender"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// OutboundEnvelope is pushed to the participants' connections once the
// message is persisted.
type OutboundEnvelope struct {
	Type           string          `json:"type"`
	ConversationID string          `json:"conversationId"`
	Message        OutboundMessage `json:"message"`
}
