package websocket

import (
	"time"

	"telejam/internal/domain/entity"
)

// Server-pushed event types. This is the closed catalogue of real-time
// signals; anything else arriving on a connection is ignored.
const (
	EventOnlineUsers      = "get_all_online_users"
	EventTyping           = "user_typing"
	EventNewMessage       = "new_message"
	EventMessageEcho      = "sent_message"
	EventConversationRead = "conversation_read"
	EventAIChunk          = "ai_message_chunk"
	EventAIComplete       = "ai_message_complete"
)

// Event is the wire envelope for every real-time signal.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data"`
	Timestamp string      `json:"timestamp"`
}

func NewEvent(eventType string, data interface{}) Event {
	return Event{
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

// OnlineUsersData carries the full online-identity snapshot. The reserved
// assistant identity is always present.
type OnlineUsersData struct {
	UserIDs []string `json:"user_ids"`
}

// TypingData is relayed verbatim between two connections. Inbound it carries
// To; outbound it carries From. Nothing is persisted or acknowledged.
type TypingData struct {
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	IsTyping bool   `json:"is_typing"`
}

// NewMessageData is the notification signal: the full message with the
// updated aggregate and the sender's public profile, for a receiver whose
// chat view for this sender is not open.
type NewMessageData struct {
	Message      *entity.Message      `json:"message"`
	Conversation *entity.Conversation `json:"conversation"`
	Sender       *entity.User         `json:"sender"`
}

// MessageEchoData is the live-echo signal: the same message pre-marked as
// read, for a receiver whose chat view is open. Both signals are always sent;
// the client decides which one to act on.
type MessageEchoData struct {
	Message *entity.Message `json:"message"`
}

type ConversationReadData struct {
	ConversationID string `json:"conversation_id"`
	ReaderID       string `json:"reader_id"`
}

// AIChunkData carries one incremental fragment of a streamed assistant reply.
// MessageID is temporary; the persisted message arrives with the completion.
type AIChunkData struct {
	MessageID  string `json:"message_id"`
	Chunk      string `json:"chunk"`
	FullText   string `json:"full_text"`
	IsComplete bool   `json:"is_complete"`
	SenderID   string `json:"sender_id"`
	ReceiverID string `json:"receiver_id"`
}

type AICompleteData struct {
	Message      *entity.Message      `json:"message"`
	Conversation *entity.Conversation `json:"conversation"`
}
