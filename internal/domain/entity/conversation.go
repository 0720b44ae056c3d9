package entity

import "time"

// LastMessage is a denormalized snapshot of the most recent message in a
// conversation, not a reference into the message log.
type LastMessage struct {
	SenderID  string    `json:"sender_id" firestore:"senderId"`
	Text      string    `json:"text" firestore:"text"`
	Image     string    `json:"image,omitempty" firestore:"image,omitempty"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}

// Conversation is the per-pair aggregate: one document per unordered pair of
// participants, keyed by the canonical pair ID. UnreadCount maps a participant
// ID to its number of unread messages; a missing key means zero.
type Conversation struct {
	ID           string         `json:"id" firestore:"id"`
	Participants []string       `json:"participants" firestore:"participants"`
	LastMessage  LastMessage    `json:"last_message" firestore:"lastMessage"`
	UnreadCount  map[string]int `json:"unread_count" firestore:"unreadCount"`
	CreatedAt    time.Time      `json:"created_at" firestore:"createdAt"`
	UpdatedAt    time.Time      `json:"updated_at" firestore:"updatedAt"`
}

// ConversationID returns the canonical document key for an unordered pair of
// participants. Both send directions resolve to the same key, so keying the
// conversation document by it rules out duplicate documents under concurrent
// first sends.
func ConversationID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + "_" + b
}

// CanonicalPair returns the two participant IDs in canonical order.
func CanonicalPair(a, b string) []string {
	if b < a {
		a, b = b, a
	}
	return []string{a, b}
}

// UnreadFor returns the unread counter for userID, treating absence as zero.
func (c *Conversation) UnreadFor(userID string) int {
	if c.UnreadCount == nil {
		return 0
	}
	return c.UnreadCount[userID]
}

// OtherParticipant returns the counterparty of userID, or an empty string if
// userID is not a participant.
func (c *Conversation) OtherParticipant(userID string) string {
	for _, p := range c.Participants {
		if p != userID {
			return p
		}
	}
	return ""
}

// HasParticipant reports whether userID is one of the two participants.
func (c *Conversation) HasParticipant(userID string) bool {
	for _, p := range c.Participants {
		if p == userID {
			return true
		}
	}
	return false
}
