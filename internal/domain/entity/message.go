package entity

import "time"

// MaxMessageTextLength bounds the text body of a single message.
const MaxMessageTextLength = 2000

// Message is immutable once created except for the IsRead flag, which is
// flipped by the read-marking path. Messages are never deleted here.
type Message struct {
	ID            string    `json:"id" firestore:"id"`
	SenderID      string    `json:"sender_id" firestore:"senderId"`
	ReceiverID    string    `json:"receiver_id" firestore:"receiverId"`
	Text          string    `json:"text,omitempty" firestore:"text,omitempty"`
	Image         string    `json:"image,omitempty" firestore:"image,omitempty"`
	ImagePublicID string    `json:"image_public_id,omitempty" firestore:"imagePublicId,omitempty"`
	IsAIMessage   bool      `json:"is_ai_message" firestore:"isAiMessage"`
	IsRead        bool      `json:"is_read" firestore:"isRead"`
	CreatedAt     time.Time `json:"created_at" firestore:"createdAt"`
}
