package repository

import (
	"context"

	"telejam/internal/domain/entity"
)

type ConversationRepository interface {
	// ApplySent folds a freshly persisted message into the per-pair aggregate:
	// it finds or creates the conversation for the canonical participant pair,
	// overwrites the last-message snapshot, and increments the receiver's
	// unread counter. The upsert is atomic on the canonical pair key.
	ApplySent(ctx context.Context, message *entity.Message) (*entity.Conversation, error)

	GetByID(ctx context.Context, id string) (*entity.Conversation, error)

	// MarkRead zeroes the reader's unread counter and returns the updated
	// conversation. A missing conversation is a NOT_FOUND error.
	MarkRead(ctx context.Context, conversationID, readerID string) (*entity.Conversation, error)

	// ListByUserID returns the user's conversations, most recently updated first.
	ListByUserID(ctx context.Context, userID string) ([]*entity.Conversation, error)
}
