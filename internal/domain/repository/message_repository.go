package repository

import (
	"context"

	"telejam/internal/domain/entity"
)

type MessageRepository interface {
	Create(ctx context.Context, message *entity.Message) error

	// ListBetween returns every message exchanged between the two users in
	// chronological order.
	ListBetween(ctx context.Context, userA, userB string) ([]*entity.Message, error)

	// ListRecentBetween returns at most limit of the newest messages between
	// the two users, in chronological order.
	ListRecentBetween(ctx context.Context, userA, userB string, limit int) ([]*entity.Message, error)

	// MarkConversationRead flips IsRead on every unread message sent from
	// senderID to readerID and returns how many were flipped.
	MarkConversationRead(ctx context.Context, readerID, senderID string) (int, error)

	// ListPartnerIDs returns the distinct IDs of users the given user has
	// exchanged at least one message with.
	ListPartnerIDs(ctx context.Context, userID string) ([]string, error)
}
