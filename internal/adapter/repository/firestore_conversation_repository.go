package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"telejam/internal/domain/entity"
	"telejam/internal/domain/repository"
	"telejam/pkg/errors"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

// ApplySent runs as a transaction on the canonical-pair document. The document
// ID is the canonical pair key, so concurrent first sends from both sides
// contend on the same document instead of creating two.
//
// This update is deliberately not transactional with the message write that
// precedes it: a crash between the two leaves the aggregate one message
// behind, and the next send overwrites the snapshot with a correct value.
func (r *firestoreConversationRepository) ApplySent(ctx context.Context, message *entity.Message) (*entity.Conversation, error) {
	id := entity.ConversationID(message.SenderID, message.ReceiverID)
	ref := r.client.Collection("conversations").Doc(id)

	snapshot := entity.LastMessage{
		SenderID:  message.SenderID,
		Text:      message.Text,
		Image:     message.Image,
		CreatedAt: message.CreatedAt,
	}

	var result entity.Conversation
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		now := time.Now()

		doc, err := tx.Get(ref)
		if err != nil {
			if status.Code(err) != codes.NotFound {
				return err
			}
			result = entity.Conversation{
				ID:           id,
				Participants: entity.CanonicalPair(message.SenderID, message.ReceiverID),
				LastMessage:  snapshot,
				UnreadCount: map[string]int{
					message.ReceiverID: 1,
					message.SenderID:   0,
				},
				CreatedAt: now,
				UpdatedAt: now,
			}
			return tx.Set(ref, &result)
		}

		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			return err
		}
		conversation.ID = doc.Ref.ID
		if conversation.UnreadCount == nil {
			conversation.UnreadCount = make(map[string]int)
		}
		conversation.LastMessage = snapshot
		conversation.UnreadCount[message.ReceiverID]++
		conversation.UpdatedAt = now

		result = conversation
		return tx.Set(ref, &conversation)
	})
	if err != nil {
		return nil, errors.Internal("Failed to update conversation", err)
	}

	return &result, nil
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.client.Collection("conversations").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	conversation.ID = doc.Ref.ID

	return &conversation, nil
}

func (r *firestoreConversationRepository) MarkRead(ctx context.Context, conversationID, readerID string) (*entity.Conversation, error) {
	ref := r.client.Collection("conversations").Doc(conversationID)

	var result entity.Conversation
	err := r.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		doc, err := tx.Get(ref)
		if err != nil {
			return err
		}

		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			return err
		}
		conversation.ID = doc.Ref.ID
		if conversation.UnreadCount == nil {
			conversation.UnreadCount = make(map[string]int)
		}
		conversation.UnreadCount[readerID] = 0
		conversation.UpdatedAt = time.Now()

		result = conversation
		return tx.Set(ref, &conversation)
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to mark conversation as read", err)
	}

	return &result, nil
}

func (r *firestoreConversationRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	query := r.client.Collection("conversations").
		Where("participants", "array-contains", userID).
		OrderBy("updatedAt", firestore.Desc)

	iter := query.Documents(ctx)
	var conversations []*entity.Conversation
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate conversations", err)
		}

		var conversation entity.Conversation
		if err := doc.DataTo(&conversation); err != nil {
			continue // Skip malformed documents
		}
		conversation.ID = doc.Ref.ID
		conversations = append(conversations, &conversation)
	}

	return conversations, nil
}
