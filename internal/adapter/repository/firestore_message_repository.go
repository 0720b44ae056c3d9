package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"telejam/internal/domain/entity"
	"telejam/internal/domain/repository"
	"telejam/pkg/errors"
)

type firestoreMessageRepository struct {
	client *firestore.Client
}

func NewFirestoreMessageRepository(client *firestore.Client) repository.MessageRepository {
	return &firestoreMessageRepository{
		client: client,
	}
}

func (r *firestoreMessageRepository) Create(ctx context.Context, message *entity.Message) error {
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}

	_, err := r.client.Collection("messages").Doc(message.ID).Set(ctx, message)
	if err != nil {
		return errors.Internal("Failed to create message", err)
	}

	return nil
}

func (r *firestoreMessageRepository) ListBetween(ctx context.Context, userA, userB string) ([]*entity.Message, error) {
	// Firestore has no OR across field pairs, so each direction is its own
	// query and the merge is sorted in memory.
	sent, err := r.queryDirection(ctx, userA, userB, 0)
	if err != nil {
		return nil, err
	}
	received, err := r.queryDirection(ctx, userB, userA, 0)
	if err != nil {
		return nil, err
	}

	messages := append(sent, received...)
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})

	return messages, nil
}

func (r *firestoreMessageRepository) ListRecentBetween(ctx context.Context, userA, userB string, limit int) ([]*entity.Message, error) {
	// Pull up to limit newest messages from each direction, then keep the
	// newest limit of the merged set.
	sent, err := r.queryDirection(ctx, userA, userB, limit)
	if err != nil {
		return nil, err
	}
	received, err := r.queryDirection(ctx, userB, userA, limit)
	if err != nil {
		return nil, err
	}

	messages := append(sent, received...)
	sort.Slice(messages, func(i, j int) bool {
		return messages[i].CreatedAt.Before(messages[j].CreatedAt)
	})
	if limit > 0 && len(messages) > limit {
		messages = messages[len(messages)-limit:]
	}

	return messages, nil
}

func (r *firestoreMessageRepository) MarkConversationRead(ctx context.Context, readerID, senderID string) (int, error) {
	query := r.client.Collection("messages").
		Where("senderId", "==", senderID).
		Where("receiverId", "==", readerID).
		Where("isRead", "==", false)

	iter := query.Documents(ctx)
	flipped := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return flipped, errors.Internal("Failed to iterate unread messages", err)
		}

		if _, err := doc.Ref.Update(ctx, []firestore.Update{
			{Path: "isRead", Value: true},
		}); err != nil {
			return flipped, errors.Internal("Failed to mark message as read", err)
		}
		flipped++
	}

	return flipped, nil
}

func (r *firestoreMessageRepository) ListPartnerIDs(ctx context.Context, userID string) ([]string, error) {
	partners := make(map[string]struct{})

	sentIter := r.client.Collection("messages").Where("senderId", "==", userID).Documents(ctx)
	if err := collectPartnerIDs(sentIter, "receiverId", partners); err != nil {
		return nil, err
	}

	receivedIter := r.client.Collection("messages").Where("receiverId", "==", userID).Documents(ctx)
	if err := collectPartnerIDs(receivedIter, "senderId", partners); err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(partners))
	for id := range partners {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	return ids, nil
}

func (r *firestoreMessageRepository) queryDirection(ctx context.Context, senderID, receiverID string, limit int) ([]*entity.Message, error) {
	query := r.client.Collection("messages").
		Where("senderId", "==", senderID).
		Where("receiverId", "==", receiverID).
		OrderBy("createdAt", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			return nil, errors.Internal("Failed to parse message data", err)
		}
		message.ID = doc.Ref.ID
		messages = append(messages, &message)
	}

	return messages, nil
}

func collectPartnerIDs(iter *firestore.DocumentIterator, field string, into map[string]struct{}) error {
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return errors.Internal("Failed to iterate messages", err)
		}

		value, err := doc.DataAt(field)
		if err != nil {
			continue
		}
		if id, ok := value.(string); ok && id != "" {
			into[id] = struct{}{}
		}
	}
}
