package usecase

import (
	"context"
	"log"
	"strings"

	"telejam/internal/domain/entity"
	"telejam/internal/domain/repository"
	ws "telejam/internal/infrastructure/websocket"
	"telejam/pkg/errors"
)

type MessageUseCase struct {
	messageRepo      repository.MessageRepository
	conversationRepo repository.ConversationRepository
	userRepo         repository.UserRepository
	pusher           EventPusher
	assistant        *AssistantUseCase
	aiUserID         string
}

func NewMessageUseCase(
	messageRepo repository.MessageRepository,
	conversationRepo repository.ConversationRepository,
	userRepo repository.UserRepository,
	pusher EventPusher,
	assistant *AssistantUseCase,
	aiUserID string,
) *MessageUseCase {
	return &MessageUseCase{
		messageRepo:      messageRepo,
		conversationRepo: conversationRepo,
		userRepo:         userRepo,
		pusher:           pusher,
		assistant:        assistant,
		aiUserID:         aiUserID,
	}
}

type SendMessageInput struct {
	Text          string
	Image         string
	ImagePublicID string
}

type SendMessageResult struct {
	Message      *entity.Message      `json:"message"`
	Conversation *entity.Conversation `json:"conversation"`
}

// SendMessage persists the message, folds it into the conversation aggregate,
// and pushes the two delivery signals to the receiver if connected. When the
// receiver is the reserved assistant identity the streaming pipeline is
// started afterwards, without delaying the caller.
func (uc *MessageUseCase) SendMessage(ctx context.Context, senderID, receiverID string, input SendMessageInput) (*SendMessageResult, error) {
	if senderID == receiverID {
		return nil, errors.BadRequest("You cannot message yourself", nil)
	}

	text := strings.TrimSpace(input.Text)
	if text == "" && input.Image == "" {
		return nil, errors.BadRequest("Message must contain text or image", nil)
	}
	if len([]rune(text)) > entity.MaxMessageTextLength {
		return nil, errors.BadRequest("Message text is too long", nil)
	}

	exists, err := uc.userRepo.Exists(ctx, receiverID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NotFound("Recipient", nil)
	}

	message := &entity.Message{
		SenderID:      senderID,
		ReceiverID:    receiverID,
		Text:          text,
		Image:         input.Image,
		ImagePublicID: input.ImagePublicID,
	}
	if err := uc.messageRepo.Create(ctx, message); err != nil {
		log.Printf("SendMessage Error: Failed to persist message from %s to %s: %v", senderID, receiverID, err)
		return nil, err
	}

	// Not atomic with the message write above. A crash here leaves the
	// aggregate one message behind; the next ApplySent overwrites the
	// snapshot with a correct value, so nothing recomputes or retries.
	conversation, err := uc.conversationRepo.ApplySent(ctx, message)
	if err != nil {
		log.Printf("SendMessage Error: Failed to update conversation for message %s: %v", message.ID, err)
		return nil, err
	}

	uc.pushToReceiver(ctx, message, conversation)

	if receiverID == uc.aiUserID && uc.assistant != nil {
		go uc.assistant.Respond(message)
	}

	return &SendMessageResult{
		Message:      message,
		Conversation: conversation,
	}, nil
}

// pushToReceiver emits the dual delivery signals: a notification with the
// full payload, and a live echo pre-marked as read. Both always go out; the
// client picks one based on which chat view it has open. The sender gets
// nothing, it already holds the synchronous response.
func (uc *MessageUseCase) pushToReceiver(ctx context.Context, message *entity.Message, conversation *entity.Conversation) {
	if !uc.pusher.IsConnected(message.ReceiverID) {
		return
	}

	sender, err := uc.userRepo.GetByID(ctx, message.SenderID)
	if err != nil {
		log.Printf("SendMessage Warning: Sender %s not found for notification: %v", message.SenderID, err)
	}

	uc.pusher.SendToUser(message.ReceiverID, ws.NewEvent(ws.EventNewMessage, ws.NewMessageData{
		Message:      message,
		Conversation: conversation,
		Sender:       sender,
	}))

	echo := *message
	echo.IsRead = true
	uc.pusher.SendToUser(message.ReceiverID, ws.NewEvent(ws.EventMessageEcho, ws.MessageEchoData{
		Message: &echo,
	}))
}

// MarkConversationRead zeroes the reader's unread counter, flips the stored
// unread messages from the other participant, and notifies that participant.
func (uc *MessageUseCase) MarkConversationRead(ctx context.Context, readerID, conversationID string) error {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if !conversation.HasParticipant(readerID) {
		return errors.Forbidden("User is not a participant in this conversation", nil)
	}

	conversation, err = uc.conversationRepo.MarkRead(ctx, conversationID, readerID)
	if err != nil {
		return err
	}

	other := conversation.OtherParticipant(readerID)
	if _, err := uc.messageRepo.MarkConversationRead(ctx, readerID, other); err != nil {
		log.Printf("MarkConversationRead Error: Failed to flip messages in %s for reader %s: %v", conversationID, readerID, err)
		return err
	}

	uc.pusher.SendToUser(other, ws.NewEvent(ws.EventConversationRead, ws.ConversationReadData{
		ConversationID: conversationID,
		ReaderID:       readerID,
	}))

	return nil
}

// GetMessages returns the full history with a chat partner in chronological
// order. This synchronous fetch is the recovery path for any push the client
// missed.
func (uc *MessageUseCase) GetMessages(ctx context.Context, userID, partnerID string) ([]*entity.Message, error) {
	exists, err := uc.userRepo.Exists(ctx, partnerID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NotFound("User", nil)
	}

	return uc.messageRepo.ListBetween(ctx, userID, partnerID)
}

// GetConversations returns the user's conversation aggregates, most recently
// updated first.
func (uc *MessageUseCase) GetConversations(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	return uc.conversationRepo.ListByUserID(ctx, userID)
}

// GetChatPartners returns the profiles of everyone the user has exchanged at
// least one message with.
func (uc *MessageUseCase) GetChatPartners(ctx context.Context, userID string) ([]*entity.User, error) {
	partnerIDs, err := uc.messageRepo.ListPartnerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	partners := make([]*entity.User, 0, len(partnerIDs))
	for _, id := range partnerIDs {
		user, err := uc.userRepo.GetByID(ctx, id)
		if err != nil {
			log.Printf("GetChatPartners Warning: Partner %s not found: %v", id, err)
			continue
		}
		partners = append(partners, user)
	}

	return partners, nil
}

// GetContacts returns every other user the given user has never exchanged a
// message with.
func (uc *MessageUseCase) GetContacts(ctx context.Context, userID string) ([]*entity.User, error) {
	partnerIDs, err := uc.messageRepo.ListPartnerIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	known := make(map[string]struct{}, len(partnerIDs)+1)
	known[userID] = struct{}{}
	for _, id := range partnerIDs {
		known[id] = struct{}{}
	}

	users, err := uc.userRepo.List(ctx)
	if err != nil {
		return nil, err
	}

	var contacts []*entity.User
	for _, user := range users {
		if _, ok := known[user.ID]; ok {
			continue
		}
		contacts = append(contacts, user)
	}

	return contacts, nil
}
