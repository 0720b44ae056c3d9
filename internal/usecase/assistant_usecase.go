package usecase

import (
	"context"
	"io"
	"strings"

	"github.com/google/uuid"

	"telejam/internal/domain/entity"
	"telejam/internal/domain/repository"
	"telejam/internal/infrastructure/openai"
	ws "telejam/internal/infrastructure/websocket"
	"telejam/pkg/logger"
)

const assistantContextLimit = 20

const assistantSystemPrompt = `You are Orion, Telejam's AI assistant. You chat with users inside a messaging app, so keep your replies conversational and reasonably short, the way a helpful friend would text.

Guidelines:
- Answer directly. Do not pad replies with filler or restate the question.
- Use plain language. Markdown is fine for lists and code, but do not overformat casual chat.
- If a user sends an image, describe or answer based on what you can see in it.
- If you are unsure about something, say so instead of guessing.
- Never claim to perform actions outside this chat, such as sending messages to other users.`

type AssistantUseCase struct {
	messageRepo      repository.MessageRepository
	conversationRepo repository.ConversationRepository
	pusher           EventPusher
	llm              *openai.Client
	aiUserID         string
}

func NewAssistantUseCase(
	messageRepo repository.MessageRepository,
	conversationRepo repository.ConversationRepository,
	pusher EventPusher,
	llm *openai.Client,
	aiUserID string,
) *AssistantUseCase {
	return &AssistantUseCase{
		messageRepo:      messageRepo,
		conversationRepo: conversationRepo,
		pusher:           pusher,
		llm:              llm,
		aiUserID:         aiUserID,
	}
}

// Respond generates and streams the assistant's reply to userMessage. It runs
// on context.Background rather than the request context: the reply must be
// persisted even if the user disconnects mid-stream, so nothing upstream may
// cancel it. Chunk pushes along the way are best-effort.
//
// On any upstream or persistence failure the reply is abandoned silently. The
// user sees no error event; the client's typing indicator simply times out.
func (uc *AssistantUseCase) Respond(userMessage *entity.Message) {
	ctx := context.Background()
	humanID := userMessage.SenderID

	messages, err := uc.buildContext(ctx, userMessage)
	if err != nil {
		logger.Error("Assistant: failed to build context for %s: %v", humanID, err)
		return
	}

	stream, err := uc.llm.StreamChatCompletion(ctx, messages)
	if err != nil {
		logger.Error("Assistant: failed to open stream for %s: %v", humanID, err)
		return
	}
	defer stream.Close()

	tempID := "ai-temp-" + uuid.New().String()
	var full strings.Builder

	for {
		chunk, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			logger.Error("Assistant: stream for %s failed after %d chars: %v", humanID, full.Len(), err)
			return
		}
		full.WriteString(chunk)

		uc.pusher.SendToUser(humanID, ws.NewEvent(ws.EventAIChunk, ws.AIChunkData{
			MessageID:  tempID,
			Chunk:      chunk,
			FullText:   full.String(),
			IsComplete: false,
			SenderID:   uc.aiUserID,
			ReceiverID: humanID,
		}))
	}

	reply := &entity.Message{
		SenderID:    uc.aiUserID,
		ReceiverID:  humanID,
		Text:        full.String(),
		IsAIMessage: true,
	}
	if err := uc.messageRepo.Create(ctx, reply); err != nil {
		logger.Error("Assistant: failed to persist reply to %s: %v", humanID, err)
		return
	}

	conversation, err := uc.conversationRepo.ApplySent(ctx, reply)
	if err != nil {
		logger.Error("Assistant: failed to update conversation for reply %s: %v", reply.ID, err)
		return
	}

	uc.pusher.SendToUser(humanID, ws.NewEvent(ws.EventAIComplete, ws.AICompleteData{
		Message:      reply,
		Conversation: conversation,
	}))
}

// buildContext assembles the system prompt, the most recent turns of the
// conversation, and the triggering message, oldest first.
func (uc *AssistantUseCase) buildContext(ctx context.Context, userMessage *entity.Message) ([]openai.ChatMessage, error) {
	history, err := uc.messageRepo.ListRecentBetween(ctx, userMessage.SenderID, uc.aiUserID, assistantContextLimit)
	if err != nil {
		return nil, err
	}

	messages := make([]openai.ChatMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatMessage{
		Role:    "system",
		Content: []openai.ContentPart{openai.TextPart(assistantSystemPrompt)},
	})

	for _, m := range history {
		// The triggering message may already be in the stored history;
		// it is appended explicitly below.
		if m.ID == userMessage.ID {
			continue
		}
		messages = append(messages, uc.chatTurn(m))
	}

	messages = append(messages, uc.chatTurn(userMessage))
	return messages, nil
}

func (uc *AssistantUseCase) chatTurn(m *entity.Message) openai.ChatMessage {
	role := "user"
	if m.SenderID == uc.aiUserID {
		role = "assistant"
	}

	var parts []openai.ContentPart
	if m.Text != "" {
		parts = append(parts, openai.TextPart(m.Text))
	}
	if m.Image != "" {
		parts = append(parts, openai.ImagePart(m.Image))
	}

	return openai.ChatMessage{Role: role, Content: parts}
}
