package handler

import (
	"github.com/labstack/echo/v4"

	"telejam/internal/usecase"
	"telejam/pkg/response"
)

type MessageHandler struct {
	messageUseCase *usecase.MessageUseCase
}

func NewMessageHandler(messageUseCase *usecase.MessageUseCase) *MessageHandler {
	return &MessageHandler{
		messageUseCase: messageUseCase,
	}
}

type sendMessageRequest struct {
	Text          string `json:"text" validate:"omitempty,max=2000"`
	Image         string `json:"image,omitempty" validate:"omitempty,url"`
	ImagePublicID string `json:"imagePublicId,omitempty"`
}

// SendMessage handles POST /messages/send/:id where :id is the receiver.
func (h *MessageHandler) SendMessage(c echo.Context) error {
	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	senderID := c.Get("uid").(string)
	receiverID := c.Param("id")

	result, err := h.messageUseCase.SendMessage(c.Request().Context(), senderID, receiverID, usecase.SendMessageInput{
		Text:          req.Text,
		Image:         req.Image,
		ImagePublicID: req.ImagePublicID,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, result)
}

// MarkConversationRead handles PUT /messages/read/:conversationId.
func (h *MessageHandler) MarkConversationRead(c echo.Context) error {
	readerID := c.Get("uid").(string)
	conversationID := c.Param("conversationId")

	if err := h.messageUseCase.MarkConversationRead(c.Request().Context(), readerID, conversationID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"conversationId": conversationID,
	})
}

// GetMessages handles GET /messages/:id where :id is the chat partner.
func (h *MessageHandler) GetMessages(c echo.Context) error {
	userID := c.Get("uid").(string)
	partnerID := c.Param("id")

	messages, err := h.messageUseCase.GetMessages(c.Request().Context(), userID, partnerID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, messages)
}

// GetConversations handles GET /messages/conversations.
func (h *MessageHandler) GetConversations(c echo.Context) error {
	userID := c.Get("uid").(string)

	conversations, err := h.messageUseCase.GetConversations(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, conversations)
}

// GetChatPartners handles GET /messages/chat-partners.
func (h *MessageHandler) GetChatPartners(c echo.Context) error {
	userID := c.Get("uid").(string)

	partners, err := h.messageUseCase.GetChatPartners(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, partners)
}

// GetContacts handles GET /messages/contacts.
func (h *MessageHandler) GetContacts(c echo.Context) error {
	userID := c.Get("uid").(string)

	contacts, err := h.messageUseCase.GetContacts(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, contacts)
}
