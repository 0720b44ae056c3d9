package router

import (
	"github.com/labstack/echo/v4"

	"telejam/internal/adapter/api/handler"
	"telejam/internal/adapter/api/middleware"
)

func SetupMessageRouter(e *echo.Echo, messageHandler *handler.MessageHandler, authMiddleware *middleware.AuthMiddleware) {
	messageGroup := e.Group("/messages")
	messageGroup.Use(authMiddleware.Authenticate)

	// Static paths before the parameterized ones so "conversations" is never
	// read as a partner id.
	messageGroup.GET("/conversations", messageHandler.GetConversations)
	messageGroup.GET("/contacts", messageHandler.GetContacts)
	messageGroup.GET("/chat-partners", messageHandler.GetChatPartners)

	messageGroup.POST("/send/:id", messageHandler.SendMessage)
	messageGroup.PUT("/read/:conversationId", messageHandler.MarkConversationRead)
	messageGroup.GET("/:id", messageHandler.GetMessages)
}
