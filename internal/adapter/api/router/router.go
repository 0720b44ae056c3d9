package router

import (
	"github.com/labstack/echo/v4"

	"telejam/internal/adapter/api/handler"
	"telejam/internal/adapter/api/middleware"
)

func Setup(
	e *echo.Echo,
	messageHandler *handler.MessageHandler,
	wsHandler *handler.WebSocketHandler,
	healthHandler *handler.HealthHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	SetupMessageRouter(e, messageHandler, authMiddleware)
	SetupWebSocketRouter(e, wsHandler)
	SetupHealthRouter(e, healthHandler)
}
