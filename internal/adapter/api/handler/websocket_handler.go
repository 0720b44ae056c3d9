package handler

import (
	"net/http"
	"strings"

	"firebase.google.com/go/v4/auth"
	gorillaws "github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"

	ws "telejam/internal/infrastructure/websocket"
	"telejam/pkg/errors"
	"telejam/pkg/logger"
)

type WebSocketHandler struct {
	wsManager  *ws.Manager
	authClient *auth.Client
}

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // You should restrict this in production
	},
}

func NewWebSocketHandler(wsManager *ws.Manager, authClient *auth.Client) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:  wsManager,
		authClient: authClient,
	}
}

// HandleWebSocket upgrades the connection and registers the client. Auth is
// handled here instead of middleware because browser WebSocket clients cannot
// set an Authorization header; the token rides in the query string.
func (h *WebSocketHandler) HandleWebSocket(c echo.Context) error {
	token := h.extractToken(c)
	if token == "" {
		return errors.Unauthorized("Authentication token is required", nil)
	}

	decoded, err := h.authClient.VerifyIDToken(c.Request().Context(), token)
	if err != nil {
		return errors.Unauthorized("Invalid or expired token", err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := ws.NewClient(decoded.UID, conn)
	h.wsManager.Register(client)

	logger.Info("WebSocket connected: user %s", decoded.UID)

	go client.WritePump()
	go client.ReadPump(h.wsManager)

	return nil
}

func (h *WebSocketHandler) extractToken(c echo.Context) string {
	if token := c.QueryParam("token"); token != "" {
		return token
	}

	authHeader := c.Request().Header.Get("Authorization")
	parts := strings.Split(authHeader, " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}

	return ""
}
