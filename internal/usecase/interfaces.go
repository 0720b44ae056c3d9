package usecase

import (
	ws "telejam/internal/infrastructure/websocket"
)

// EventPusher is the presence-registry surface the usecases depend on. It is
// implemented by the websocket Manager; pushes are best-effort and a false
// return is never an error.
type EventPusher interface {
	SendToUser(userID string, event ws.Event) bool
	IsConnected(userID string) bool
}
