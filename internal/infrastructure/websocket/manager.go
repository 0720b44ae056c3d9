package websocket

import (
	"encoding/json"
	"sort"
	"sync"

	"telejam/internal/domain/repository"
	"telejam/pkg/logger"
)

// Manager is the presence registry: the process-wide mapping from user ID to
// the single live connection for that user. The table is owned by the Manager
// and never escapes; every mutation broadcasts a fresh online-user snapshot
// taken under the same lock as the mutation itself.
type Manager struct {
	mu      sync.RWMutex
	clients map[string]*Client

	aiUserID string
	userRepo repository.UserRepository
}

func NewManager(aiUserID string, userRepo repository.UserRepository) *Manager {
	return &Manager{
		clients:  make(map[string]*Client),
		aiUserID: aiUserID,
		userRepo: userRepo,
	}
}

// Register installs the client as the connection for its user. A prior live
// connection for the same user is overwritten, not closed: the newest
// connection wins and the stale one unregisters itself when its read loop
// fails, without evicting this entry.
func (m *Manager) Register(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if prior, ok := m.clients[client.UserID]; ok && prior != client {
		logger.Warn("websocket: replacing live connection for user %s", client.UserID)
	}
	m.clients[client.UserID] = client
	logger.Info("websocket: client registered: %s", client.UserID)

	m.broadcastPresenceLocked()
}

// Unregister removes the client if it is still the registered connection for
// its user. Calling it with a stale (already replaced) client is a no-op, as
// is calling it twice.
func (m *Manager) Unregister(client *Client) {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.clients[client.UserID]
	if !ok || current != client {
		return
	}
	delete(m.clients, client.UserID)
	logger.Info("websocket: client unregistered: %s", client.UserID)

	m.broadcastPresenceLocked()
}

// IsConnected reports whether the user has a live registry entry. The
// reserved assistant identity is always reported as online.
func (m *Manager) IsConnected(userID string) bool {
	if userID == m.aiUserID {
		return true
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.clients[userID]
	return ok
}

// OnlineUserIDs returns the sorted set of online identities, always including
// the reserved assistant identity.
func (m *Manager) OnlineUserIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.onlineUserIDsLocked()
}

// SendToUser pushes one event to the user's connection, if any. Returns false
// when the user is not connected or the event was dropped; the caller must
// treat delivery as best-effort either way.
func (m *Manager) SendToUser(userID string, event Event) bool {
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("websocket: failed to marshal %s event: %v", event.Type, err)
		return false
	}

	m.mu.RLock()
	client, ok := m.clients[userID]
	m.mu.RUnlock()
	if !ok {
		return false
	}
	return client.enqueue(payload)
}

// HandleClientMessage dispatches one client-originated frame. Only the typing
// relay is accepted; unrecognized shapes are logged and dropped.
func (m *Manager) HandleClientMessage(client *Client, payload []byte) {
	var event inboundEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		logger.Warn("websocket: malformed frame from %s: %v", client.UserID, err)
		return
	}

	switch event.Type {
	case EventTyping:
		var data TypingData
		if err := json.Unmarshal(event.Data, &data); err != nil || data.To == "" {
			logger.Warn("websocket: invalid typing payload from %s", client.UserID)
			return
		}
		m.SendToUser(data.To, NewEvent(EventTyping, TypingData{
			From:     client.UserID,
			IsTyping: data.IsTyping,
		}))
	default:
		logger.Debug("websocket: ignoring unknown event type %q from %s", event.Type, client.UserID)
	}
}

func (m *Manager) onlineUserIDsLocked() []string {
	ids := make([]string, 0, len(m.clients)+1)
	for id := range m.clients {
		ids = append(ids, id)
	}
	if _, ok := m.clients[m.aiUserID]; !ok && m.aiUserID != "" {
		ids = append(ids, m.aiUserID)
	}
	sort.Strings(ids)
	return ids
}

// broadcastPresenceLocked pushes the current online snapshot to every
// registered connection. It must run under the write lock of the mutation it
// describes so concurrent register/unregister pairs cannot publish snapshots
// out of order. Enqueueing never blocks, so holding the lock here is cheap.
func (m *Manager) broadcastPresenceLocked() {
	event := NewEvent(EventOnlineUsers, OnlineUsersData{UserIDs: m.onlineUserIDsLocked()})
	payload, err := json.Marshal(event)
	if err != nil {
		logger.Error("websocket: failed to marshal presence snapshot: %v", err)
		return
	}
	for _, client := range m.clients {
		client.enqueue(payload)
	}
}
