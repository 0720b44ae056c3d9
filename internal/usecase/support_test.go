package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"telejam/internal/domain/entity"
	ws "telejam/internal/infrastructure/websocket"
	"telejam/pkg/errors"

	"github.com/google/uuid"
)

// fakeUserRepo is an in-memory UserRepository.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newFakeUserRepo(users ...*entity.User) *fakeUserRepo {
	r := &fakeUserRepo{users: make(map[string]*entity.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) Exists(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[id]
	return ok, nil
}

func (r *fakeUserRepo) List(ctx context.Context) ([]*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.users))
	for id := range r.users {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	users := make([]*entity.User, 0, len(ids))
	for _, id := range ids {
		copied := *r.users[id]
		users = append(users, &copied)
	}
	return users, nil
}

func (r *fakeUserRepo) UpdateLastSeen(ctx context.Context, id string, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if user, ok := r.users[id]; ok {
		user.LastSeen = lastSeen
	}
	return nil
}

// fakeMessageRepo is an in-memory MessageRepository ordered by insertion.
type fakeMessageRepo struct {
	mu       sync.Mutex
	messages []*entity.Message
	failNext error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{}
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext != nil {
		err := r.failNext
		r.failNext = nil
		return err
	}
	if message.ID == "" {
		message.ID = uuid.New().String()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	copied := *message
	r.messages = append(r.messages, &copied)
	return nil
}

func (r *fakeMessageRepo) between(userA, userB string) []*entity.Message {
	var out []*entity.Message
	for _, m := range r.messages {
		if (m.SenderID == userA && m.ReceiverID == userB) || (m.SenderID == userB && m.ReceiverID == userA) {
			copied := *m
			out = append(out, &copied)
		}
	}
	return out
}

func (r *fakeMessageRepo) ListBetween(ctx context.Context, userA, userB string) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.between(userA, userB), nil
}

func (r *fakeMessageRepo) ListRecentBetween(ctx context.Context, userA, userB string, limit int) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.between(userA, userB)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}
	return all, nil
}

func (r *fakeMessageRepo) MarkConversationRead(ctx context.Context, readerID, senderID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, m := range r.messages {
		if m.SenderID == senderID && m.ReceiverID == readerID && !m.IsRead {
			m.IsRead = true
			count++
		}
	}
	return count, nil
}

func (r *fakeMessageRepo) ListPartnerIDs(ctx context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	seen := make(map[string]struct{})
	for _, m := range r.messages {
		if m.SenderID == userID {
			seen[m.ReceiverID] = struct{}{}
		}
		if m.ReceiverID == userID {
			seen[m.SenderID] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// fakeConversationRepo mirrors the canonical-pair upsert semantics of the
// Firestore implementation, including the atomicity of ApplySent.
type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[string]*entity.Conversation
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{conversations: make(map[string]*entity.Conversation)}
}

func (r *fakeConversationRepo) ApplySent(ctx context.Context, message *entity.Message) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := entity.ConversationID(message.SenderID, message.ReceiverID)
	now := time.Now()

	conversation, ok := r.conversations[id]
	if !ok {
		conversation = &entity.Conversation{
			ID:           id,
			Participants: entity.CanonicalPair(message.SenderID, message.ReceiverID),
			UnreadCount:  map[string]int{message.SenderID: 0, message.ReceiverID: 0},
			CreatedAt:    now,
		}
		r.conversations[id] = conversation
	}

	conversation.LastMessage = entity.LastMessage{
		SenderID:  message.SenderID,
		Text:      message.Text,
		Image:     message.Image,
		CreatedAt: message.CreatedAt,
	}
	conversation.UnreadCount[message.ReceiverID]++
	conversation.UpdatedAt = now

	copied := r.copyLocked(conversation)
	return copied, nil
}

func (r *fakeConversationRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conversation, ok := r.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	return r.copyLocked(conversation), nil
}

func (r *fakeConversationRepo) MarkRead(ctx context.Context, conversationID, readerID string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conversation, ok := r.conversations[conversationID]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	conversation.UnreadCount[readerID] = 0
	return r.copyLocked(conversation), nil
}

func (r *fakeConversationRepo) ListByUserID(ctx context.Context, userID string) ([]*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.Conversation
	for _, c := range r.conversations {
		if c.HasParticipant(userID) {
			out = append(out, r.copyLocked(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func (r *fakeConversationRepo) copyLocked(c *entity.Conversation) *entity.Conversation {
	copied := *c
	copied.Participants = append([]string(nil), c.Participants...)
	copied.UnreadCount = make(map[string]int, len(c.UnreadCount))
	for k, v := range c.UnreadCount {
		copied.UnreadCount[k] = v
	}
	return &copied
}

// pushedEvent records one SendToUser call.
type pushedEvent struct {
	UserID string
	Event  ws.Event
}

// fakePusher records pushes and answers connectivity from a fixed set.
type fakePusher struct {
	mu        sync.Mutex
	connected map[string]bool
	pushed    []pushedEvent
}

func newFakePusher(connected ...string) *fakePusher {
	p := &fakePusher{connected: make(map[string]bool)}
	for _, id := range connected {
		p.connected[id] = true
	}
	return p
}

func (p *fakePusher) SendToUser(userID string, event ws.Event) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pushed = append(p.pushed, pushedEvent{UserID: userID, Event: event})
	return p.connected[userID]
}

func (p *fakePusher) IsConnected(userID string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.connected[userID]
}

func (p *fakePusher) events() []pushedEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]pushedEvent(nil), p.pushed...)
}

func (p *fakePusher) eventsOfType(eventType string) []pushedEvent {
	var out []pushedEvent
	for _, e := range p.events() {
		if e.Event.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}
