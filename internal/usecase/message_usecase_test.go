package usecase

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telejam/internal/domain/entity"
	ws "telejam/internal/infrastructure/websocket"
	"telejam/pkg/errors"
)

const aiID = "ai-assistant"

type ucFixture struct {
	users         *fakeUserRepo
	messages      *fakeMessageRepo
	conversations *fakeConversationRepo
	pusher        *fakePusher
	uc            *MessageUseCase
}

func newFixture(connected ...string) *ucFixture {
	users := newFakeUserRepo(
		&entity.User{ID: "alice", FullName: "Alice"},
		&entity.User{ID: "bob", FullName: "Bob"},
		&entity.User{ID: "carol", FullName: "Carol"},
		&entity.User{ID: aiID, FullName: "Orion"},
	)
	messages := newFakeMessageRepo()
	conversations := newFakeConversationRepo()
	pusher := newFakePusher(connected...)

	uc := NewMessageUseCase(messages, conversations, users, pusher, nil, aiID)
	return &ucFixture{users: users, messages: messages, conversations: conversations, pusher: pusher, uc: uc}
}

func TestSendMessageCreatesConversation(t *testing.T) {
	f := newFixture()

	result, err := f.uc.SendMessage(context.Background(), "alice", "bob", SendMessageInput{Text: "hello"})
	require.NoError(t, err)

	assert.NotEmpty(t, result.Message.ID)
	assert.False(t, result.Message.CreatedAt.IsZero())
	assert.Equal(t, "alice_bob", result.Conversation.ID)
	assert.Equal(t, []string{"alice", "bob"}, result.Conversation.Participants)
	assert.Equal(t, 1, result.Conversation.UnreadFor("bob"))
	assert.Equal(t, 0, result.Conversation.UnreadFor("alice"))
	assert.Equal(t, "hello", result.Conversation.LastMessage.Text)
}

func TestSendMessageAccumulatesUnread(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var last *SendMessageResult
	for i := 0; i < 5; i++ {
		var err error
		last, err = f.uc.SendMessage(ctx, "alice", "bob", SendMessageInput{Text: "ping"})
		require.NoError(t, err)
	}
	reply, err := f.uc.SendMessage(ctx, "bob", "alice", SendMessageInput{Text: "pong"})
	require.NoError(t, err)

	assert.Equal(t, 5, last.Conversation.UnreadFor("bob"))
	assert.Equal(t, 5, reply.Conversation.UnreadFor("bob"))
	assert.Equal(t, 1, reply.Conversation.UnreadFor("alice"))
	assert.Equal(t, last.Conversation.ID, reply.Conversation.ID)
	assert.Equal(t, "pong", reply.Conversation.LastMessage.Text)
	assert.Equal(t, "bob", reply.Conversation.LastMessage.SenderID)
}

func TestSendMessageConcurrentFirstSendsShareOneConversation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		sender, receiver := "alice", "bob"
		if i%2 == 1 {
			sender, receiver = "bob", "alice"
		}
		go func(s, r string) {
			defer wg.Done()
			_, err := f.uc.SendMessage(ctx, s, r, SendMessageInput{Text: "hi"})
			assert.NoError(t, err)
		}(sender, receiver)
	}
	wg.Wait()

	conversations, err := f.conversations.ListByUserID(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, conversations, 1)
	assert.Equal(t, 10, conversations[0].UnreadFor("alice")+conversations[0].UnreadFor("bob"))
}

func TestSendMessageValidation(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.uc.SendMessage(ctx, "alice", "bob", SendMessageInput{Text: "   "})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	_, err = f.uc.SendMessage(ctx, "alice", "alice", SendMessageInput{Text: "hi"})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	_, err = f.uc.SendMessage(ctx, "alice", "bob", SendMessageInput{Text: strings.Repeat("x", entity.MaxMessageTextLength+1)})
	assert.True(t, errors.Is(err, "BAD_REQUEST"))

	_, err = f.uc.SendMessage(ctx, "alice", "ghost", SendMessageInput{Text: "hi"})
	assert.True(t, errors.Is(err, "NOT_FOUND"))

	assert.Empty(t, f.messages.messages)
}

func TestSendMessageImageOnlyIsValid(t *testing.T) {
	f := newFixture()

	result, err := f.uc.SendMessage(context.Background(), "alice", "bob", SendMessageInput{
		Image:         "https://cdn.example.com/pic.png",
		ImagePublicID: "pic-1",
	})
	require.NoError(t, err)
	assert.Empty(t, result.Message.Text)
	assert.Equal(t, "https://cdn.example.com/pic.png", result.Message.Image)
}

func TestSendMessagePushesBothSignalsToOnlineReceiver(t *testing.T) {
	f := newFixture("bob")

	result, err := f.uc.SendMessage(context.Background(), "alice", "bob", SendMessageInput{Text: "hello"})
	require.NoError(t, err)

	newMsg := f.pusher.eventsOfType(ws.EventNewMessage)
	echo := f.pusher.eventsOfType(ws.EventMessageEcho)
	require.Len(t, newMsg, 1)
	require.Len(t, echo, 1)
	assert.Equal(t, "bob", newMsg[0].UserID)
	assert.Equal(t, "bob", echo[0].UserID)

	data := newMsg[0].Event.Data.(ws.NewMessageData)
	assert.Equal(t, result.Message.ID, data.Message.ID)
	assert.Equal(t, "Alice", data.Sender.FullName)
	assert.False(t, data.Message.IsRead)

	echoData := echo[0].Event.Data.(ws.MessageEchoData)
	assert.True(t, echoData.Message.IsRead)
	// The stored message stays unread; only the echo copy is pre-marked.
	assert.False(t, result.Message.IsRead)
}

func TestSendMessageNoPushWhenReceiverOffline(t *testing.T) {
	f := newFixture()

	_, err := f.uc.SendMessage(context.Background(), "alice", "bob", SendMessageInput{Text: "hello"})
	require.NoError(t, err)

	assert.Empty(t, f.pusher.events())
}

func TestSendMessageNeverPushesToSender(t *testing.T) {
	f := newFixture("alice", "bob")

	_, err := f.uc.SendMessage(context.Background(), "alice", "bob", SendMessageInput{Text: "hello"})
	require.NoError(t, err)

	for _, e := range f.pusher.events() {
		assert.NotEqual(t, "alice", e.UserID)
	}
}

func TestMarkConversationRead(t *testing.T) {
	f := newFixture("alice")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.uc.SendMessage(ctx, "alice", "bob", SendMessageInput{Text: "ping"})
		require.NoError(t, err)
	}

	require.NoError(t, f.uc.MarkConversationRead(ctx, "bob", "alice_bob"))

	conversation, err := f.conversations.GetByID(ctx, "alice_bob")
	require.NoError(t, err)
	assert.Equal(t, 0, conversation.UnreadFor("bob"))

	history, err := f.messages.ListBetween(ctx, "alice", "bob")
	require.NoError(t, err)
	for _, m := range history {
		assert.True(t, m.IsRead)
	}

	readEvents := f.pusher.eventsOfType(ws.EventConversationRead)
	require.Len(t, readEvents, 1)
	assert.Equal(t, "alice", readEvents[0].UserID)
	data := readEvents[0].Event.Data.(ws.ConversationReadData)
	assert.Equal(t, "alice_bob", data.ConversationID)
	assert.Equal(t, "bob", data.ReaderID)
}

func TestMarkConversationReadMissingConversation(t *testing.T) {
	f := newFixture()

	err := f.uc.MarkConversationRead(context.Background(), "bob", "nope_nope")
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestMarkConversationReadRejectsNonParticipant(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.uc.SendMessage(ctx, "alice", "bob", SendMessageInput{Text: "hi"})
	require.NoError(t, err)

	err = f.uc.MarkConversationRead(ctx, "carol", "alice_bob")
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestGetMessagesChronological(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.uc.SendMessage(ctx, "alice", "bob", SendMessageInput{Text: "one"})
	require.NoError(t, err)
	_, err = f.uc.SendMessage(ctx, "bob", "alice", SendMessageInput{Text: "two"})
	require.NoError(t, err)
	_, err = f.uc.SendMessage(ctx, "alice", "carol", SendMessageInput{Text: "other thread"})
	require.NoError(t, err)

	history, err := f.uc.GetMessages(ctx, "alice", "bob")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "one", history[0].Text)
	assert.Equal(t, "two", history[1].Text)
}

func TestGetMessagesUnknownPartner(t *testing.T) {
	f := newFixture()

	_, err := f.uc.GetMessages(context.Background(), "alice", "ghost")
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestGetChatPartnersAndContacts(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.uc.SendMessage(ctx, "alice", "bob", SendMessageInput{Text: "hi"})
	require.NoError(t, err)

	partners, err := f.uc.GetChatPartners(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, partners, 1)
	assert.Equal(t, "bob", partners[0].ID)

	contacts, err := f.uc.GetContacts(ctx, "alice")
	require.NoError(t, err)
	ids := make([]string, 0, len(contacts))
	for _, c := range contacts {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{aiID, "carol"}, ids)
}

func TestGetConversationsMostRecentFirst(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	_, err := f.uc.SendMessage(ctx, "alice", "bob", SendMessageInput{Text: "first thread"})
	require.NoError(t, err)
	_, err = f.uc.SendMessage(ctx, "alice", "carol", SendMessageInput{Text: "second thread"})
	require.NoError(t, err)

	conversations, err := f.uc.GetConversations(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, conversations, 2)
	assert.Equal(t, "alice_carol", conversations[0].ID)
	assert.Equal(t, "alice_bob", conversations[1].ID)
}
