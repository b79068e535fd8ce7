package chat

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/synapse/internal/api"
	"github.com/rcliao/synapse/internal/model"
)

type fakeAPI struct {
	mu sync.Mutex

	chats   map[string]*model.ChatWithMessages
	nextID  int
	calls   []string
	titleOn string // title the server assigns after the first reply

	createErr error
	sendErr   error
	getErr    error
	renameErr error

	// block, when set, is waited on inside SendMessage.
	block chan struct{}
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{chats: map[string]*model.ChatWithMessages{}}
}

func (f *fakeAPI) record(call string) {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	f.mu.Unlock()
}

func (f *fakeAPI) CreateChat(_ context.Context, title string) (*model.Chat, error) {
	f.record("create")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	if title == "" {
		title = model.DefaultChatTitle
	}
	ch := &model.ChatWithMessages{Chat: model.Chat{ID: "c" + string(rune('0'+f.nextID)), Title: title}}
	f.chats[ch.ID] = ch
	out := ch.Chat
	return &out, nil
}

func (f *fakeAPI) GetChat(_ context.Context, id string) (*model.ChatWithMessages, error) {
	f.record("get")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	ch, ok := f.chats[id]
	if !ok {
		return nil, &api.Error{StatusCode: 404, Message: "Chat not found"}
	}
	out := *ch
	out.Messages = append([]model.ChatMessage(nil), ch.Messages...)
	return &out, nil
}

func (f *fakeAPI) SendMessage(_ context.Context, chatID, text string) (*model.ChatReply, error) {
	f.record("send")
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	ch := f.chats[chatID]
	n := len(ch.Messages)
	userID := "srv-u" + string(rune('0'+n))
	asstID := "srv-a" + string(rune('0'+n))
	ch.Messages = append(ch.Messages,
		model.ChatMessage{ID: userID, Role: model.RoleUser, Content: text},
		model.ChatMessage{ID: asstID, Role: model.RoleAssistant, Content: "echo: " + text},
	)
	if f.titleOn != "" {
		ch.Title = f.titleOn
	}
	return &model.ChatReply{Reply: "echo: " + text, UserMessageID: userID, AssistantMessageID: asstID}, nil
}

func (f *fakeAPI) UpdateChatTitle(_ context.Context, id, title string) (*model.Chat, error) {
	f.record("rename:" + title)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.renameErr != nil {
		return nil, f.renameErr
	}
	ch := f.chats[id]
	ch.Title = title
	out := ch.Chat
	return &out, nil
}

func TestSendCreatesChatAndReconciles(t *testing.T) {
	fake := newFakeAPI()
	fake.titleOn = "Greetings"
	c := New(fake, nil)

	_, ok := c.Chat()
	assert.False(t, ok)
	assert.Equal(t, model.DefaultChatTitle, c.Title())

	reply, err := c.Send(context.Background(), "  hello  ")
	require.NoError(t, err)
	assert.Equal(t, "srv-a0", reply.ID)
	assert.Equal(t, "echo: hello", reply.Content)

	msgs := c.Messages()
	require.Len(t, msgs, 2)
	assert.Equal(t, model.RoleUser, msgs[0].Role)
	assert.Equal(t, "hello", msgs[0].Content)
	assert.Equal(t, "srv-u0", msgs[0].ID, "temporary id replaced in place")
	assert.Equal(t, model.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "srv-a0", msgs[1].ID)

	ch, ok := c.Chat()
	require.True(t, ok)
	assert.Equal(t, "c1", ch.ID)
	assert.Equal(t, "Greetings", c.Title())
	assert.Equal(t, []string{"create", "send", "get"}, fake.calls)
}

func TestSendAppendsExactlyOnePairPerMessage(t *testing.T) {
	c := New(newFakeAPI(), nil)
	ctx := context.Background()

	for _, text := range []string{"one", "two", "three"} {
		_, err := c.Send(ctx, text)
		require.NoError(t, err)
	}

	msgs := c.Messages()
	require.Len(t, msgs, 6)
	for i, m := range msgs {
		want := model.RoleUser
		if i%2 == 1 {
			want = model.RoleAssistant
		}
		assert.Equal(t, want, m.Role, "entry %d", i)
		assert.False(t, strings.HasPrefix(m.ID, "temp-"), "entry %d still temporary", i)
	}
}

func TestSendFailureAppendsErrorEntry(t *testing.T) {
	fake := newFakeAPI()
	c := New(fake, nil)
	ctx := context.Background()
	_, err := c.Send(ctx, "first")
	require.NoError(t, err)

	fake.sendErr = &api.Error{StatusCode: 502, Message: "model unavailable"}
	_, err = c.Send(ctx, "second")
	require.Error(t, err)
	assert.Equal(t, "model unavailable", err.Error())

	msgs := c.Messages()
	require.Len(t, msgs, 4)
	user, errEntry := msgs[2], msgs[3]
	assert.Equal(t, model.RoleUser, user.Role)
	assert.Equal(t, "second", user.Content)
	assert.True(t, strings.HasPrefix(user.ID, TempUserPrefix), user.ID)

	assert.Equal(t, model.RoleAssistant, errEntry.Role)
	assert.Equal(t, "Error: model unavailable", errEntry.Content)
	assert.True(t, strings.HasPrefix(errEntry.ID, TempErrorPrefix), errEntry.ID)
	assert.NotEqual(t, user.ID, errEntry.ID)
}

func TestSendCreateChatFailureAppendsNothing(t *testing.T) {
	fake := newFakeAPI()
	fake.createErr = errors.New("connection refused")
	c := New(fake, nil)

	_, err := c.Send(context.Background(), "hello")
	require.Error(t, err)
	assert.Empty(t, c.Messages())
	_, ok := c.Chat()
	assert.False(t, ok)
	assert.NotContains(t, fake.calls, "send")
}

func TestSendTitleRefreshFailureIsNotAnError(t *testing.T) {
	fake := newFakeAPI()
	c := New(fake, nil)
	ctx := context.Background()
	require.NoError(t, c.Open(ctx, mustCreate(t, fake)))

	fake.getErr = errors.New("timeout")
	_, err := c.Send(ctx, "hello")
	require.NoError(t, err)
	assert.Len(t, c.Messages(), 2)
}

func TestSendRejectsBlank(t *testing.T) {
	fake := newFakeAPI()
	c := New(fake, nil)

	_, err := c.Send(context.Background(), " \n\t")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	assert.Empty(t, fake.calls)
}

func TestSendWhileBusy(t *testing.T) {
	fake := newFakeAPI()
	fake.block = make(chan struct{})
	c := New(fake, nil)
	ctx := context.Background()
	require.NoError(t, c.Open(ctx, mustCreate(t, fake)))

	done := make(chan error, 1)
	go func() {
		_, err := c.Send(ctx, "slow")
		done <- err
	}()

	require.Eventually(t, func() bool { return len(c.Messages()) == 1 }, timeout, tick)
	assert.True(t, c.Sending())
	msgs := c.Messages()
	assert.True(t, strings.HasPrefix(msgs[0].ID, TempUserPrefix), "optimistic entry visible while pending")

	_, err := c.Send(ctx, "impatient")
	assert.ErrorIs(t, err, ErrBusy)

	close(fake.block)
	require.NoError(t, <-done)
	assert.False(t, c.Sending())
	assert.Len(t, c.Messages(), 2)
}

func TestOpenLoadsHistory(t *testing.T) {
	fake := newFakeAPI()
	c := New(fake, nil)
	ctx := context.Background()
	id := mustCreate(t, fake)
	other := New(fake, nil)
	require.NoError(t, other.Open(ctx, id))
	_, err := other.Send(ctx, "x")
	require.NoError(t, err)
	require.NoError(t, c.Open(ctx, id))

	assert.Len(t, c.Messages(), 2)
	ch, ok := c.Chat()
	require.True(t, ok)
	assert.Equal(t, id, ch.ID)
}

func TestOpenMissingChat(t *testing.T) {
	c := New(newFakeAPI(), nil)

	err := c.Open(context.Background(), "nope")
	assert.ErrorIs(t, err, api.ErrNotFound)
	_, ok := c.Chat()
	assert.False(t, ok)
	assert.Empty(t, c.Messages())
}

func TestRename(t *testing.T) {
	fake := newFakeAPI()
	c := New(fake, nil)
	ctx := context.Background()

	_, err := c.Rename(ctx, "x")
	assert.ErrorIs(t, err, ErrNoChat)

	require.NoError(t, c.Open(ctx, mustCreate(t, fake)))

	ch, err := c.Rename(ctx, "  Trip  ")
	require.NoError(t, err)
	assert.Equal(t, "Trip", ch.Title)
	assert.Equal(t, "Trip", c.Title())

	_, err = c.Rename(ctx, "   ")
	require.NoError(t, err)
	assert.Equal(t, model.DefaultChatTitle, c.Title())
	assert.Contains(t, fake.calls, "rename:"+model.DefaultChatTitle)

	fake.renameErr = errors.New("boom")
	_, err = c.Rename(ctx, "Other")
	require.Error(t, err)
	assert.Equal(t, model.DefaultChatTitle, c.Title(), "title unchanged on failure")
}

func TestReset(t *testing.T) {
	fake := newFakeAPI()
	c := New(fake, nil)
	_, err := c.Send(context.Background(), "hi")
	require.NoError(t, err)

	c.Reset()
	_, ok := c.Chat()
	assert.False(t, ok)
	assert.Empty(t, c.Messages())

	_, err = c.Send(context.Background(), "again")
	require.NoError(t, err)
	ch, _ := c.Chat()
	assert.Equal(t, "c2", ch.ID)
}

func mustCreate(t *testing.T, fake *fakeAPI) string {
	t.Helper()
	ch, err := fake.CreateChat(context.Background(), "")
	require.NoError(t, err)
	fake.calls = nil
	return ch.ID
}

const (
	timeout = 2 * time.Second
	tick    = 5 * time.Millisecond
)
