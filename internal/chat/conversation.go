// Package chat keeps the client-side state of one conversation: the ordered
// message list, optimistic user entries and error entries.
package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/rcliao/synapse/internal/logging"
	"github.com/rcliao/synapse/internal/model"
)

var (
	// ErrEmptyMessage is returned for blank input; nothing is sent.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrBusy is returned while a previous Send is still waiting for its reply.
	ErrBusy = errors.New("a reply is still pending")
	// ErrNoChat is returned by operations that need an active chat.
	ErrNoChat = errors.New("no active chat")
)

// Temporary ID prefixes for entries the server has not confirmed.
const (
	TempUserPrefix  = "temp-user-"
	TempErrorPrefix = "temp-err-"
)

// API is the subset of the memory API a conversation uses.
type API interface {
	CreateChat(ctx context.Context, title string) (*model.Chat, error)
	GetChat(ctx context.Context, id string) (*model.ChatWithMessages, error)
	SendMessage(ctx context.Context, chatID, text string) (*model.ChatReply, error)
	UpdateChatTitle(ctx context.Context, id, title string) (*model.Chat, error)
}

// Conversation is safe for concurrent use. Only one Send may be in flight.
type Conversation struct {
	api API
	log *zap.Logger

	mu       sync.Mutex
	chat     *model.Chat
	messages []model.ChatMessage
	sending  bool

	entropy io.Reader
}

// New returns a conversation with no active chat. The first Send creates one.
func New(api API, log *zap.Logger) *Conversation {
	return &Conversation{
		api:     api,
		log:     logging.OrNop(log),
		entropy: ulid.Monotonic(rand.New(rand.NewSource(time.Now().UnixNano())), 0),
	}
}

// tempID must be called with mu held.
func (c *Conversation) tempID(prefix string) string {
	return prefix + ulid.MustNew(ulid.Timestamp(time.Now()), c.entropy).String()
}

// Open makes chatID the active chat and loads its history. On failure the
// conversation is left with no active chat and no messages.
func (c *Conversation) Open(ctx context.Context, chatID string) error {
	ch, err := c.api.GetChat(ctx, chatID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.chat = nil
		c.messages = nil
		return err
	}
	summary := ch.Chat
	c.chat = &summary
	c.messages = append([]model.ChatMessage(nil), ch.Messages...)
	return nil
}

// Reset drops the active chat; the next Send starts a new one.
func (c *Conversation) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.chat = nil
	c.messages = nil
}

// Chat returns the active chat summary, if any.
func (c *Conversation) Chat() (model.Chat, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chat == nil {
		return model.Chat{}, false
	}
	return *c.chat, true
}

// Title is the active chat's title, or the default for a chat not yet created.
func (c *Conversation) Title() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chat == nil || c.chat.Title == "" {
		return model.DefaultChatTitle
	}
	return c.chat.Title
}

// Messages returns a copy of the message list in display order.
func (c *Conversation) Messages() []model.ChatMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]model.ChatMessage(nil), c.messages...)
}

// Sending reports whether a Send is waiting for its reply.
func (c *Conversation) Sending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sending
}

// Send posts text to the active chat, creating the chat first if needed.
//
// A user entry is appended before the request is made. On success its
// temporary ID is replaced by the server's and exactly one assistant entry
// follows it. On failure the user entry stays and exactly one assistant
// entry reading "Error: <msg>" is appended instead; the error is also
// returned. A failure to create the chat appends nothing.
func (c *Conversation) Send(ctx context.Context, text string) (model.ChatMessage, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return model.ChatMessage{}, ErrEmptyMessage
	}

	c.mu.Lock()
	if c.sending {
		c.mu.Unlock()
		return model.ChatMessage{}, ErrBusy
	}
	c.sending = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.sending = false
		c.mu.Unlock()
	}()

	chatID, err := c.ensureChat(ctx)
	if err != nil {
		return model.ChatMessage{}, fmt.Errorf("create chat: %w", err)
	}

	c.mu.Lock()
	tempID := c.tempID(TempUserPrefix)
	c.messages = append(c.messages, model.ChatMessage{
		ID:        tempID,
		Role:      model.RoleUser,
		Content:   text,
		CreatedAt: model.Now(),
	})
	c.mu.Unlock()

	reply, err := c.api.SendMessage(ctx, chatID, text)
	if err != nil {
		c.mu.Lock()
		c.messages = append(c.messages, model.ChatMessage{
			ID:        c.tempID(TempErrorPrefix),
			Role:      model.RoleAssistant,
			Content:   "Error: " + err.Error(),
			CreatedAt: model.Now(),
		})
		c.mu.Unlock()
		c.log.Debug("send failed", zap.String("chat_id", chatID), zap.Error(err))
		return model.ChatMessage{}, err
	}

	assistant := model.ChatMessage{
		ID:        reply.AssistantMessageID,
		Role:      model.RoleAssistant,
		Content:   reply.Reply,
		CreatedAt: model.Now(),
	}

	c.mu.Lock()
	if reply.UserMessageID != "" {
		for i := range c.messages {
			if c.messages[i].ID == tempID {
				c.messages[i].ID = reply.UserMessageID
				break
			}
		}
	}
	c.messages = append(c.messages, assistant)
	if c.chat != nil && c.chat.ID == chatID {
		c.chat.UpdatedAt = assistant.CreatedAt
	}
	c.mu.Unlock()

	c.refreshTitle(ctx, chatID)
	return assistant, nil
}

func (c *Conversation) ensureChat(ctx context.Context) (string, error) {
	c.mu.Lock()
	if c.chat != nil {
		id := c.chat.ID
		c.mu.Unlock()
		return id, nil
	}
	c.mu.Unlock()

	ch, err := c.api.CreateChat(ctx, "")
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.chat = ch
	c.messages = nil
	return ch.ID, nil
}

// refreshTitle picks up a title the server generated from the first exchange.
// The reply has already been recorded, so a failure here is only logged.
func (c *Conversation) refreshTitle(ctx context.Context, chatID string) {
	ch, err := c.api.GetChat(ctx, chatID)
	if err != nil {
		c.log.Debug("title refresh failed", zap.String("chat_id", chatID), zap.Error(err))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chat != nil && c.chat.ID == chatID {
		c.chat.Title = ch.Title
	}
}

// Rename sets the active chat's title. A blank title resets it to the default.
// On failure the local title is unchanged.
func (c *Conversation) Rename(ctx context.Context, title string) (model.Chat, error) {
	c.mu.Lock()
	if c.chat == nil {
		c.mu.Unlock()
		return model.Chat{}, ErrNoChat
	}
	chatID := c.chat.ID
	c.mu.Unlock()

	title = strings.TrimSpace(title)
	if title == "" {
		title = model.DefaultChatTitle
	}

	updated, err := c.api.UpdateChatTitle(ctx, chatID, title)
	if err != nil {
		return model.Chat{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chat != nil && c.chat.ID == updated.ID {
		c.chat.Title = updated.Title
		c.chat.UpdatedAt = updated.UpdatedAt
	}
	return *updated, nil
}
