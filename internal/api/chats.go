package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/rcliao/synapse/internal/model"
)

type createChatBody struct {
	Title *string `json:"title,omitempty"`
}

type sendMessageBody struct {
	Message string `json:"message"`
}

type updateChatBody struct {
	Title string `json:"title"`
}

type askBody struct {
	Message string                 `json:"message"`
	History []model.HistoryMessage `json:"history"`
}

// ListChats returns chat summaries in server order.
func (c *Client) ListChats(ctx context.Context) ([]model.Chat, error) {
	var out []model.Chat
	err := c.do(ctx, request{method: http.MethodGet, path: "/api/chats"}, &out)
	return out, err
}

// CreateChat starts a conversation. An empty title lets the server pick one.
func (c *Client) CreateChat(ctx context.Context, title string) (*model.Chat, error) {
	body := createChatBody{}
	if title != "" {
		body.Title = &title
	}
	var ch model.Chat
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/chats", body: body}, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// GetChat returns a chat with its full message history.
func (c *Client) GetChat(ctx context.Context, id string) (*model.ChatWithMessages, error) {
	if err := requireID("get chat", "chat id", id); err != nil {
		return nil, err
	}
	var ch model.ChatWithMessages
	if err := c.do(ctx, request{method: http.MethodGet, path: pathf("/api/chats/%s", id)}, &ch); err != nil {
		return nil, err
	}
	return &ch, nil
}

// SendMessage posts a user message and waits for the assistant's reply.
func (c *Client) SendMessage(ctx context.Context, chatID, text string) (*model.ChatReply, error) {
	if err := requireID("send message", "chat id", chatID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, &ValidationError{Op: "send message", Fields: []string{"message is required"}}
	}
	var reply model.ChatReply
	err := c.do(ctx, request{
		method: http.MethodPost,
		path:   pathf("/api/chats/%s/messages", chatID),
		body:   sendMessageBody{Message: text},
	}, &reply)
	if err != nil {
		return nil, err
	}
	return &reply, nil
}

// DeleteChat removes a chat and its messages.
func (c *Client) DeleteChat(ctx context.Context, id string) error {
	if err := requireID("delete chat", "chat id", id); err != nil {
		return err
	}
	return c.do(ctx, request{method: http.MethodDelete, path: pathf("/api/chats/%s", id)}, nil)
}

// UpdateChatTitle renames a chat; only the title is sent.
func (c *Client) UpdateChatTitle(ctx context.Context, id, title string) (*model.Chat, error) {
	if err := requireID("update chat", "chat id", id); err != nil {
		return nil, err
	}
	var ch model.Chat
	err := c.do(ctx, request{method: http.MethodPatch, path: pathf("/api/chats/%s", id), body: updateChatBody{Title: title}}, &ch)
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

// Ask is the stateless chat endpoint: the caller carries the history.
func (c *Client) Ask(ctx context.Context, message string, history []model.HistoryMessage) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", &ValidationError{Op: "ask", Fields: []string{"message is required"}}
	}
	if history == nil {
		history = []model.HistoryMessage{}
	}
	var out struct {
		Reply string `json:"reply"`
	}
	if err := c.do(ctx, request{method: http.MethodPost, path: "/api/chat", body: askBody{Message: message, History: history}}, &out); err != nil {
		return "", err
	}
	return out.Reply, nil
}
