package model

// Role identifies the author of a chat message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// DefaultChatTitle is what the server names a chat before it has been titled.
const DefaultChatTitle = "New chat"

// Chat is a conversation thread summary.
type Chat struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt Timestamp `json:"createdAt"`
	UpdatedAt Timestamp `json:"updatedAt"`
}

// ChatMessage is one entry of a conversation.
type ChatMessage struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	CreatedAt Timestamp `json:"createdAt"`
}

// ChatWithMessages is a chat plus its full ordered message sequence.
type ChatWithMessages struct {
	Chat
	Messages []ChatMessage `json:"messages"`
}

// ChatReply is the server's answer to a posted message.
type ChatReply struct {
	Reply              string `json:"reply"`
	UserMessageID      string `json:"userMessageId"`
	AssistantMessageID string `json:"assistantMessageId"`
}

// HistoryMessage is a role/content pair for the stateless ask endpoint.
type HistoryMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
