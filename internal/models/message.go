// Package models contains the data types exchanged with the chat endpoint.
package models

// Role identifies the author of a message
type Role string

// Message roles understood by the chat endpoint
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ErrorMessageText is the assistant text shown when a response could not be obtained
const ErrorMessageText = "Error: Failed to get response."

// Message represents a single chat message
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// IsUser reports whether the message was written by the user
func (m Message) IsUser() bool {
	return m.Role == RoleUser
}

// IsAssistant reports whether the message was produced by the assistant
func (m Message) IsAssistant() bool {
	return m.Role == RoleAssistant
}

// ChatRequest is the JSON body posted to the chat endpoint
type ChatRequest struct {
	Messages []Message `json:"messages"`
}

// NewChatRequest builds a request carrying a copy of the given history
func NewChatRequest(history []Message) ChatRequest {
	msgs := make([]Message, len(history))
	copy(msgs, history)
	return ChatRequest{Messages: msgs}
}
