// Package chat holds the conversation state and drives one streamed
// request/response cycle per user submission.
package chat

import (
	"sync"

	"github.com/diogo/streamchat/internal/models"
)

// Snapshot is an immutable copy of the conversation state
type Snapshot struct {
	Messages []models.Message
	Input    string
	Loading  bool
}

// Last returns the final message and whether one exists
func (s Snapshot) Last() (models.Message, bool) {
	if len(s.Messages) == 0 {
		return models.Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Observer is notified with a snapshot after every mutation.
// Observers must not mutate the conversation they observe.
type Observer func(Snapshot)

// Conversation owns the ordered messages, the input buffer and the loading
// flag of a single in-memory chat. Observers run outside the lock, in
// mutation order.
type Conversation struct {
	mu        sync.Mutex
	notifyMu  sync.Mutex
	messages  []models.Message
	input     string
	loading   bool
	observers []Observer
}

// NewConversation creates an empty conversation
func NewConversation() *Conversation {
	return &Conversation{
		messages: []models.Message{},
	}
}

// Subscribe registers an observer for state changes
func (c *Conversation) Subscribe(o Observer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.observers = append(c.observers, o)
}

// Messages returns a copy of the message sequence
func (c *Conversation) Messages() []models.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.copyMessagesLocked()
}

// Input returns the current input text
func (c *Conversation) Input() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.input
}

// Loading reports whether a request is in flight
func (c *Conversation) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Snapshot returns a copy of the full state
func (c *Conversation) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// AppendUserMessage appends a user message
func (c *Conversation) AppendUserMessage(text string) {
	c.mutate(func() {
		c.messages = append(c.messages, models.Message{Role: models.RoleUser, Content: text})
	})
}

// AppendPlaceholder appends an empty assistant message to be filled by the stream
func (c *Conversation) AppendPlaceholder() {
	c.AppendAssistantMessage("")
}

// AppendAssistantMessage appends an assistant message with the given content
func (c *Conversation) AppendAssistantMessage(text string) {
	c.mutate(func() {
		c.messages = append(c.messages, models.Message{Role: models.RoleAssistant, Content: text})
	})
}

// ReplaceLastMessage replaces the content of the last message, keeping its
// role. It does nothing on an empty conversation.
func (c *Conversation) ReplaceLastMessage(text string) {
	c.mutate(func() {
		if len(c.messages) == 0 {
			return
		}
		c.messages[len(c.messages)-1].Content = text
	})
}

// SetInput sets the input buffer
func (c *Conversation) SetInput(text string) {
	c.mutate(func() {
		c.input = text
	})
}

// SetLoading sets the loading flag
func (c *Conversation) SetLoading(loading bool) {
	c.mutate(func() {
		c.loading = loading
	})
}

// mutate applies fn under the lock and then notifies observers. notifyMu keeps
// notifications in the same order as the mutations they describe.
func (c *Conversation) mutate(fn func()) {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	fn()
	snap := c.snapshotLocked()
	observers := make([]Observer, len(c.observers))
	copy(observers, c.observers)
	c.mu.Unlock()

	for _, o := range observers {
		o(snap)
	}
}

func (c *Conversation) snapshotLocked() Snapshot {
	return Snapshot{
		Messages: c.copyMessagesLocked(),
		Input:    c.input,
		Loading:  c.loading,
	}
}

func (c *Conversation) copyMessagesLocked() []models.Message {
	msgs := make([]models.Message, len(c.messages))
	copy(msgs, c.messages)
	return msgs
}
