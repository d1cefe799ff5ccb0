package chat

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/diogo/streamchat/internal/api"
	apierrors "github.com/diogo/streamchat/internal/errors"
	"github.com/diogo/streamchat/internal/models"
	"github.com/diogo/streamchat/internal/stream"
)

// Session runs the submit/stream cycle against a conversation. At most one
// request is in flight at a time; the conversation's loading flag gates it.
type Session struct {
	conv      *Conversation
	client    api.ChatClientInterface
	logger    *slog.Logger
	chunkSize int
	mu        sync.Mutex
}

// SessionOption configures a Session
type SessionOption func(*Session)

// WithLogger sets the logger used for pipeline diagnostics
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithChunkSize sets the maximum number of bytes pulled per stream read
func WithChunkSize(size int) SessionOption {
	return func(s *Session) {
		s.chunkSize = size
	}
}

// NewSession creates a Session bound to conv and client
func NewSession(conv *Conversation, client api.ChatClientInterface, opts ...SessionOption) *Session {
	s := &Session{
		conv:      conv,
		client:    client,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		chunkSize: stream.DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Conversation returns the conversation driven by the session
func (s *Session) Conversation() *Conversation {
	return s.conv
}

// Busy reports whether a request is in flight
func (s *Session) Busy() bool {
	return s.conv.Loading()
}

// Begin accepts the current input as a submission. It returns false, and
// changes nothing, when the trimmed input is empty or a request is in flight.
// Otherwise it clears the input, appends the user message and an empty
// assistant placeholder, sets loading, and returns the history to send: every
// message except the placeholder.
func (s *Session) Begin() ([]models.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.beginLocked()
}

func (s *Session) beginLocked() ([]models.Message, bool) {
	input := s.conv.Input()
	if strings.TrimSpace(input) == "" || s.conv.Loading() {
		return nil, false
	}

	s.conv.SetInput("")
	s.conv.AppendUserMessage(input)
	s.conv.AppendPlaceholder()
	s.conv.SetLoading(true)

	msgs := s.conv.Messages()
	return msgs[:len(msgs)-1], true
}

// Stream sends history and applies the streamed fragments to the last
// message. Each fragment replaces the placeholder's content with everything
// received so far. On failure a separate assistant message carrying
// models.ErrorMessageText is appended. Loading is cleared on every path.
// The returned error has already been reflected in the conversation.
func (s *Session) Stream(ctx context.Context, history []models.Message) (err error) {
	defer s.conv.SetLoading(false)
	defer func() {
		if err != nil {
			s.logger.Error("chat stream failed",
				"endpoint", s.client.Endpoint(),
				"error", err,
			)
			s.conv.AppendAssistantMessage(models.ErrorMessageText)
		}
	}()

	body, err := s.client.StreamChat(ctx, history)
	if err != nil {
		return err
	}
	if body == nil {
		return apierrors.ErrNoBody
	}
	defer body.Close()

	reader := stream.NewReader(body, stream.WithChunkSize(s.chunkSize))

	var content strings.Builder
	fragments := 0
	for {
		frags, readErr := reader.Next()
		for _, frag := range frags {
			content.WriteString(frag)
			fragments++
			s.conv.ReplaceLastMessage(content.String())
		}

		if readErr == io.EOF {
			s.logger.Debug("chat stream completed",
				"fragments", fragments,
				"bytes", reader.Received(),
			)
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

// Submit runs Begin followed by Stream. It returns false when the submission
// was ignored.
func (s *Session) Submit(ctx context.Context) (bool, error) {
	history, ok := s.Begin()
	if !ok {
		return false, nil
	}
	return true, s.Stream(ctx, history)
}

// SubmitText sets the input buffer to text and submits it. Nothing changes
// while a request is in flight.
func (s *Session) SubmitText(ctx context.Context, text string) (bool, error) {
	s.mu.Lock()
	if s.conv.Loading() {
		s.mu.Unlock()
		return false, nil
	}
	s.conv.SetInput(text)
	history, ok := s.beginLocked()
	s.mu.Unlock()

	if !ok {
		return false, nil
	}
	return true, s.Stream(ctx, history)
}
