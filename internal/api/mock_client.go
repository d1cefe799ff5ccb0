package api

import (
	"context"
	"io"
	"sync"

	"github.com/diogo/streamchat/internal/models"
)

// ChunkedBody is an io.ReadCloser that returns one chunk per Read call and
// then Err, or io.EOF when Err is nil. It simulates a streamed response.
type ChunkedBody struct {
	mu     sync.Mutex
	chunks [][]byte
	Err    error
	Closed bool
}

// NewChunkedBody creates a ChunkedBody from string chunks
func NewChunkedBody(err error, chunks ...string) *ChunkedBody {
	b := &ChunkedBody{Err: err}
	for _, c := range chunks {
		b.chunks = append(b.chunks, []byte(c))
	}
	return b
}

// NewChunkedBodyBytes creates a ChunkedBody from raw byte chunks
func NewChunkedBodyBytes(err error, chunks ...[]byte) *ChunkedBody {
	return &ChunkedBody{chunks: chunks, Err: err}
}

// Read implements io.Reader
func (b *ChunkedBody) Read(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.chunks) == 0 {
		if b.Err != nil {
			return 0, b.Err
		}
		return 0, io.EOF
	}

	n := copy(p, b.chunks[0])
	if n < len(b.chunks[0]) {
		b.chunks[0] = b.chunks[0][n:]
	} else {
		b.chunks = b.chunks[1:]
	}
	return n, nil
}

// Close implements io.Closer
func (b *ChunkedBody) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Closed = true
	return nil
}

// MockChatClient is a mock implementation of ChatClientInterface for testing
type MockChatClient struct {
	mu sync.Mutex

	// Mock return values
	EndpointVal string
	Body        io.ReadCloser
	StreamErr   error
	IsClosedVal bool

	// Call recorders
	StreamCalls int
	Histories   [][]models.Message
	CloseCalled bool
}

// Ensure MockChatClient implements ChatClientInterface
var _ ChatClientInterface = (*MockChatClient)(nil)

// NewMockChatClient returns a mock whose next stream yields the given chunks
func NewMockChatClient(chunks ...string) *MockChatClient {
	return &MockChatClient{
		EndpointVal: DefaultEndpoint,
		Body:        NewChunkedBody(nil, chunks...),
	}
}

func (m *MockChatClient) StreamChat(ctx context.Context, history []models.Message) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.StreamCalls++
	recorded := make([]models.Message, len(history))
	copy(recorded, history)
	m.Histories = append(m.Histories, recorded)

	if m.StreamErr != nil {
		return nil, m.StreamErr
	}
	return m.Body, nil
}

// LastHistory returns the history passed to the most recent StreamChat call
func (m *MockChatClient) LastHistory() []models.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Histories) == 0 {
		return nil
	}
	return m.Histories[len(m.Histories)-1]
}

func (m *MockChatClient) Endpoint() string {
	return m.EndpointVal
}

func (m *MockChatClient) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CloseCalled = true
}

func (m *MockChatClient) IsClosed() bool {
	return m.IsClosedVal
}
