package websocket

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockClient is a test double for Client that captures sent messages
type mockClient struct {
	id       string
	subject  string
	messages [][]byte
	mu       sync.Mutex
	closed   bool
}

func newMockClient(id, subject string) *mockClient {
	return &mockClient{
		id:       id,
		subject:  subject,
		messages: make([][]byte, 0),
	}
}

func (m *mockClient) ID() string {
	return m.id
}

func (m *mockClient) Subject() string {
	return m.subject
}

func (m *mockClient) Send(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClientClosed
	}
	m.messages = append(m.messages, data)
	return nil
}

func (m *mockClient) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *mockClient) GetMessages() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	copied := make([][]byte, len(m.messages))
	copy(copied, m.messages)
	return copied
}

func TestHub_RegisterUnregister(t *testing.T) {
	hub := NewHub()

	client1 := newMockClient("client-1", "auth0|a")
	client2 := newMockClient("client-2", "auth0|b")

	hub.Register(client1)
	hub.Register(client2)
	assert.Equal(t, 2, hub.ClientCount())

	hub.Unregister(client1)
	assert.Equal(t, 1, hub.ClientCount())

	// Unregistering twice is harmless.
	hub.Unregister(client1)
	hub.Unregister(client2)
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_BroadcastReachesAllSessions(t *testing.T) {
	hub := NewHub()

	client1 := newMockClient("client-1", "auth0|a")
	client2 := newMockClient("client-2", "auth0|b")
	hub.Register(client1)
	hub.Register(client2)

	evt := NewEvent(EventTypeApplied, EntityTypePayment, map[string]interface{}{"id": float64(42)})
	hub.Broadcast(evt)

	// Give send goroutines time to run.
	time.Sleep(10 * time.Millisecond)

	for _, client := range []*mockClient{client1, client2} {
		msgs := client.GetMessages()
		require.Len(t, msgs, 1)

		var decoded Event
		require.NoError(t, json.Unmarshal(msgs[0], &decoded))
		assert.Equal(t, "payment.applied", decoded.Type)
		assert.Equal(t, EntityTypePayment, decoded.Entity)
	}
}

func TestHub_BroadcastWithNoClients(t *testing.T) {
	hub := NewHub()
	// Must not panic or block.
	hub.Broadcast(NewEvent(EventTypeCreated, EntityTypeLoan, nil))
	assert.Equal(t, 0, hub.ClientCount())
}
