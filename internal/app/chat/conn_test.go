package chat

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"presencechat/internal/app/audit"
)

// fakeConn records every payload sent to it.
type fakeConn struct {
	id string

	mu          sync.Mutex
	open        bool
	received    [][]byte
	closeCode   int
	closeReason string
}

func newFakeConn(id string) *fakeConn {
	return &fakeConn{id: id, open: true}
}

func (c *fakeConn) ID() string { return c.id }

func (c *fakeConn) Send(payload []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return false
	}
	c.received = append(c.received, payload)
	return true
}

func (c *fakeConn) IsOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.open
}

func (c *fakeConn) Close(code int, reason string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.open {
		return
	}
	c.open = false
	c.closeCode = code
	c.closeReason = reason
}

func (c *fakeConn) raw() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]string, 0, len(c.received))
	for _, payload := range c.received {
		out = append(out, string(payload))
	}
	return out
}

// messages decodes every received payload.
func (c *fakeConn) messages(t *testing.T) []map[string]any {
	t.Helper()

	raw := c.raw()
	out := make([]map[string]any, 0, len(raw))
	for _, payload := range raw {
		var msg map[string]any
		require.NoError(t, json.Unmarshal([]byte(payload), &msg))
		out = append(out, msg)
	}
	return out
}

func (c *fakeConn) types(t *testing.T) []string {
	t.Helper()

	msgs := c.messages(t)
	out := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		tag, _ := msg["type"].(string)
		out = append(out, tag)
	}
	return out
}

func (c *fakeConn) reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.received = nil
}

func (c *fakeConn) closedWith() (int, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closeCode, c.closeReason
}

// memoryRecorder keeps every audit event in order.
type memoryRecorder struct {
	mu     sync.Mutex
	events []audit.Event
}

func (r *memoryRecorder) Record(event audit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.events = append(r.events, event)
}

func (r *memoryRecorder) kinds() []audit.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]audit.Kind, 0, len(r.events))
	for _, event := range r.events {
		out = append(out, event.Kind)
	}
	return out
}

func usersOf(t *testing.T, msg map[string]any) []map[string]any {
	t.Helper()

	require.Equal(t, "user_list", msg["type"])
	list, ok := msg["users"].([]any)
	require.True(t, ok, "users must be a list: %v", msg)

	out := make([]map[string]any, 0, len(list))
	for _, entry := range list {
		out = append(out, entry.(map[string]any))
	}
	return out
}
