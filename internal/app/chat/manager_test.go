package chat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"presencechat/internal/app/audit"
)

type closingRecorder struct {
	memoryRecorder
	closed bool
}

func (r *closingRecorder) Close() { r.closed = true }

func testClientOptions() ClientOptions {
	return ClientOptions{
		SendQueueSize:   16,
		MaxMessageBytes: 4096,
		MessageRate:     rate.Inf,
		MessageBurst:    1,
	}
}

func TestManagerPresenceAndShutdown(t *testing.T) {
	rec := &closingRecorder{}
	m := NewManager(rec, testClientOptions())

	a := newFakeConn("a")
	require.True(t, m.Hub().Register(a))
	m.Hub().Inbound(a, []byte(`{"type":"join","username":"alice","color":"#fff"}`))

	users, err := m.Presence(context.Background())
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, 1, m.JoinedCount())
	require.Equal(t, []audit.Kind{audit.KindJoin}, rec.kinds())

	m.Shutdown()
	m.Shutdown()

	require.True(t, rec.closed)
	require.False(t, a.IsOpen())
}

func TestManagerDefaultsToNopRecorder(t *testing.T) {
	m := NewManager(nil, testClientOptions())
	defer m.Shutdown()

	_, err := m.Presence(context.Background())
	require.NoError(t, err)
}
