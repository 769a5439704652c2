package chat

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"presencechat/internal/app/user"
	"presencechat/internal/pkg/errs"
)

func startHub(t *testing.T) *Hub {
	t.Helper()

	hub := NewHub(newTestRouter())
	go hub.Run()

	t.Cleanup(func() {
		hub.Stop()
		<-hub.Done()
	})

	return hub
}

// presence doubles as a barrier: the hub answers only after earlier events are handled.
func presence(t *testing.T, hub *Hub) []user.Identity {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	users, err := hub.Presence(ctx)
	require.NoError(t, err)
	return users
}

func TestHubSerializesJoinAndClose(t *testing.T) {
	hub := startHub(t)
	a, b := newFakeConn("a"), newFakeConn("b")

	require.True(t, hub.Register(a))
	require.True(t, hub.Register(b))

	hub.Inbound(a, []byte(`{"type":"join","username":"alice","color":"#fff"}`))
	require.Equal(t, []user.Identity{{Username: "alice", Color: "#fff"}}, presence(t, hub))

	require.Equal(t, []string{"user_list", "user_list"}, a.types(t))
	require.Equal(t, []string{"join"}, b.types(t))

	resetAll(a, b)
	hub.Unregister(a)
	require.Empty(t, presence(t, hub))

	require.Equal(t, []string{"leave"}, b.types(t))
	require.Empty(t, a.raw(), "a closed connection is not part of its own leave fan-out")
}

func TestHubIgnoresUnknownConnections(t *testing.T) {
	hub := startHub(t)
	a, stranger := newFakeConn("a"), newFakeConn("stranger")
	require.True(t, hub.Register(a))

	hub.Inbound(stranger, []byte(`{"type":"request_users"}`))
	hub.Unregister(stranger)
	presence(t, hub)

	require.Empty(t, stranger.raw())
	require.Empty(t, a.raw())
}

func TestHubUnregisterIsHandledOnce(t *testing.T) {
	hub := startHub(t)
	a, b := newFakeConn("a"), newFakeConn("b")
	require.True(t, hub.Register(a))
	require.True(t, hub.Register(b))

	hub.Inbound(a, []byte(`{"type":"join","username":"alice","color":"#fff"}`))
	presence(t, hub)
	resetAll(a, b)

	hub.Unregister(a)
	hub.Unregister(a)
	presence(t, hub)

	require.Equal(t, []string{"leave"}, b.types(t))
}

func TestHubTransportErrorIsObservedOnly(t *testing.T) {
	hub := startHub(t)
	a, b := newFakeConn("a"), newFakeConn("b")
	require.True(t, hub.Register(a))
	require.True(t, hub.Register(b))
	hub.Inbound(a, []byte(`{"type":"join","username":"alice","color":"#fff"}`))
	presence(t, hub)
	resetAll(a, b)

	hub.ReportError(a, errors.New("read: connection reset"))

	require.Len(t, presence(t, hub), 1)
	require.Empty(t, a.raw())
	require.Empty(t, b.raw())
}

func TestHubStopClosesConnections(t *testing.T) {
	hub := NewHub(newTestRouter())
	go hub.Run()

	a := newFakeConn("a")
	require.True(t, hub.Register(a))

	hub.Stop()
	hub.Stop()
	<-hub.Done()

	code, _ := a.closedWith()
	require.Equal(t, websocket.CloseGoingAway, code)

	require.False(t, hub.Register(newFakeConn("late")))
	hub.Inbound(a, []byte(`{}`))
	hub.Unregister(a)
	hub.ReportError(a, errors.New("late"))
	hub.Reject(a, errs.NewError(errs.ErrMessageRateExceeded))

	_, err := hub.Presence(context.Background())
	require.True(t, errors.Is(err, errs.NewError(errs.ErrServiceUnavailable)))
}

func TestHubPresenceHonorsContext(t *testing.T) {
	hub := NewHub(newTestRouter())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := hub.Presence(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestHubDropsMessagesFromClosingConnection(t *testing.T) {
	hub := startHub(t)
	a, b := newFakeConn("a"), newFakeConn("b")
	require.True(t, hub.Register(a))
	require.True(t, hub.Register(b))

	hub.Inbound(a, []byte(`{"type":"join","username":"","color":""}`))
	hub.Inbound(a, []byte(`{"type":"request_users"}`))
	presence(t, hub)

	require.Equal(t, []string{"error"}, a.types(t))
	require.Empty(t, b.raw())
}

func TestHubRejectionFollowsEarlierReplies(t *testing.T) {
	hub := startHub(t)
	a := newFakeConn("a")
	require.True(t, hub.Register(a))

	hub.Inbound(a, []byte(`{"type":"request_users"}`))
	hub.Reject(a, errs.NewError(errs.ErrMessageRateExceeded))
	presence(t, hub)

	msgs := a.messages(t)
	require.Len(t, msgs, 2)
	require.Equal(t, "user_list", msgs[0]["type"])
	require.Equal(t, "error", msgs[1]["type"])
	require.Equal(t, "Too many messages. Please slow down.", msgs[1]["message"])
}

func TestHubIgnoresRejectionForUnknownConnection(t *testing.T) {
	hub := startHub(t)
	stranger := newFakeConn("stranger")

	hub.Reject(stranger, errs.NewError(errs.ErrMessageRateExceeded))
	presence(t, hub)

	require.Empty(t, stranger.raw())
}
