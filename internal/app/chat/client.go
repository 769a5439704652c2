/*
Package chat contains the core relay logic: the session registry, the broadcast router,
the hub event loop that serializes every connection event, and the WebSocket client pumps.

This file defines the Client struct, representing an active WebSocket connection. It manages
the connection lifecycle and the ReadPump and WritePump loops, and implements Conn for the Router.
*/
package chat

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"presencechat/internal/pkg/errs"
	"presencechat/internal/pkg/logx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10
)

// ClientOptions holds the per-connection limits.
type ClientOptions struct {
	// SendQueueSize is the capacity of the outbound queue. Payloads beyond it are dropped.
	SendQueueSize int

	// MaxMessageBytes is the largest inbound frame accepted.
	MaxMessageBytes int64

	// MessageRate and MessageBurst bound how fast the client may send messages.
	MessageRate  rate.Limit
	MessageBurst int
}

// Client represents an active WebSocket connection.
type Client struct {
	id string

	hub *Hub

	// underlying WebSocket connection object.
	conn *websocket.Conn

	// a buffered channel used to queue messages waiting to be sent to the client.
	send chan []byte

	// open is cleared as soon as a close is requested.
	open atomic.Bool

	// done is closed by Close; closeCode and closeReason are written before it.
	done        chan struct{}
	closeOnce   sync.Once
	closeCode   int
	closeReason string

	limiter         *rate.Limiter
	maxMessageBytes int64

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient constructs and returns a new Client instance.
func NewClient(hub *Hub, wsConn *websocket.Conn, id, remoteAddr string, opts ClientOptions) *Client {
	client := &Client{
		id:              id,
		hub:             hub,
		conn:            wsConn,
		send:            make(chan []byte, opts.SendQueueSize),
		done:            make(chan struct{}),
		limiter:         rate.NewLimiter(opts.MessageRate, opts.MessageBurst),
		maxMessageBytes: opts.MaxMessageBytes,
		logger:          logx.ForConn(id, remoteAddr),
	}
	client.open.Store(true)

	return client
}

// ID implements Conn.
func (c *Client) ID() string {
	return c.id
}

// IsOpen implements Conn.
func (c *Client) IsOpen() bool {
	return c.open.Load()
}

// Send implements Conn. Delivery is fire-and-forget: a full queue drops the payload.
func (c *Client) Send(payload []byte) bool {
	if !c.open.Load() {
		return false
	}

	select {
	case <-c.done:
		return false
	default:
	}

	select {
	case c.send <- payload:
		return true
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, dropping message")
		return false
	}
}

// Close implements Conn. The WritePump flushes already queued payloads, writes the
// close frame and closes the socket. Only the first call has an effect.
func (c *Client) Close(code int, reason string) {
	c.closeOnce.Do(func() {
		c.closeCode = code
		c.closeReason = reason
		c.open.Store(false)
		close(c.done)
	})
}

// ReadPump reads frames until the connection fails, forwarding each to the hub.
// It performs the close notification when it returns.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(c.maxMessageBytes)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if c.IsOpen() && websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				c.hub.ReportError(c, err)
			}
			break
		}

		if !c.limiter.Allow() {
			c.hub.Reject(c, errs.NewError(errs.ErrMessageRateExceeded))
			continue
		}

		c.hub.Inbound(c, messageBytes)
	}
}

// cleanupOnDisconnect runs when ReadPump terminates.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Debug().Msg("Client connection cleanup starting.")

	c.hub.Unregister(c)
	c.Close(websocket.CloseNormalClosure, "")
}

// WritePump writes queued payloads and heartbeats until the client is closed.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case message := <-c.send:
			if !c.writeFrame(websocket.TextMessage, message) {
				c.Close(websocket.CloseAbnormalClosure, "")
				return
			}

		case <-ticker.C:
			if !c.writeFrame(websocket.PingMessage, nil) {
				c.Close(websocket.CloseAbnormalClosure, "")
				return
			}

		case <-c.done:
			c.flushQueued()
			c.writeCloseFrame()
			return
		}
	}
}

// flushQueued writes whatever is still queued, such as an error envelope sent just before Close.
func (c *Client) flushQueued() {
	for {
		select {
		case message := <-c.send:
			if !c.writeFrame(websocket.TextMessage, message) {
				return
			}
		default:
			return
		}
	}
}

func (c *Client) writeCloseFrame() {
	if c.closeCode == websocket.CloseAbnormalClosure {
		return
	}

	closeMessage := websocket.FormatCloseMessage(c.closeCode, c.closeReason)
	if !c.writeFrame(websocket.CloseMessage, closeMessage) {
		c.logger.Debug().Int("close_code", c.closeCode).Msg("Failed to send close frame.")
	}
}

// writeFrame writes one frame under the write deadline. Returns false on failure.
func (c *Client) writeFrame(messageType int, data []byte) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if err := c.conn.WriteMessage(messageType, data); err != nil {
		c.logger.Debug().Err(err).Int("message_type", messageType).Msg("Error writing message")
		return false
	}

	return true
}
