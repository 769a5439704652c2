/*
Package chat contains the core relay logic: the session registry, the broadcast router,
the hub event loop that serializes every connection event, and the WebSocket client pumps.

This file defines the Hub, which owns the set of open connections and runs the single
event loop that feeds connect, message, close and error events to the Router one at a time.
*/
package chat

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"presencechat/internal/app/user"
	"presencechat/internal/pkg/errs"
	"presencechat/internal/pkg/logx"
)

// inboundEvent is a payload received on conn, or a rejection decided by the transport
// for a payload it refused to forward.
type inboundEvent struct {
	conn      Conn
	payload   []byte
	rejection *errs.CustomError
}

type transportError struct {
	conn Conn
	err  error
}

// Hub serializes every event from every connection.
type Hub struct {
	router *Router

	// conns is the transport-level open set. Only the Run goroutine touches it.
	conns map[Conn]struct{}

	register     chan Conn
	unregister   chan Conn
	inbound      chan inboundEvent
	transportErr chan transportError
	presence     chan chan []user.Identity

	// stopChan signals Run to exit; done is closed once it has.
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	logger zerolog.Logger
}

// NewHub creates a Hub dispatching to router. Call Run to start it.
func NewHub(router *Router) *Hub {
	return &Hub{
		router:       router,
		conns:        make(map[Conn]struct{}),
		register:     make(chan Conn),
		unregister:   make(chan Conn),
		inbound:      make(chan inboundEvent),
		transportErr: make(chan transportError),
		presence:     make(chan chan []user.Identity),
		stopChan:     make(chan struct{}),
		done:         make(chan struct{}),
		logger:       logx.Component("hub"),
	}
}

// Run is the event loop. It returns after Stop, closing every connection still open.
func (h *Hub) Run() {
	defer func() {
		for c := range h.conns {
			c.Close(websocket.CloseGoingAway, "server shutting down")
		}
		h.conns = nil

		close(h.done)
		h.logger.Info().Msg("Hub Run loop finished.")
	}()

	h.logger.Info().Msg("Hub Run loop started.")

	for {
		select {
		case c := <-h.register:
			h.conns[c] = struct{}{}
			h.logger.Info().
				Str("conn_id", c.ID()).
				Int("open_conns", len(h.conns)).
				Msg("Connection opened.")

		case ev := <-h.inbound:
			if _, ok := h.conns[ev.conn]; !ok || !ev.conn.IsOpen() {
				h.logger.Debug().Str("conn_id", ev.conn.ID()).Msg("Ignoring message from unknown or closing connection.")
				continue
			}
			var err error
			if ev.rejection != nil {
				err = h.router.reject(ev.conn, ev.rejection)
			} else {
				err = h.router.HandleMessage(ev.conn, h.openConns(), ev.payload)
			}
			if err != nil {
				h.logger.Debug().
					Err(err).
					Str("conn_id", ev.conn.ID()).
					Int("code", errs.CodeOf(err)).
					Msg("Message rejected.")
			}

		case c := <-h.unregister:
			if _, ok := h.conns[c]; !ok {
				h.logger.Debug().Str("conn_id", c.ID()).Msg("Unregister for unknown/already closed connection.")
				continue
			}
			delete(h.conns, c)
			h.router.HandleClose(c, h.openConns())
			h.logger.Info().
				Str("conn_id", c.ID()).
				Int("open_conns", len(h.conns)).
				Msg("Connection closed.")

		case te := <-h.transportErr:
			h.router.HandleError(te.conn, te.err)

		case reply := <-h.presence:
			reply <- h.router.Registry().Snapshot()

		case <-h.stopChan:
			h.logger.Info().Msg("Hub forced stop initiated.")
			return
		}
	}
}

// openConns copies the open set so a step enumerates a stable view of it.
func (h *Hub) openConns() []Conn {
	conns := make([]Conn, 0, len(h.conns))
	for c := range h.conns {
		conns = append(conns, c)
	}
	return conns
}

// Stop signals Run to exit. It is safe to call more than once.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() {
		close(h.stopChan)
	})
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Register adds c to the open set as an anonymous connection. It reports false when
// the hub has stopped.
func (h *Hub) Register(c Conn) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Unregister reports that c closed. The Router sees the close exactly once.
func (h *Hub) Unregister(c Conn) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Inbound hands a payload received on c to the event loop.
func (h *Hub) Inbound(c Conn, payload []byte) {
	select {
	case h.inbound <- inboundEvent{conn: c, payload: payload}:
	case <-h.done:
	}
}

// Reject queues customErr for c behind every payload c sent before, so the error
// envelope reaches c after the replies to those payloads.
func (h *Hub) Reject(c Conn, customErr *errs.CustomError) {
	select {
	case h.inbound <- inboundEvent{conn: c, rejection: customErr}:
	case <-h.done:
	}
}

// ReportError hands a transport error observed on c to the event loop.
func (h *Hub) ReportError(c Conn, err error) {
	select {
	case h.transportErr <- transportError{conn: c, err: err}:
	case <-h.done:
	}
}

// Presence returns a presence snapshot taken between two events.
func (h *Hub) Presence(ctx context.Context) ([]user.Identity, error) {
	reply := make(chan []user.Identity, 1)

	select {
	case h.presence <- reply:
	case <-h.done:
		return nil, errs.NewError(errs.ErrServiceUnavailable)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case users := <-reply:
		return users, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
