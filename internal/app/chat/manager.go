/*
Package chat contains the core relay logic: the session registry, the broadcast router,
the hub event loop that serializes every connection event, and the WebSocket client pumps.

This file defines the Manager, which wires the registry, router and hub together, starts
the hub event loop and coordinates shutdown with the presence audit recorder.
*/
package chat

import (
	"context"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"presencechat/internal/app/audit"
	"presencechat/internal/app/user"
	"presencechat/internal/pkg/logx"
	"presencechat/internal/pkg/randx"
)

// Manager owns the relay's hub and its lifecycle.
type Manager struct {
	hub      *Hub
	registry *Registry
	recorder audit.Recorder
	options  ClientOptions

	// wg waits for the hub Run goroutine during shutdown.
	wg sync.WaitGroup

	shutdownOnce sync.Once

	logger zerolog.Logger
}

// NewManager constructs a Manager and starts the hub event loop. Router options, such as
// a custom sanitizer or clock, are passed through to the Router.
func NewManager(recorder audit.Recorder, options ClientOptions, routerOpts ...RouterOption) *Manager {
	if recorder == nil {
		recorder = audit.Nop{}
	}

	registry := NewRegistry()
	opts := append([]RouterOption{WithRecorder(recorder)}, routerOpts...)
	router := NewRouter(registry, opts...)

	m := &Manager{
		hub:      NewHub(router),
		registry: registry,
		recorder: recorder,
		options:  options,
		logger:   logx.Component("manager"),
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		m.hub.Run()
	}()

	return m
}

// Hub returns the event loop connections report to.
func (m *Manager) Hub() *Hub {
	return m.hub
}

// Serve runs a freshly upgraded connection until it closes. It blocks for the
// lifetime of the connection.
func (m *Manager) Serve(wsConn *websocket.Conn, remoteAddr string) {
	client := NewClient(m.hub, wsConn, randx.ConnectionID(), remoteAddr, m.options)

	if !m.hub.Register(client) {
		client.logger.Warn().Msg("Hub stopped, rejecting connection.")
		client.Close(websocket.CloseGoingAway, "server shutting down")
		client.WritePump()
		return
	}

	go client.WritePump()

	client.ReadPump()
}

// Presence returns the current presence snapshot through the hub event loop.
func (m *Manager) Presence(ctx context.Context) ([]user.Identity, error) {
	return m.hub.Presence(ctx)
}

// JoinedCount returns the number of joined connections.
func (m *Manager) JoinedCount() int {
	return m.registry.Size()
}

// Shutdown stops the hub, waits for it to exit and flushes the audit recorder.
func (m *Manager) Shutdown() {
	m.shutdownOnce.Do(func() {
		m.logger.Info().Msg("Shutting down Manager...")

		m.hub.Stop()
		m.wg.Wait()

		if closer, ok := m.recorder.(interface{ Close() }); ok {
			closer.Close()
		}

		m.logger.Info().Msg("Manager shutdown complete.")
	})
}
