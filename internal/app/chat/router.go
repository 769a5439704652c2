/*
Package chat contains the core relay logic: the session registry, the broadcast router,
the hub event loop that serializes every connection event, and the WebSocket client pumps.

This file defines the Router, which decodes, sanitizes and validates inbound envelopes,
updates the Registry and decides which connections receive which outbound payloads.
*/
package chat

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"presencechat/internal/app/audit"
	"presencechat/internal/app/user"
	"presencechat/internal/pkg/errs"
	"presencechat/internal/pkg/logx"
	"presencechat/internal/pkg/sanitize"
)

// Conn is one transport-level channel as seen by the router.
type Conn interface {
	// ID returns a stable identifier used for logging and auditing.
	ID() string

	// Send queues payload for delivery. It reports false, without blocking,
	// when the connection is not open or cannot accept the payload.
	Send(payload []byte) bool

	// IsOpen reports whether the connection still accepts payloads.
	IsOpen() bool

	// Close asks the transport to close the connection with a close code and reason.
	Close(code int, reason string)
}

// MarkupSanitizer strips disallowed markup from client supplied text.
type MarkupSanitizer interface {
	Markup(text string) string
}

// RouterOption configures a Router.
type RouterOption func(*Router)

// WithSanitizer replaces the default bluemonday based sanitizer.
func WithSanitizer(s MarkupSanitizer) RouterOption {
	return func(r *Router) {
		r.sanitizer = s
	}
}

// WithRecorder sets where join, change and leave events are audited.
func WithRecorder(rec audit.Recorder) RouterOption {
	return func(r *Router) {
		r.recorder = rec
	}
}

// WithClock overrides the wall clock used for leave timestamps.
func WithClock(now func() time.Time) RouterOption {
	return func(r *Router) {
		r.now = now
	}
}

// Router applies the presence protocol to inbound payloads. It is not safe for
// concurrent use; the Hub calls it from a single goroutine.
type Router struct {
	registry  *Registry
	sanitizer MarkupSanitizer
	recorder  audit.Recorder
	now       func() time.Time
	logger    zerolog.Logger
}

// NewRouter creates a Router that records presence in registry.
func NewRouter(registry *Registry, opts ...RouterOption) *Router {
	r := &Router{
		registry:  registry,
		sanitizer: sanitize.New(),
		recorder:  audit.Nop{},
		now:       time.Now,
		logger:    logx.Component("router"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Registry returns the registry the router mutates.
func (r *Router) Registry() *Registry {
	return r.registry
}

// HandleMessage processes one raw payload received on c. peers is the set of open
// connections at the start of the step, including c. The returned error is the protocol
// error reported to c, or nil.
func (r *Router) HandleMessage(c Conn, peers []Conn, raw []byte) error {
	env, err := DecodeEnvelope(raw)
	if err != nil {
		r.logger.Debug().Err(err).Str("conn_id", c.ID()).Msg("Client sent invalid JSON")
		return r.reject(c, errs.NewError(errs.ErrInvalidJSONFormat))
	}

	r.sanitizeEnvelope(env)

	switch env.Type() {
	case TypeJoin:
		return r.handleJoin(c, peers, env)

	case TypeRequestUsers:
		r.sendUserList(c)
		return nil

	case TypeChange:
		return r.handleChange(c, peers, env)

	case TypeMessage:
		fallthrough

	default:
		return r.handleContent(c, peers, env)
	}
}

// HandleClose removes c from the registry and, when it had joined, notifies the
// remaining peers. peers must no longer contain c.
func (r *Router) HandleClose(c Conn, peers []Conn) {
	identity, ok := r.registry.Remove(c)
	if !ok {
		r.logger.Debug().Str("conn_id", c.ID()).Msg("Anonymous connection closed.")
		return
	}

	at := r.now()
	r.recordEvent(audit.KindLeave, c, identity, at)

	r.logger.Info().
		Str("conn_id", c.ID()).
		Str("username", identity.Username).
		Int("total_users", r.registry.Size()).
		Msg("User left.")

	r.broadcast(NewLeaveMessage(identity, at), peers, r.isOpen)
	r.broadcastUserList(peers)
}

// HandleError observes a transport error on c. It never changes presence state.
func (r *Router) HandleError(c Conn, err error) {
	r.logger.Warn().Err(err).Str("conn_id", c.ID()).Msg("Transport error on connection.")
}

func (r *Router) handleJoin(c Conn, peers []Conn, env Envelope) error {
	identity := env.Identity()
	if !identity.Complete() {
		customErr := errs.NewError(errs.ErrJoinFieldsMissing)
		r.reject(c, customErr)
		c.Close(websocket.CloseProtocolError, customErr.Message)
		return customErr
	}

	r.registry.Register(c, identity)
	r.recordEvent(audit.KindJoin, c, identity, r.now())

	r.logger.Info().
		Str("conn_id", c.ID()).
		Str("username", identity.Username).
		Int("total_users", r.registry.Size()).
		Msg("User joined.")

	r.broadcast(env, peers, func(p Conn) bool { return p != c && p.IsOpen() })
	r.sendUserList(c)
	r.broadcastUserList(peers)

	return nil
}

func (r *Router) handleChange(c Conn, peers []Conn, env Envelope) error {
	if _, ok := r.registry.Lookup(c); !ok {
		return r.reject(c, errs.NewError(errs.ErrJoinRequired))
	}

	r.broadcast(env, peers, r.isOpen)

	identity := env.Identity()
	r.registry.Register(c, identity)
	r.recordEvent(audit.KindChange, c, identity, r.now())

	r.broadcastUserList(peers)

	return nil
}

func (r *Router) handleContent(c Conn, peers []Conn, env Envelope) error {
	if _, ok := r.registry.Lookup(c); !ok {
		return r.reject(c, errs.NewError(errs.ErrJoinRequired))
	}

	r.broadcast(env, peers, r.isOpen)

	return nil
}

// sanitizeEnvelope rewrites the markup fields and the color in place. A markup field
// that is present but not a string becomes the empty string. A non-empty invalid
// color is replaced by the default color.
func (r *Router) sanitizeEnvelope(env Envelope) {
	for _, field := range markupFields {
		if _, present := env[field]; present {
			env[field] = r.sanitizer.Markup(env.Str(field))
		}
	}

	if value, present := env[fieldColor]; present {
		text, isString := value.(string)
		if !isString {
			env[fieldColor] = sanitize.DefaultColor
			return
		}
		env[fieldColor] = sanitize.Color(text)
	}
}

func (r *Router) isOpen(p Conn) bool {
	return p.IsOpen()
}

func (r *Router) isJoined(p Conn) bool {
	if !p.IsOpen() {
		return false
	}
	_, ok := r.registry.Lookup(p)
	return ok
}

// broadcast marshals msg once and sends the same payload to every peer accepted by include.
func (r *Router) broadcast(msg any, peers []Conn, include func(Conn) bool) {
	payload, err := encode(msg)
	if err != nil {
		r.logger.Error().Err(err).Msg("Error marshaling message for broadcast.")
		return
	}

	for _, p := range peers {
		if include(p) {
			p.Send(payload)
		}
	}
}

func (r *Router) broadcastUserList(peers []Conn) {
	r.broadcast(NewUserListMessage(r.registry.Snapshot()), peers, r.isJoined)
}

func (r *Router) sendUserList(c Conn) {
	r.send(c, NewUserListMessage(r.registry.Snapshot()))
}

func (r *Router) send(c Conn, msg any) {
	payload, err := encode(msg)
	if err != nil {
		r.logger.Error().Err(err).Str("conn_id", c.ID()).Msg("Error marshaling message for client.")
		return
	}

	c.Send(payload)
}

// reject sends the error envelope for customErr to c alone and returns customErr.
func (r *Router) reject(c Conn, customErr *errs.CustomError) error {
	r.logger.Debug().
		Str("conn_id", c.ID()).
		Int("code", customErr.Code).
		Msg("Rejecting client message.")

	r.send(c, NewErrorMessage(customErr.Message))
	return customErr
}

func (r *Router) recordEvent(kind audit.Kind, c Conn, identity user.Identity, at time.Time) {
	r.recorder.Record(audit.Event{
		Kind:       kind,
		ConnID:     c.ID(),
		Identity:   identity,
		OccurredAt: at,
	})
}
