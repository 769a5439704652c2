/*
Package chat contains the core relay logic: the session registry, the broadcast router,
the hub event loop that serializes every connection event, and the WebSocket client pumps.

This file defines the inbound and outbound message shapes.
*/
package chat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"presencechat/internal/app/user"
)

// MessageType is the value of an envelope's "type" field.
type MessageType string

const (
	TypeJoin         MessageType = "join"
	TypeChange       MessageType = "change"
	TypeMessage      MessageType = "message"
	TypeRequestUsers MessageType = "request_users"
	TypeLeave        MessageType = "leave"
	TypeUserList     MessageType = "user_list"
	TypeError        MessageType = "error"
)

// Envelope fields inspected by the router. Any other field is echoed untouched.
const (
	fieldType        = "type"
	fieldUsername    = "username"
	fieldColor       = "color"
	fieldMessage     = "message"
	fieldOldUsername = "oldUn"
)

// markupFields are the envelope fields passed through the markup sanitizer.
var markupFields = []string{fieldUsername, fieldOldUsername, fieldMessage}

var errNotAnObject = errors.New("payload is not a JSON object")

// Envelope is a decoded inbound message. Every client supplied field is kept so the
// sanitized envelope can be echoed as-is.
type Envelope map[string]any

// DecodeEnvelope parses raw as a single JSON object.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	decoder := json.NewDecoder(bytes.NewReader(raw))
	decoder.UseNumber()

	var env Envelope
	if err := decoder.Decode(&env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}

	if env == nil {
		return nil, errNotAnObject
	}

	if _, err := decoder.Token(); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode envelope: trailing data after object")
	}

	return env, nil
}

// Type returns the envelope tag, or the empty string when it is missing or not a string.
func (e Envelope) Type() MessageType {
	tag, _ := e[fieldType].(string)
	return MessageType(tag)
}

// Str returns the string value of field, or the empty string when absent or not a string.
func (e Envelope) Str(field string) string {
	value, _ := e[field].(string)
	return value
}

// Identity returns the username and color carried by the envelope.
func (e Envelope) Identity() user.Identity {
	return user.Identity{
		Username: e.Str(fieldUsername),
		Color:    e.Str(fieldColor),
	}
}

// LeaveMessage notifies peers that a joined connection closed.
type LeaveMessage struct {
	Type      MessageType `json:"type"`
	Username  string      `json:"username"`
	Color     string      `json:"color"`
	Timestamp int64       `json:"timestamp"`
}

// NewLeaveMessage builds a leave notification stamped with at in Unix milliseconds.
func NewLeaveMessage(identity user.Identity, at time.Time) LeaveMessage {
	return LeaveMessage{
		Type:      TypeLeave,
		Username:  identity.Username,
		Color:     identity.Color,
		Timestamp: at.UnixMilli(),
	}
}

// UserListMessage is a presence snapshot.
type UserListMessage struct {
	Type  MessageType     `json:"type"`
	Users []user.Identity `json:"users"`
}

// NewUserListMessage wraps a registry snapshot. A nil snapshot encodes as an empty list.
func NewUserListMessage(users []user.Identity) UserListMessage {
	if users == nil {
		users = []user.Identity{}
	}
	return UserListMessage{Type: TypeUserList, Users: users}
}

// ErrorMessage reports a protocol error to a single connection.
type ErrorMessage struct {
	Type    MessageType `json:"type"`
	Message string      `json:"message"`
}

// NewErrorMessage builds an error envelope carrying message.
func NewErrorMessage(message string) ErrorMessage {
	return ErrorMessage{Type: TypeError, Message: message}
}

// encode marshals v as a JSON text frame. Markup kept by the sanitizer is written
// literally rather than as \u003c escapes.
func encode(v any) ([]byte, error) {
	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
