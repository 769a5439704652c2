/*
Package randx provides functions for generating unique identifiers.

It is used to generate connection IDs for relay clients and event IDs for presence audit records.
*/
package randx

import (
	"github.com/google/uuid"
)

// ConnIDPrefix is the prefix carried by every generated connection ID.
const ConnIDPrefix = "conn_"

// ConnectionID generates a new connection identifier backed by a random UUID v4.
func ConnectionID() string {
	return ConnIDPrefix + uuid.NewString()
}

// EventID generates a random UUID v4 used as the primary key of an audit event.
func EventID() uuid.UUID {
	return uuid.New()
}
