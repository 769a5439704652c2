/*
Package user contains the data structures describing a participant's identity.

An Identity is self-asserted by the client in its join message and can be replaced
as a whole by a later change message.
*/
package user

// Identity is the presence information attached to a joined connection.
// Fields use JSON tags for serialization in user_list and leave envelopes.
type Identity struct {
	// Username is the sanitized display name chosen by the client.
	Username string `json:"username"`

	// Color is the display color, always either a valid color or the relay default.
	Color string `json:"color"`
}

// Complete reports whether both identity fields are set.
func (i Identity) Complete() bool {
	return i.Username != "" && i.Color != ""
}
