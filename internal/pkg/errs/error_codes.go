/*
Package errs provides custom error types and application-level error code constants.

These error codes identify protocol and request errors both internally within the relay
and in the error envelopes and HTTP responses sent to clients.
*/
package errs

// 1xxx: General Request Handling Errors
const (
	// ErrInvalidJSONFormat indicates that an inbound payload could not be decoded as a JSON object.
	ErrInvalidJSONFormat = 1003

	// ErrRateLimitExceeded indicates that the request or message rate has exceeded the set limit.
	ErrRateLimitExceeded = 1007

	// ErrMessageRateExceeded indicates that a connection sent messages faster than its allowance.
	ErrMessageRateExceeded = 1008
)

// 2xxx: Presence Protocol Errors
const (
	// ErrJoinFieldsMissing indicates a join without a usable username or color.
	ErrJoinFieldsMissing = 2001

	// ErrJoinRequired indicates that an anonymous connection attempted a joined-only action.
	ErrJoinRequired = 2002
)

// 5xxx: Internal System Errors
const (
	// ErrUnknown represents an unclassified, general server internal error.
	ErrUnknown = 5000

	// ErrServiceUnavailable indicates the relay is shutting down or not accepting work.
	ErrServiceUnavailable = 5003
)
