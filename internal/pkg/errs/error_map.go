/*
Package errs provides custom error types and application-level error code constants.

This file defines the map from error codes to the CustomError struct, used to standardize
error envelopes, HTTP responses and internal error handling.
*/
package errs

import "net/http"

// errorMap stores the CustomError template corresponding to every application error code.
var errorMap = map[int]CustomError{
	// 1xxx: General Request Handling Errors
	ErrInvalidJSONFormat:   {Code: ErrInvalidJSONFormat, Message: "Invalid JSON format", Status: http.StatusBadRequest},
	ErrRateLimitExceeded:   {Code: ErrRateLimitExceeded, Message: "Too many requests. Please try again later.", Status: http.StatusTooManyRequests},
	ErrMessageRateExceeded: {Code: ErrMessageRateExceeded, Message: "Too many messages. Please slow down."},

	// 2xxx: Presence Protocol Errors
	ErrJoinFieldsMissing: {Code: ErrJoinFieldsMissing, Message: "Join message requires username and color"},
	ErrJoinRequired:      {Code: ErrJoinRequired, Message: `You must send a "join" message first.`},

	// 5xxx: Internal System Errors
	ErrUnknown:            {Code: ErrUnknown, Message: "Something went wrong. Please try again.", Status: http.StatusInternalServerError},
	ErrServiceUnavailable: {Code: ErrServiceUnavailable, Message: "Service is shutting down. Please reconnect later.", Status: http.StatusServiceUnavailable},
}
