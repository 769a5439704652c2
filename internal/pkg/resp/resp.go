/*
Package resp writes the relay's HTTP JSON responses.

Every body has the shape {"code":N,"message":"...","data":...}; code 0 means success and any
other value is an errs code. Bodies are encoded without HTML escaping so usernames carrying
allowed markup read the same over HTTP as they do over the WebSocket.
*/
package resp

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"presencechat/internal/pkg/errs"
	"presencechat/internal/pkg/logx"
)

// Body is the JSON object written by every relay HTTP endpoint.
type Body struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// Write encodes body and sends it with status.
func Write(w http.ResponseWriter, r *http.Request, status int, body Body) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(body); err != nil {
		logx.Error(err, "Error encoding JSON response", "path", r.URL.Path, "http_status", status)
		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)

	if _, err := w.Write(buf.Bytes()); err != nil {
		logx.Warn("Failed to write JSON response", "path", r.URL.Path, "error", err.Error())
	}
}

// OK sends data with HTTP 200 and code 0.
func OK(w http.ResponseWriter, r *http.Request, data any) {
	Write(w, r, http.StatusOK, Body{Code: 0, Message: "success", Data: data})
}

// Error sends err using the code, message and status of the CustomError it wraps.
// Any other error, nil included, is answered as ErrUnknown.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	var customErr *errs.CustomError
	if !errors.As(err, &customErr) {
		if err != nil {
			logx.Error(err, "Unclassified error in HTTP handler", "path", r.URL.Path)
		}
		customErr = errs.NewError(errs.ErrUnknown)
	}

	Write(w, r, customErr.Status, Body{Code: customErr.Code, Message: customErr.Message})
}
