/*
Package handler provides the HTTP handler for upgrading relay connections to WebSocket.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"

	"presencechat/internal/pkg/errs"
	"presencechat/internal/pkg/limiter"
	"presencechat/internal/pkg/logx"
	"presencechat/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc that rate limits, upgrades the request
// and serves the connection until it closes. Every connection starts anonymous.
func HandleWebSocket(deps *AppDeps, upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !rateLimiter.Allow(r) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", logx.AnonymizeIP(r.RemoteAddr))
			resp.Error(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		deps.Manager.Serve(conn, r.RemoteAddr)
	}
}
