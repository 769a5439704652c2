/*
Package handler provides the HTTP handlers and routing setup for the presence relay.

This file defines the main Router, applying middleware for request IDs, logging, CORS and
panic recovery before delegating to the WebSocket endpoint and the JSON API.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"presencechat/internal/pkg/limiter"
	"presencechat/internal/pkg/logx"
	"presencechat/internal/pkg/resp"
)

const (
	// ConnectRate and ConnectBurst bound how often one IP may open relay connections.
	ConnectRate  = 0.5
	ConnectBurst = 10

	// APIRate and APIBurst bound the JSON API per IP.
	APIRate  = 2
	APIBurst = 20
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// The returned stop function ends the background cleanup of the rate limiters.
func Router(deps *AppDeps) (http.Handler, func()) {
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)
	apiLimiter := limiter.NewIPRateLimiter(rate.Limit(APIRate), APIBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Get("/health", HandleHealth(deps))

	r.Route("/api", func(api chi.Router) {
		api.Use(apiLimiter.Middleware)
		api.Get("/presence", HandlePresence(deps))
	})

	r.Get(deps.Config.WSPath, HandleWebSocket(deps, wsUpgrader, connectLimiter))

	stop := func() {
		connectLimiter.Stop()
		apiLimiter.Stop()
	}

	return r, stop
}

// HandleHealth reports liveness and the number of joined users.
func HandleHealth(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"status":       "ok",
			"service":      "Presence Relay",
			"joined_users": deps.Manager.JoinedCount(),
		}
		resp.OK(w, r, data)
	}
}
