package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"presencechat/internal/app/user"
	"presencechat/internal/pkg/errs"
	"presencechat/internal/pkg/logx"
	"presencechat/internal/pkg/resp"
)

const presenceTimeout = 2 * time.Second

// PresenceResponse is the payload of GET /api/presence.
type PresenceResponse struct {
	Count int             `json:"count"`
	Users []user.Identity `json:"users"`
}

// HandlePresence returns the current presence snapshot.
func HandlePresence(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), presenceTimeout)
		defer cancel()

		users, err := deps.Manager.Presence(ctx)
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				logx.Warn("Presence snapshot timed out", "timeout", presenceTimeout.String())
				err = errs.NewError(errs.ErrServiceUnavailable)
			}
			resp.Error(w, r, err)
			return
		}

		resp.OK(w, r, PresenceResponse{Count: len(users), Users: users})
	}
}
