package resp

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"presencechat/internal/pkg/errs"
)

func TestOK(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/health", nil)

	OK(w, r, map[string]string{"status": "ok"})

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "application/json", w.Header().Get("Content-Type"))
	require.JSONEq(t, `{"code":0,"message":"success","data":{"status":"ok"}}`, w.Body.String())
}

func TestOKKeepsMarkupUnescaped(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/presence", nil)

	OK(w, r, map[string]string{"username": "<b>Al</b>ice"})

	require.Contains(t, w.Body.String(), `"username":"<b>Al</b>ice"`)
}

func TestErrorUsesCustomError(t *testing.T) {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/ws", nil)

	Error(w, r, fmt.Errorf("upgrade: %w", errs.NewError(errs.ErrRateLimitExceeded)))

	require.Equal(t, http.StatusTooManyRequests, w.Code)

	var body Body
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(t, errs.ErrRateLimitExceeded, body.Code)
	require.Nil(t, body.Data)
}

func TestErrorFallsBackToUnknown(t *testing.T) {
	for _, err := range []error{nil, errors.New("boom")} {
		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/", nil)

		Error(w, r, err)

		require.Equal(t, http.StatusInternalServerError, w.Code)

		var body Body
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		require.Equal(t, errs.ErrUnknown, body.Code)
	}
}
