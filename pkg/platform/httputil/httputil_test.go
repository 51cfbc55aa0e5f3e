package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "transferdesk/pkg/domain-errors"
)

func decode(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var body Envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return body
}

func TestWriteError(t *testing.T) {
	t.Run("internal error hides message", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, dErrors.New(dErrors.CodeInternal, "pq: relation cases does not exist"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		body := decode(t, w)
		assert.False(t, body.Success)
		assert.Equal(t, "internal server error", body.Error)
	})

	t.Run("untyped error is internal", func(t *testing.T) {
		w := httptest.NewRecorder()
		WriteError(w, fmt.Errorf("boom"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("domain codes map to statuses", func(t *testing.T) {
		cases := map[dErrors.Code]int{
			dErrors.CodeValidation:        http.StatusBadRequest,
			dErrors.CodeInvalidTransition: http.StatusBadRequest,
			dErrors.CodeUnauthorized:      http.StatusUnauthorized,
			dErrors.CodeForbidden:         http.StatusForbidden,
			dErrors.CodeNotFound:          http.StatusNotFound,
			dErrors.CodeConflict:          http.StatusConflict,
			dErrors.CodeRateLimited:       http.StatusTooManyRequests,
		}
		for code, status := range cases {
			w := httptest.NewRecorder()
			WriteError(w, dErrors.New(code, "message for "+string(code)))
			assert.Equal(t, status, w.Code, string(code))
			body := decode(t, w)
			assert.Equal(t, "message for "+string(code), body.Error)
			assert.Equal(t, string(code), body.Code)
		}
	})
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusCreated, map[string]int{"rank": 2})

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	body := decode(t, w)
	assert.True(t, body.Success)
	assert.Equal(t, map[string]any{"rank": float64(2)}, body.Data)
}
