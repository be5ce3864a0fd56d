package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) Envelope {
	t.Helper()
	var env Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, "login successful", map[string]string{"token": "abc"})

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	env := decodeEnvelope(t, w)
	assert.Equal(t, 200, env.Code)
	assert.True(t, env.Success)
	assert.Equal(t, "login successful", env.Message)
	assert.NotNil(t, env.Data)
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name  string
		write func(http.ResponseWriter)
		code  int
	}{
		{"bad request", func(w http.ResponseWriter) { WriteBadRequest(w, "nope") }, 400},
		{"unauthorized", func(w http.ResponseWriter) { WriteUnauthorized(w, "nope") }, 401},
		{"forbidden", func(w http.ResponseWriter) { WriteForbidden(w, "nope") }, 403},
		{"not found", func(w http.ResponseWriter) { WriteNotFound(w, "nope") }, 404},
		{"internal", func(w http.ResponseWriter) { WriteInternalError(w, "nope") }, 500},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.code, w.Code)
			env := decodeEnvelope(t, w)
			assert.Equal(t, tt.code, env.Code)
			assert.False(t, env.Success)
			assert.Equal(t, "nope", env.Message)
			assert.Nil(t, env.Data)
		})
	}
}

func TestNewPagination(t *testing.T) {
	p := NewPagination(2, 10, 35)
	assert.Equal(t, 4, p.Pages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	p = NewPagination(1, 10, 5)
	assert.Equal(t, 1, p.Pages)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrev)

	p = NewPagination(1, 10, 0)
	assert.Equal(t, 0, p.Pages)
	assert.False(t, p.HasNext)
	assert.False(t, p.HasPrev)
}

func TestRequireFields(t *testing.T) {
	t.Run("all present", func(t *testing.T) {
		w := httptest.NewRecorder()
		ok := RequireFields(w, map[string]string{"username": "admin", "password": "x"}, "username", "password")
		assert.True(t, ok)
	})

	t.Run("missing fields listed in order", func(t *testing.T) {
		w := httptest.NewRecorder()
		ok := RequireFields(w, map[string]string{"username": ""}, "username", "password")
		assert.False(t, ok)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		env := decodeEnvelope(t, w)
		assert.Equal(t, "missing required fields: username, password", env.Message)
	})
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:4321"
	assert.Equal(t, "10.0.0.1", ClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(r))
}
