package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"match-embed/internal/app"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFail(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		wantStatus int
	}{
		{"explicit status", http.StatusBadRequest, http.StatusBadRequest},
		{"zero defaults to 500", 0, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			Fail(discardLogger(), w, "something broke", errors.New("cause"), tt.status)

			assert.Equal(t, tt.wantStatus, w.Code)
			var body map[string]any
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			assert.Equal(t, "error", body["status"])
			assert.Equal(t, "something broke", body["error"])
		})
	}
}

func TestValidationError(t *testing.T) {
	type payload struct {
		Description string `validate:"max=3"`
	}
	err := Validator.Struct(&payload{Description: "too long"})
	require.Error(t, err)

	w := httptest.NewRecorder()
	ValidationError(discardLogger(), w, err)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	assert.Contains(t, body.Fields, "Description")
}

func TestRouterRecoversPanics(t *testing.T) {
	r := NewRouter(discardLogger())
	r.Get("/panic", func(http.ResponseWriter, *http.Request) { panic("boom") })
	r.Get("/healthz", HealthHandler(app.Deps{Log: discardLogger()}))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}
