package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealthHandler_Check(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	testCases := []struct {
		name       string
		checks     []HealthCheck
		wantStatus int
		wantState  string
		wantChecks map[string]string
	}{
		{
			name:       "all healthy",
			checks:     []HealthCheck{{Name: "mongo", Pinger: ok}, {Name: "redis", Pinger: ok}},
			wantStatus: http.StatusOK,
			wantState:  "ok",
			wantChecks: map[string]string{"mongo": "ok", "redis": "ok"},
		},
		{
			name:       "redis down",
			checks:     []HealthCheck{{Name: "mongo", Pinger: ok}, {Name: "redis", Pinger: down}},
			wantStatus: http.StatusServiceUnavailable,
			wantState:  "degraded",
			wantChecks: map[string]string{"mongo": "ok", "redis": "error"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			h := NewHealthHandler(zap.NewNop(), tc.checks...)
			rec := httptest.NewRecorder()
			h.Check(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

			assert.Equal(t, tc.wantStatus, rec.Code)
			var body struct {
				Status string            `json:"status"`
				Checks map[string]string `json:"checks"`
			}
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tc.wantState, body.Status)
			assert.Equal(t, tc.wantChecks, body.Checks)
		})
	}
}
