package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestHealth(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "storage reachable",
			wantStatus: http.StatusOK,
			wantBody:   `{"ok": true, "storage": "sqlite"}`,
		},
		{
			name:       "storage unreachable",
			pingErr:    errors.New("down"),
			wantStatus: http.StatusServiceUnavailable,
			wantBody:   `{"ok": false, "storage": "sqlite"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := gin.New()
			handler := RoutesHandler{
				Storage: "sqlite",
				Ping: func(ctx context.Context) error {
					return tt.pingErr
				},
			}
			handler.RegisterRoutes(engine)

			req, _ := http.NewRequest(http.MethodGet, "/health", nil)
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}
