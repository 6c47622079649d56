package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestBodyLimit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	payload := `{"requesting_store_id":"` + strings.Repeat("a", 36) + `","items":[]}`

	tests := []struct {
		name          string
		limit         int64
		method        string
		body          string
		contentLength int64
		wantStatus    int
		wantBody      string
	}{
		{"within limit", 1024, http.MethodPost, payload, int64(len(payload)), http.StatusOK, "read"},
		{"declared length over limit", 32, http.MethodPost, payload, int64(len(payload)), http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE"},
		{"zero limit disables the check", 0, http.MethodPost, strings.Repeat("x", 500), 500, http.StatusOK, "read"},
		{"bodiless GET", 10, http.MethodGet, "", 0, http.StatusOK, "read"},
		{"chunked body cut off while reading", 50, http.MethodPost, strings.Repeat("x", 100), -1, http.StatusBadRequest, "too large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.Use(BodyLimit(tt.limit))
			router.Handle(tt.method, "/api/v1/transfers", func(c *gin.Context) {
				if _, err := io.ReadAll(c.Request.Body); err != nil {
					c.String(http.StatusBadRequest, "too large")
					return
				}
				c.String(http.StatusOK, "read")
			})

			req := httptest.NewRequest(tt.method, "/api/v1/transfers", strings.NewReader(tt.body))
			req.ContentLength = tt.contentLength
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.wantBody)
		})
	}
}
