package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestRouter(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(GinMiddleware(log), Recovery(log))
	r.GET("/transfers/:id", func(c *gin.Context) {
		FromContext(c.Request.Context()).Info("inside handler")
		c.JSON(http.StatusOK, gin.H{"request_id": GetRequestID(c.Request.Context())})
	})
	r.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})
	r.GET("/panic", func(c *gin.Context) {
		panic("boom")
	})
	return r
}

func TestGinMiddleware_AssignsRequestID(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := newTestRouter(zap.New(core))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/transfers/42", nil))

	require.Equal(t, http.StatusOK, w.Code)
	requestID := w.Header().Get(RequestIDHeader)
	assert.NotEmpty(t, requestID)
	assert.Contains(t, w.Body.String(), requestID)

	inside := logs.FilterMessage("inside handler").All()
	require.Len(t, inside, 1)
	assert.Equal(t, requestID, inside[0].ContextMap()["request_id"])

	reqLogs := logs.FilterMessage("HTTP Request").All()
	require.Len(t, reqLogs, 1)
	assert.Equal(t, "/transfers/:id", reqLogs[0].ContextMap()["route"])
	assert.Equal(t, zapcore.InfoLevel, reqLogs[0].Level)
}

func TestGinMiddleware_KeepsIncomingRequestID(t *testing.T) {
	r := newTestRouter(zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/transfers/1", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestGinMiddleware_WarnsOnClientError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := newTestRouter(zap.New(core))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/missing", nil))

	reqLogs := logs.FilterMessage("HTTP Request").All()
	require.Len(t, reqLogs, 1)
	assert.Equal(t, zapcore.WarnLevel, reqLogs[0].Level)
}

func TestRecovery(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	r := newTestRouter(zap.New(core))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/panic", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "INTERNAL_ERROR")
	assert.Equal(t, 1, logs.FilterMessage("Panic recovered").Len())
	assert.Equal(t, 1, logs.FilterMessage("HTTP Request").FilterField(zap.Int("status", 500)).Len())
}
