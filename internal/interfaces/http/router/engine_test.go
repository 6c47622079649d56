package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	transferapp "github.com/erp/stocktransfer/internal/application/transfer"
	"github.com/erp/stocktransfer/internal/infrastructure/auth"
	"github.com/erp/stocktransfer/internal/infrastructure/config"
	"github.com/erp/stocktransfer/internal/interfaces/http/handler"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getOnlyService answers GetRequest and leaves the rest of the interface unimplemented
type getOnlyService struct {
	handler.TransferService
	tenantSeen uuid.UUID
}

func (s *getOnlyService) GetRequest(_ context.Context, tenantID, requestID uuid.UUID) (*transferapp.RequestResponse, error) {
	s.tenantSeen = tenantID
	return &transferapp.RequestResponse{ID: requestID, TenantID: tenantID, Status: "draft"}, nil
}

func newTestEngine(t *testing.T, health HealthCheck) (*getOnlyService, *auth.JWTService, http.Handler) {
	t.Helper()
	jwtService := auth.NewJWTService(config.JWTConfig{
		Secret:                "engine-test-secret-at-least-32-bytes",
		Issuer:                "stocktransfer",
		AccessTokenExpiration: time.Hour,
	})
	svc := &getOnlyService{}
	engine, err := NewEngine(EngineConfig{
		JWTService:  jwtService,
		ServiceName: "stocktransfer-test",
		MaxBodySize: 1 << 20,
		Health:      health,
	}, handler.NewTransferHandler(svc))
	require.NoError(t, err)
	return svc, jwtService, engine
}

func TestEngineHealth(t *testing.T) {
	_, _, engine := newTestEngine(t, func(context.Context) error { return nil })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestEngineHealthUnavailable(t *testing.T) {
	_, _, engine := newTestEngine(t, func(context.Context) error { return errors.New("database down") })

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.NotContains(t, w.Body.String(), "database down")
}

func TestEngineTransfersRequireToken(t *testing.T) {
	_, _, engine := newTestEngine(t, nil)

	paths := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/transfers"},
		{http.MethodPost, "/api/v1/transfers"},
		{http.MethodGet, "/api/v1/transfers/" + uuid.NewString()},
		{http.MethodPost, "/api/v1/transfers/" + uuid.NewString() + "/issue-all"},
		{http.MethodPost, "/api/v1/transfers/" + uuid.NewString() + "/cancel-receipt"},
	}
	for _, p := range paths {
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, httptest.NewRequest(p.method, p.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, p.method+" "+p.path)
	}
}

func TestEngineAuthorizedRequestReachesHandler(t *testing.T) {
	svc, jwtService, engine := newTestEngine(t, nil)
	tenantID, userID, requestID := uuid.New(), uuid.New(), uuid.New()
	token, _, err := jwtService.IssueToken(tenantID, userID, "clerk")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/transfers/"+requestID.String(), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Tenant-ID", uuid.NewString())
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, tenantID, svc.tenantSeen)
	assert.Contains(t, w.Body.String(), requestID.String())
}

func TestEngineUnknownRoute(t *testing.T) {
	_, _, engine := newTestEngine(t, nil)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/stores", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
}
