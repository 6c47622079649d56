// Package middleware provides the gin middleware of the transfer API.
package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/erp/stocktransfer/internal/infrastructure/auth"
	"github.com/erp/stocktransfer/internal/infrastructure/logger"
	"github.com/erp/stocktransfer/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// JWT context keys
const (
	JWTClaimsKey   = "jwt_claims"
	JWTUserIDKey   = "jwt_user_id"
	JWTTenantIDKey = "jwt_tenant_id"
	AuthHeaderKey  = "Authorization"
	BearerPrefix   = "Bearer "
)

// ErrNoClaims is returned when a handler runs without the auth middleware
var ErrNoClaims = errors.New("authentication required")

// JWTConfig holds configuration for the JWT middleware
type JWTConfig struct {
	JWTService *auth.JWTService
	// SkipPaths are served without a token
	SkipPaths []string
	Logger    *zap.Logger
}

// JWTAuth validates the bearer token and stores its claims on the context.
// Tokens without a tenant or user claim are rejected.
func JWTAuth(cfg JWTConfig) gin.HandlerFunc {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		header := c.GetHeader(AuthHeaderKey)
		if header == "" {
			abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Missing authorization header")
			return
		}
		if !strings.HasPrefix(header, BearerPrefix) {
			abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Invalid authorization header format")
			return
		}
		token := strings.TrimSpace(strings.TrimPrefix(header, BearerPrefix))
		if token == "" {
			abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Missing token")
			return
		}

		claims, err := cfg.JWTService.ValidateAccessToken(token)
		if err != nil {
			cfg.Logger.Debug("Token rejected",
				zap.String("request_id", c.GetString("request_id")),
				zap.Error(err))
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, dto.ErrCodeTokenExpired, "Token has expired")
				return
			}
			abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Invalid token")
			return
		}

		tenantID, err := claims.TenantUUID()
		if err != nil {
			abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Token carries no tenant")
			return
		}
		userID, err := claims.UserUUID()
		if err != nil {
			abortUnauthorized(c, dto.ErrCodeTokenInvalid, "Token carries no user")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTTenantIDKey, tenantID)
		c.Set(JWTUserIDKey, userID)

		ctx := logger.WithTenantID(c.Request.Context(), tenantID.String())
		ctx = logger.WithUserID(ctx, userID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// TenantFromClaims returns the tenant and user of the authenticated caller.
// Headers are never consulted.
func TenantFromClaims(c *gin.Context) (tenantID, userID uuid.UUID, err error) {
	t, ok := c.Get(JWTTenantIDKey)
	if !ok {
		return uuid.Nil, uuid.Nil, ErrNoClaims
	}
	u, ok := c.Get(JWTUserIDKey)
	if !ok {
		return uuid.Nil, uuid.Nil, ErrNoClaims
	}
	tenantID, _ = t.(uuid.UUID)
	userID, _ = u.(uuid.UUID)
	if tenantID == uuid.Nil || userID == uuid.Nil {
		return uuid.Nil, uuid.Nil, ErrNoClaims
	}
	return tenantID, userID, nil
}

// GetClaims returns the validated token claims, nil when unauthenticated
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized,
		dto.NewErrorResponseWithRequestID(code, message, c.GetString("request_id")))
}
