package middleware

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/scosmb/license-console/internal/domain/admin"
	"github.com/scosmb/license-console/internal/ierr"
	"github.com/scosmb/license-console/internal/service"
	"go.uber.org/zap"
)

const (
	authorizationHeader = "Authorization"
	bearerPrefix        = "Bearer "
	callerContextKey    = "callerAdmin"
)

// AuthMiddleware resolves the bearer token to an active admin record and
// stashes it in the request context. Handlers pass that record explicitly
// into every service call; there is no other source of caller identity.
func AuthMiddleware(authService *service.AuthService, logger *zap.Logger) gin.HandlerFunc {
	log := logger.Named("AuthMiddleware")
	return func(c *gin.Context) {
		authHeader := c.GetHeader(authorizationHeader)
		if authHeader == "" {
			log.Debug("Authorization header is missing")
			_ = c.Error(fmt.Errorf("%w: authorization header required", ierr.ErrUnauthorized))
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, bearerPrefix) {
			log.Debug("Authorization header format is invalid")
			_ = c.Error(fmt.Errorf("%w: invalid authorization header format", ierr.ErrUnauthorized))
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, bearerPrefix)
		if tokenString == "" {
			_ = c.Error(fmt.Errorf("%w: token missing", ierr.ErrUnauthorized))
			c.Abort()
			return
		}

		caller, err := authService.ResolveToken(c.Request.Context(), tokenString)
		if err != nil {
			log.Warn("Token resolution failed", zap.Error(err))
			_ = c.Error(err)
			c.Abort()
			return
		}

		c.Set(callerContextKey, caller)
		c.Next()
	}
}

// Caller returns the authenticated admin for the request, or nil when the
// request did not pass AuthMiddleware.
func Caller(c *gin.Context) *admin.User {
	value, exists := c.Get(callerContextKey)
	if !exists {
		return nil
	}
	caller, ok := value.(*admin.User)
	if !ok {
		return nil
	}
	return caller
}
