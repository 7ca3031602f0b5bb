package http

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/coinharbor/exchange-backend/internal/domain"
)

const userIDKey = "userID"

// IdentityMiddleware resolves the Authorization bearer token to a user via
// the identity resolver and stores the user id on the request context.
// Requests with a missing or unresolvable credential are rejected with 401.
func IdentityMiddleware(resolver domain.IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			c.AbortWithStatusJSON(401, gin.H{"error": "missing authorization header"})
			return
		}

		credential := strings.TrimPrefix(header, "Bearer ")

		userID, err := resolver.Resolve(c.Request.Context(), credential)
		if err != nil {
			c.AbortWithStatusJSON(401, gin.H{"error": domain.ErrUnauthenticated.Error()})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// RequestLogger logs each request with its status and path.
func RequestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
		)
	}
}

func currentUser(c *gin.Context) uuid.UUID {
	return c.MustGet(userIDKey).(uuid.UUID)
}

// StaticTokenResolver implements domain.IdentityResolver from a fixed
// token-to-user table. Real session/JWT handling lives outside the core;
// this is the development stand-in, equivalent to a static API token check.
type StaticTokenResolver struct {
	Tokens map[string]uuid.UUID
}

// Resolve returns the user owning the credential
// Returns domain.ErrUnauthenticated if the credential does not resolve
func (r *StaticTokenResolver) Resolve(ctx context.Context, credential string) (uuid.UUID, error) {
	userID, ok := r.Tokens[credential]
	if !ok {
		return uuid.Nil, domain.ErrUnauthenticated
	}
	return userID, nil
}
