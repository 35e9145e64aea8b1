package auth

import (
	"context"
	"net/http"
	"strings"

	e "github.com/gartstein/jobboard/internal/jobboard/errors"
	"github.com/gartstein/jobboard/internal/jobboard/models"
	"github.com/gin-gonic/gin"
)

// TokenVerifier validates a bearer token.
type TokenVerifier interface {
	Verify(token string) (*models.Identity, error)
}

type contextKey string

const (
	identityContextKey contextKey = "identity"
)

const (
	msgMissingToken = "No token, authorization denied"
	msgInvalidToken = "Token is not valid"
)

// Middleware rejects requests without a valid bearer token and attaches the
// verified identity to the request context.
func Middleware(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, err := extractTokenFromHeader(c.Request)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": msgMissingToken})
			return
		}

		identity, err := verifier.Verify(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": msgInvalidToken})
			return
		}

		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), identity))
		c.Next()
	}
}

// WithIdentity returns a copy of ctx carrying identity.
func WithIdentity(ctx context.Context, identity *models.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext returns the identity attached by Middleware.
func IdentityFromContext(ctx context.Context) (*models.Identity, bool) {
	identity, ok := ctx.Value(identityContextKey).(*models.Identity)
	return identity, ok && identity != nil
}

// extractTokenFromHeader retrieves a Bearer token from the Authorization header.
func extractTokenFromHeader(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", e.ErrMissingToken
	}

	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", e.ErrMissingToken
	}

	tokenString := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if tokenString == "" {
		return "", e.ErrMissingToken
	}

	return tokenString, nil
}
