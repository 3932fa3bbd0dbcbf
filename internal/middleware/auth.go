package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/pageza/mealplango/backend/internal/types"
	"github.com/rs/zerolog/log"
)

// Context keys set by OptionalAuth.
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
)

// TokenValidator is an interface for validating JWT tokens
type TokenValidator interface {
	ValidateToken(token string) (*types.TokenClaims, error)
}

// OptionalAuth verifies a bearer token when one is sent. Requests without a
// token pass through anonymously; a present but invalid token is rejected.
// A nil validator disables token checks entirely.
func OptionalAuth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if validator == nil || authHeader == "" {
			c.Next()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid authorization header format"})
			c.Abort()
			return
		}

		claims, err := validator.ValidateToken(parts[1])
		if err != nil {
			log.Debug().Err(err).Str("path", c.FullPath()).Msg("Rejected session token")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.Subject)
		c.Set(ContextUserEmail, claims.Email)
		c.Next()
	}
}

// AuthenticatedEmail returns the email from a verified token, if any.
func AuthenticatedEmail(c *gin.Context) (string, bool) {
	email := c.GetString(ContextUserEmail)
	return email, email != ""
}
