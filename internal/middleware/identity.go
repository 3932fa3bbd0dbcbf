package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/pageza/mealplango/backend/internal/identity"
)

const contextIdentity = "client_identity"

// Identity derives the caller's anonymous identity key from the forwarded
// address and user agent headers.
func Identity(opts identity.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := identity.Derive(c.GetHeader("X-Forwarded-For"), c.GetHeader("User-Agent"), opts)
		c.Set(contextIdentity, key)
		c.Next()
	}
}

// ClientIdentity returns the key set by Identity.
func ClientIdentity(c *gin.Context) (identity.Key, bool) {
	v, ok := c.Get(contextIdentity)
	if !ok {
		return identity.Key{}, false
	}
	key, ok := v.(identity.Key)
	return key, ok
}
