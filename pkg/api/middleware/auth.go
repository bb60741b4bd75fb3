package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// UserIDKey is the context key the identity middleware sets.
const UserIDKey = "user_id"

// IdentityConfig controls how the caller identity is established.
type IdentityConfig struct {
	// JWTSecret verifies HS256 bearer tokens issued by the external auth
	// service; the subject claim is the user id.
	JWTSecret string
	// AllowHeader accepts X-User-ID directly. Development only.
	AllowHeader bool
}

// Identity returns a middleware that establishes the caller identity.
// Requests without one are rejected; session issuance itself is external.
func Identity(cfg IdentityConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth := c.GetHeader("Authorization"); cfg.JWTSecret != "" && strings.HasPrefix(auth, "Bearer ") {
			raw := strings.TrimPrefix(auth, "Bearer ")
			token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err == nil && token.Valid {
				if sub, err := token.Claims.GetSubject(); err == nil && sub != "" {
					c.Set(UserIDKey, sub)
					c.Next()
					return
				}
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		if cfg.AllowHeader {
			if id := c.GetHeader("X-User-ID"); id != "" {
				c.Set(UserIDKey, id)
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	}
}

// UserID reads the identity set by the middleware.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
