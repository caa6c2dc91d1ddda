package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"comichub/pkg/models"
)

const ctxUserKey = "auth_user"

func bearerToken(c *gin.Context) string {
	h := c.GetHeader("Authorization")
	if h == "" || !strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[len("Bearer "):])
}

// RequireAuth rejects requests without a valid token. The token's user must
// still exist; a stale id is treated the same as a bad signature.
func RequireAuth(tokens TokenService, repo *Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			c.Abort()
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		u, err := repo.GetByID(c.Request.Context(), claims.UserID)
		if err != nil || u == nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}

		c.Set(ctxUserKey, u)
		c.Next()
	}
}

// OptionalAuth attaches the caller identity when a valid token is present
// and stays silent otherwise. Listing visibility depends on it.
func OptionalAuth(tokens TokenService, repo *Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := bearerToken(c)
		if raw == "" {
			c.Next()
			return
		}

		claims, err := tokens.Parse(raw)
		if err != nil {
			c.Next()
			return
		}

		if u, err := repo.GetByID(c.Request.Context(), claims.UserID); err == nil && u != nil {
			c.Set(ctxUserKey, u)
		}
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		u := CurrentUser(c)
		if u == nil || u.Role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "admin only"})
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentUser returns the authenticated caller, or nil on anonymous
// requests behind OptionalAuth.
func CurrentUser(c *gin.Context) *models.User {
	v, ok := c.Get(ctxUserKey)
	if !ok {
		return nil
	}
	u, _ := v.(*models.User)
	return u
}
