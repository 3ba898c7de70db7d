package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"essentia-system/internal/utils"
)

// Context keys populated by JWTAuth for downstream handlers.
const (
	CtxUserID   = "userID"
	CtxUserRole = "userRole"
	CtxEmail    = "userEmail"
	CtxFullName = "userFullName"
)

// JWTAuth validates the Authorization bearer token and stores the caller's
// identity claims on the request context. Requests without a valid token
// are rejected with 401.
func JWTAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "missing or malformed authorization header",
			})
			return
		}

		claims, err := utils.ParseToken(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"message": "invalid or expired token",
			})
			return
		}

		c.Set(CtxUserID, claims.Subject)
		c.Set(CtxUserRole, claims.Role)
		c.Set(CtxEmail, claims.Email)
		c.Set(CtxFullName, claims.FullName)
		c.Next()
	}
}

// RequireRoles aborts with 403 unless the authenticated caller holds one of
// the given roles. Must run after JWTAuth.
func RequireRoles(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role := c.GetString(CtxUserRole)
		for _, r := range roles {
			if role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"success": false,
			"message": "insufficient role for this operation",
		})
	}
}
