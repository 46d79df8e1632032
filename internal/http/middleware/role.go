package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Token roles.
const (
	RoleClient = "client"
	RoleReader = "reader"
)

// RequireRoles lets a request through only when the token role set by Auth
// is one of allowedRoles.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[strings.ToLower(strings.TrimSpace(r))] = struct{}{}
	}

	return func(c *gin.Context) {
		role := strings.ToLower(strings.TrimSpace(c.GetString(roleKey)))
		if role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":      "unauthorized",
				"message":    "token carries no role",
				"request_id": GetRequestID(c),
			})
			return
		}
		if _, ok := allowed[role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":      "forbidden",
				"message":    "role " + role + " may not perform this action",
				"request_id": GetRequestID(c),
			})
			return
		}
		c.Next()
	}
}
