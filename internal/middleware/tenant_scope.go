package middleware

import (
	"the-work-standard/internal/shared/apperror"
	"the-work-standard/internal/shared/response"

	"github.com/gin-gonic/gin"
)

// ScopeKey is the gin key holding "<company_id>:<user_id>" for the caller.
const ScopeKey = "tenant_scope"

// TenantScope requires both identity keys set by AuthMiddleware and joins
// them into ScopeKey. Per-caller state such as idempotency keys hangs off it
// so two companies never share an entry.
func TenantScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString("user_id")
		companyID := c.GetString("company_id")
		if userID == "" || companyID == "" {
			response.FromError(c, apperror.ErrUnauthorized)
			c.Abort()
			return
		}

		c.Set(ScopeKey, companyID+":"+userID)
		c.Next()
	}
}
