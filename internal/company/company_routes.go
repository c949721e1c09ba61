package company

import (
	"the-work-standard/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, auth gin.HandlerFunc) {
	company := r.Group("/companies")
	{
		// public, used by the sign-up form. 1 req / 2s per IP, burst 5
		company.GET("/verify", middleware.RateLimitByIP(0.5, 5), handler.VerifyCode)

		company.GET("/me", auth, middleware.TenantScope(), middleware.RateLimitByUser(2, 10), handler.GetMe)
	}
}
