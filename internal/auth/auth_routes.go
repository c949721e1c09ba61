package auth

import (
	"the-work-standard/internal/domain"
	"the-work-standard/internal/middleware"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.RouterGroup, handler *Handler, auth gin.HandlerFunc, rbac middleware.RBACService) {
	group := r.Group("/auth")
	{
		group.POST("/sign-in", middleware.RateLimitByIP(0.2, 5), handler.SignIn)
		group.POST("/sign-up", middleware.RateLimitByIP(0.1, 3), handler.SignUp)
		group.POST("/refresh", middleware.RateLimitByIP(1, 10), handler.Refresh)
		group.POST("/confirm", middleware.RateLimitByIP(0.2, 5), handler.ConfirmEmail)

		group.GET("/session", auth, middleware.RateLimitByUser(2, 10), handler.Session)
		group.POST("/sign-out", auth, handler.SignOut)
		group.GET("/events", auth, handler.Events)

		group.DELETE("/users/:id", auth,
			middleware.RBACAuthorize(rbac, domain.ResourceUsers, domain.ActionDelete),
			handler.DeleteUser,
		)
	}
}
