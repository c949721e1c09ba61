package profile

import (
	"the-work-standard/internal/domain"
	"the-work-standard/internal/middleware"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	handler *Handler,
	auth gin.HandlerFunc,
	rbacService middleware.RBACService,
	logger *zap.Logger,
) {
	profiles := r.Group("/profiles")
	profiles.Use(auth)
	profiles.Use(middleware.ContextLogger(logger))
	{
		profiles.GET("",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorize(rbacService, domain.ResourceProfiles, domain.ActionReadAll),
			handler.GetAll,
		)

		profiles.GET("/me",
			middleware.RateLimitByUser(3, 10),
			handler.GetMe,
		)

		profiles.GET("/:id",
			middleware.RateLimitByUser(3, 10),
			middleware.RBACAuthorizeUnlessSelf(rbacService, "id", domain.ResourceProfiles, domain.ActionReadAll),
			handler.GetByID,
		)

		profiles.PATCH("/:id",
			middleware.RateLimitByUser(0.5, 5),
			middleware.RBACAuthorize(rbacService, domain.ResourceProfiles, domain.ActionUpdate),
			handler.Update,
		)

		profiles.PATCH("/:id/role",
			middleware.RateLimitByUser(0.5, 2),
			middleware.RBACAuthorize(rbacService, domain.ResourceProfiles, domain.ActionUpdateRole),
			handler.UpdateRole,
		)
	}
}
