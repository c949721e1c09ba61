package attendance

import (
	"the-work-standard/internal/domain"
	"the-work-standard/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

func RegisterRoutes(
	r *gin.RouterGroup,
	h *Handler,
	auth gin.HandlerFunc,
	rbacService middleware.RBACService,
	rdb *redis.Client,
) {
	attendance := r.Group("/attendance")
	attendance.Use(auth, middleware.TenantScope())
	{
		attendance.GET("",
			middleware.RBACAuthorize(rbacService, domain.ResourceAttendance, domain.ActionReadAll),
			h.GetReport,
		)
		attendance.GET("/today",
			middleware.RateLimitByUser(2, 10),
			middleware.RBACAuthorize(rbacService, domain.ResourceAttendance, domain.ActionRead),
			h.GetToday,
		)
		attendance.POST("/check-in",
			middleware.RateLimitByUser(0.5, 3),
			middleware.RBACAuthorize(rbacService, domain.ResourceAttendance, domain.ActionCheck),
			middleware.Idempotency(rdb),
			h.CheckIn,
		)
		attendance.POST("/check-out",
			middleware.RateLimitByUser(0.5, 3),
			middleware.RBACAuthorize(rbacService, domain.ResourceAttendance, domain.ActionCheck),
			middleware.Idempotency(rdb),
			h.CheckOut,
		)
		attendance.PUT("/notes",
			middleware.RateLimitByUser(1, 5),
			middleware.RBACAuthorize(rbacService, domain.ResourceAttendance, domain.ActionCheck),
			h.SetNotes,
		)
	}
}
