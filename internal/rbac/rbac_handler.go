package rbac

import (
	"net/http"
	"strings"

	"the-work-standard/internal/domain"
	"the-work-standard/internal/shared/apperror"
	"the-work-standard/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// Enforce answers whether the caller may perform action on resource.
func (h *Handler) Enforce(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperror.MapValidationError(err))
		return
	}

	userID := c.GetString("user_id")
	enforceReq := domain.EnforceRequest{
		UserID:    userID,
		CompanyID: c.GetString("company_id"),
		Resource:  strings.TrimSpace(req.Resource),
		Action:    strings.TrimSpace(req.Action),
	}

	allowed, err := h.service.Enforce(c.Request.Context(), enforceReq)
	if err != nil {
		response.FromError(c, err)
		return
	}

	role, err := h.service.RoleOf(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, domain.EnforceResponse{Allowed: allowed, Role: role}, nil)
}
