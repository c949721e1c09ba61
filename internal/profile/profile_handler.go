package profile

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	profileerrors "the-work-standard/internal/profile/errors"
	"the-work-standard/internal/shared/apperror"
	"the-work-standard/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Handler struct {
	svc    Service
	logger *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("profile.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("profile.handler")
	}
	return &Handler{svc: service, logger: l}
}

func (h *Handler) GetMe(c *gin.Context) {
	ctx := c.Request.Context()

	res, err := h.svc.Get(ctx, c.GetString("company_id"), c.GetString("user_id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}

func (h *Handler) GetByID(c *gin.Context) {
	ctx := c.Request.Context()

	res, err := h.svc.Get(ctx, c.GetString("company_id"), c.Param("id"))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}

// GetAll lists the caller's company newest first. q filters on name or
// email; page and page_size paginate only when page is given.
func (h *Handler) GetAll(c *gin.Context) {
	companyID := c.GetString("company_id")
	ctx := c.Request.Context()
	h.logger.Debug("http list profiles", zap.String("company_id", companyID))

	resp, err := h.svc.ListByCompany(ctx, companyID)
	if err != nil {
		response.FromError(c, err)
		return
	}

	q := strings.TrimSpace(strings.ToLower(c.Query("q")))
	if q != "" {
		filtered := make([]ProfileResponse, 0, len(resp))
		for _, p := range resp {
			if strings.Contains(strings.ToLower(p.Name), q) || strings.Contains(strings.ToLower(p.Email), q) {
				filtered = append(filtered, p)
			}
		}
		resp = filtered
	}

	switch strings.ToLower(strings.TrimSpace(c.Query("sort_by"))) {
	case "name":
		sort.SliceStable(resp, func(i, j int) bool {
			return strings.ToLower(resp[i].Name) < strings.ToLower(resp[j].Name)
		})
	case "email":
		sort.SliceStable(resp, func(i, j int) bool {
			return strings.ToLower(resp[i].Email) < strings.ToLower(resp[j].Email)
		})
	}

	if c.Query("page") == "" {
		response.Success(c, http.StatusOK, resp, nil)
		return
	}

	page, _ := strconv.Atoi(c.Query("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	if pageSize < 1 {
		pageSize = 10
	}

	total := int64(len(resp))
	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(resp) {
		start = len(resp)
	}
	if end > len(resp) {
		end = len(resp)
	}

	meta := response.NewPaginationMeta(total, page, pageSize)
	response.Success(c, http.StatusOK, resp[start:end], &meta)
}

func (h *Handler) Update(c *gin.Context) {
	id := c.Param("id")
	if id != c.GetString("user_id") {
		response.FromError(c, profileerrors.ErrNotOwnProfile)
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperror.MapValidationError(err))
		return
	}

	ctx := c.Request.Context()

	res, err := h.svc.Update(ctx, c.GetString("company_id"), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}

func (h *Handler) UpdateRole(c *gin.Context) {
	var req UpdateRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, profileerrors.ErrInvalidRole)
		return
	}

	ctx := c.Request.Context()

	res, err := h.svc.UpdateRole(ctx, c.GetString("company_id"), c.Param("id"), req)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}
