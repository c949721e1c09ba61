package attendance

import (
	"net/http"

	"the-work-standard/internal/shared/apperror"
	"the-work-standard/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TimezoneHeader carries the caller's IANA zone. Calendar dates and the
// late/early-leave policy are evaluated in it.
const TimezoneHeader = "X-Timezone"

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L().Named("attendance.handler")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("attendance.handler")
	}
	return &Handler{service: service, logger: l}
}

func (h *Handler) GetToday(c *gin.Context) {
	resp, err := h.service.GetToday(c.Request.Context(), c.GetString("user_id"), c.GetHeader(TimezoneHeader))
	if err != nil {
		response.FromError(c, err)
		return
	}
	if resp == nil {
		// not checked in yet
		response.Success(c, http.StatusOK, nil, nil)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) CheckIn(c *gin.Context) {
	resp, err := h.service.CheckIn(
		c.Request.Context(),
		c.GetString("company_id"),
		c.GetString("user_id"),
		c.GetHeader(TimezoneHeader),
	)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusCreated, resp, nil)
}

func (h *Handler) CheckOut(c *gin.Context) {
	resp, err := h.service.CheckOut(c.Request.Context(), c.GetString("user_id"), c.GetHeader(TimezoneHeader))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) SetNotes(c *gin.Context) {
	var req NotesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.FromError(c, apperror.MapValidationError(err))
		return
	}

	resp, err := h.service.SetNotes(c.Request.Context(), c.GetString("user_id"), c.GetHeader(TimezoneHeader), *req.Notes)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}

func (h *Handler) GetReport(c *gin.Context) {
	companyID := c.GetString("company_id")
	h.logger.Debug("http attendance report", zap.String("company_id", companyID), zap.String("date", c.Query("date")))

	resp, err := h.service.ListByCompany(c.Request.Context(), companyID, c.Query("date"), c.GetHeader(TimezoneHeader))
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, resp, nil)
}
