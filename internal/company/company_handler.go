package company

import (
	"net/http"

	"the-work-standard/internal/shared/apperror"
	"the-work-standard/internal/shared/contextutil"
	"the-work-standard/internal/shared/response"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// maxCodeLen matches the companies.code column.
const maxCodeLen = 50

type Handler struct {
	service Service
	logger  *zap.Logger
}

func NewHandler(service Service, logger ...*zap.Logger) *Handler {
	l := zap.L()
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0]
	}
	return &Handler{service: service, logger: l.Named("company.handler")}
}

// GetMe returns the caller's own company.
func (h *Handler) GetMe(c *gin.Context) {
	companyID := c.GetString("company_id")
	if companyID == "" {
		response.FromError(c, apperror.ErrUnauthorized)
		return
	}

	comp, err := h.service.GetByID(c.Request.Context(), companyID)
	if err != nil {
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, comp, nil)
}

// VerifyCode is public; the sign-up form calls it before asking for a password.
func (h *Handler) VerifyCode(c *gin.Context) {
	code := c.Query("code")
	if len(code) > maxCodeLen {
		response.Success(c, http.StatusOK, VerifyCodeResponse{IsValid: false}, nil)
		return
	}

	res, err := h.service.VerifyCode(c.Request.Context(), code)
	if err != nil {
		contextutil.GetLogger(c.Request.Context(), h.logger).Error("verify company code failed", zap.Error(err))
		response.FromError(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, nil)
}
