package middleware

import (
	"context"

	"the-work-standard/internal/domain"
	"the-work-standard/internal/shared/apperror"
	"the-work-standard/internal/shared/response"

	"github.com/gin-gonic/gin"
)

type ContextKey string

const (
	ContextUserID    ContextKey = "user_id"
	ContextCompanyID ContextKey = "company_id"
)

// RBACService is satisfied by rbac.Service.
type RBACService interface {
	Enforce(ctx context.Context, req domain.EnforceRequest) (bool, error)
}

func RBACAuthorize(service RBACService, resource, action string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(string(ContextUserID))
		companyID := c.GetString(string(ContextCompanyID))

		if userID == "" || companyID == "" {
			response.FromError(c, apperror.ErrUnauthorized)
			c.Abort()
			return
		}

		allowed, err := service.Enforce(c.Request.Context(), domain.EnforceRequest{
			UserID:    userID,
			CompanyID: companyID,
			Resource:  resource,
			Action:    action,
		})
		if err != nil {
			response.FromError(c, err)
			c.Abort()
			return
		}

		if !allowed {
			response.Error(c, apperror.ErrForbidden.HTTPStatus, apperror.ErrForbidden.Code, apperror.ErrForbidden.Message,
				gin.H{"required": resource + ":" + action})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RBACAuthorizeUnlessSelf lets a caller through without enforcement when the
// :param path value is their own user id.
func RBACAuthorizeUnlessSelf(service RBACService, param, resource, action string) gin.HandlerFunc {
	authorize := RBACAuthorize(service, resource, action)
	return func(c *gin.Context) {
		userID := c.GetString(string(ContextUserID))
		if userID != "" && c.Param(param) == userID {
			c.Next()
			return
		}
		authorize(c)
	}
}
