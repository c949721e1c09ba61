package middleware

import (
	"errors"
	"strings"

	autherrors "the-work-standard/internal/auth/errors"
	"the-work-standard/internal/shared/contextutil"
	"the-work-standard/internal/shared/response"
	"the-work-standard/internal/shared/token"

	"github.com/gin-gonic/gin"
)

func AuthMiddleware(issuer *token.Issuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, found := strings.CutPrefix(c.GetHeader("Authorization"), "Bearer ")
		if !found {
			tokenString = ""
		}

		if tokenString == "" {
			if cookie, err := c.Cookie("access_token"); err == nil {
				tokenString = cookie
			}
		}

		if tokenString == "" {
			response.FromError(c, autherrors.ErrInvalidToken)
			c.Abort()
			return
		}

		claims, err := issuer.Parse(tokenString, token.TypeAccess)
		if err != nil {
			errObj := autherrors.ErrInvalidToken
			if errors.Is(err, token.ErrExpired) {
				errObj = autherrors.ErrTokenExpired
			}
			response.FromError(c, errObj)
			c.Abort()
			return
		}

		if claims.CompanyID == "" {
			response.FromError(c, autherrors.ErrInvalidToken)
			c.Abort()
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("company_id", claims.CompanyID)
		c.Set("role", claims.Role)

		ctx := contextutil.WithUserID(c.Request.Context(), claims.UserID)
		c.Request = c.Request.WithContext(contextutil.WithCompany(ctx, claims.CompanyID))
		c.Next()
	}
}

// RoleMiddleware checks the role claim. Prefer RBACAuthorize, which reads the
// stored role, for anything a role change must affect immediately.
func RoleMiddleware(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString("role")
		for _, role := range allowedRoles {
			if userRole == role {
				c.Next()
				return
			}
		}

		response.FromError(c, autherrors.ErrForbidden)
		c.Abort()
	}
}
