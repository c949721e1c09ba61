package rbac

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"the-work-standard/internal/domain"
	"the-work-standard/internal/rbac/infra"
	"the-work-standard/internal/shared/response"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler_Enforce(t *testing.T) {
	gin.SetMode(gin.TestMode)

	enforcer, err := infra.NewEnforcer()
	require.NoError(t, err)
	handler := NewHandler(NewService(&fakeRepo{roles: map[string]string{"emp-1": "user"}}, enforcer))

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", "emp-1")
		c.Set("company_id", "company-1")
		c.Next()
	})
	router.POST("/rbac/enforce", handler.Enforce)

	t.Run("Allowed", func(t *testing.T) {
		jsonBody, _ := json.Marshal(CheckRequest{Resource: "attendance", Action: "check"})
		req, _ := http.NewRequest(http.MethodPost, "/rbac/enforce", bytes.NewBuffer(jsonBody))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var resp response.Envelope[domain.EnforceResponse]
		assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Data.Allowed)
		assert.Equal(t, "user", resp.Data.Role)
	})

	t.Run("Invalid Body", func(t *testing.T) {
		req, _ := http.NewRequest(http.MethodPost, "/rbac/enforce", bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
