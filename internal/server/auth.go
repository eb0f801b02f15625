package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tenantd/internal/tenant/domain"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) AdminLogin(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if verr := validateEmail(req.Email); verr != nil {
		AbortWithError(c, *verr)
		return
	}
	if req.Password == "" {
		AbortWithError(c, newValidationError("password", "required", "password is required"))
		return
	}

	result, err := s.tenants.Login(c.Request.Context(), domain.LoginRequest{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Login successful", gin.H{
		"token":             result.Token,
		"expires_at":        result.ExpiresAt,
		"admin_id":          result.AdminID,
		"email":             result.Email,
		"organization_name": result.OrganizationName,
	})
}
