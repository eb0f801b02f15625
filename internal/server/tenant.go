package server

import (
	"net/http"
	"net/mail"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tenantd/internal/tenant/domain"
)

var orgNamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

func validateOrgName(field, name string) *ValidationErrors {
	name = strings.TrimSpace(name)
	if len(name) < 2 || len(name) > 50 {
		v := newValidationError(field, "length", "organization name must be between 2 and 50 characters")
		return &v
	}
	if !orgNamePattern.MatchString(name) {
		v := newValidationError(field, "charset", "organization name may only contain letters, digits, hyphens and underscores")
		return &v
	}
	return nil
}

func validateEmail(email string) *ValidationErrors {
	if _, err := mail.ParseAddress(strings.TrimSpace(email)); err != nil {
		v := newValidationError("email", "format", "email address is invalid")
		return &v
	}
	return nil
}

func validatePassword(password string) *ValidationErrors {
	if len(password) < 6 || len(password) > 100 {
		v := newValidationError("password", "length", "password must be between 6 and 100 characters")
		return &v
	}
	return nil
}

type createOrgRequest struct {
	OrganizationName string `json:"organization_name"`
	Email            string `json:"email"`
	Password         string `json:"password"`
}

func (s *Server) CreateOrg(c *gin.Context) {
	var req createOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if verr := validateOrgName("organization_name", req.OrganizationName); verr != nil {
		AbortWithError(c, *verr)
		return
	}
	if verr := validateEmail(req.Email); verr != nil {
		AbortWithError(c, *verr)
		return
	}
	if verr := validatePassword(req.Password); verr != nil {
		AbortWithError(c, *verr)
		return
	}

	org, err := s.tenants.Create(c.Request.Context(), domain.CreateRequest{
		OrganizationName: req.OrganizationName,
		Email:            req.Email,
		Password:         req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, http.StatusCreated, "Organization created successfully", org)
}

func (s *Server) GetOrg(c *gin.Context) {
	name := strings.ToLower(strings.TrimSpace(c.Param("organization_name")))
	if name == "" {
		AbortWithError(c, newValidationError("organization_name", "required", "organization name is required"))
		return
	}
	if principalOrg(c) != name {
		AbortWithError(c, errForbiddenOrg)
		return
	}

	org, err := s.tenants.Get(c.Request.Context(), name)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Organization retrieved successfully", org)
}

type updateOrgRequest struct {
	NewOrganizationName string `json:"new_organization_name"`
	Email               string `json:"email"`
	Password            string `json:"password"`
}

// UpdateOrg mutates the caller's own organization; the target comes from the
// token, never from the body.
func (s *Server) UpdateOrg(c *gin.Context) {
	var req updateOrgRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}
	if req.NewOrganizationName != "" {
		if verr := validateOrgName("new_organization_name", req.NewOrganizationName); verr != nil {
			AbortWithError(c, *verr)
			return
		}
	}
	if req.Email != "" {
		if verr := validateEmail(req.Email); verr != nil {
			AbortWithError(c, *verr)
			return
		}
	}
	if req.Password != "" {
		if verr := validatePassword(req.Password); verr != nil {
			AbortWithError(c, *verr)
			return
		}
	}

	org, err := s.tenants.Update(c.Request.Context(), domain.UpdateRequest{
		OrganizationName:    principalOrg(c),
		NewOrganizationName: req.NewOrganizationName,
		Email:               req.Email,
		Password:            req.Password,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Organization updated successfully", org)
}

func (s *Server) DeleteOrg(c *gin.Context) {
	result, err := s.tenants.Delete(c.Request.Context(), principalOrg(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	respondOK(c, http.StatusOK, "Organization deleted successfully", result)
}
