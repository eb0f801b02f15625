package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/tenantd/internal/auth/token"
	"github.com/smallbiznis/tenantd/internal/tenant/domain"
	"go.uber.org/zap"
)

// Stable machine-readable codes. Clients key on these, not on messages.
const (
	CodeOrgAlreadyExists   = "ORG_ALREADY_EXISTS"
	CodeOrgNotFound        = "ORG_NOT_FOUND"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeTokenMissing       = "TOKEN_MISSING"
	CodeTokenExpired       = "TOKEN_EXPIRED"
	CodeTokenInvalid       = "TOKEN_INVALID"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeMutationInProgress = "MUTATION_IN_PROGRESS"
	CodeValidationError    = "VALIDATION_ERROR"
	CodeRateLimitExceeded  = "RATE_LIMIT_EXCEEDED"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"
	CodeInternalError      = "INTERNAL_ERROR"
)

var errForbiddenOrg = errors.New("forbidden_org")

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

func newValidationError(field, code, message string) ValidationErrors {
	return ValidationErrors{Errors: []ValidationError{{Field: field, Code: code, Message: message}}}
}

func invalidRequestError() ValidationErrors {
	return newValidationError("body", "invalid_body", "request body is malformed")
}

// ErrorHandlingMiddleware turns the last collected error into the envelope.
// Handlers never shape error responses themselves.
func ErrorHandlingMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}
		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}
		writeError(c, log, lastErr.Err)
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func writeError(c *gin.Context, log *zap.Logger, err error) {
	var verr ValidationErrors
	if errors.As(err, &verr) {
		respondError(c, http.StatusBadRequest, "Validation failed", CodeValidationError, verr.Errors)
		return
	}

	switch {
	case errors.Is(err, domain.ErrNameTaken), errors.Is(err, domain.ErrAlreadyExists):
		respondError(c, http.StatusConflict, "Organization name already exists", CodeOrgAlreadyExists, nil)
	case errors.Is(err, domain.ErrEmailTaken):
		respondError(c, http.StatusConflict, "Email is already registered", CodeOrgAlreadyExists, nil)
	case errors.Is(err, domain.ErrMutationInProgress):
		respondError(c, http.StatusConflict, "Organization is being modified, please retry", CodeMutationInProgress, nil)
	case errors.Is(err, domain.ErrNotFound):
		respondError(c, http.StatusNotFound, "Organization not found", CodeOrgNotFound, nil)
	case errors.Is(err, domain.ErrInvalidCredentials):
		respondError(c, http.StatusUnauthorized, "Invalid credentials", CodeInvalidCredentials, nil)
	case errors.Is(err, token.ErrMissing):
		respondError(c, http.StatusUnauthorized, "Authentication token is required", CodeTokenMissing, nil)
	case errors.Is(err, token.ErrExpired):
		respondError(c, http.StatusUnauthorized, "Authentication token has expired", CodeTokenExpired, nil)
	case errors.Is(err, token.ErrMalformed):
		respondError(c, http.StatusUnauthorized, "Authentication token is invalid", CodeTokenInvalid, nil)
	case errors.Is(err, errForbiddenOrg):
		respondError(c, http.StatusForbidden, "You can only access your own organization", CodeUnauthorized, nil)
	default:
		log.Error("unhandled request error", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Internal server error", CodeInternalError, nil)
	}
}
