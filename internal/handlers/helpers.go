package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "grantdesk/internal/errors"
	"grantdesk/internal/logger"
	"grantdesk/internal/middleware"
	"grantdesk/internal/pagination"
	"grantdesk/internal/policy"
	"grantdesk/internal/services"
	"grantdesk/internal/uuid"
	"grantdesk/internal/validator"
)

// getPrincipal extracts the authenticated caller from the Gin context.
// Returns ErrUnauthorized if not present.
func getPrincipal(c *gin.Context) (policy.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok || p.UserID == "" {
		return policy.Principal{}, apperrors.ErrUnauthorized
	}
	return p, nil
}

// requestContext carries the client IP into the service layer for auditing.
func requestContext(c *gin.Context) context.Context {
	return services.ContextWithClientIP(c.Request.Context(), c.ClientIP())
}

// parsePathID parses a UUID path parameter into its canonical form.
// Returns ErrInvalidInput if the parameter is not a valid UUID.
func parsePathID(c *gin.Context, param string) (string, error) {
	id, err := uuid.Parse(c.Param(param))
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "Invalid "+param)
	}
	return id, nil
}

// bindJSON decodes and validates the request body into dst.
func bindJSON(c *gin.Context, dst interface{}) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return validator.BindingError(err)
	}
	return nil
}

// bindPage reads page and page_size from the query string.
func bindPage(c *gin.Context) (pagination.PageRequest, error) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		return page, validator.BindingError(err)
	}
	return page, nil
}

// optionalUUIDQuery returns the canonical form of an optional UUID query
// parameter, or "" when absent.
func optionalUUIDQuery(c *gin.Context, name string) (string, error) {
	v := c.Query(name)
	if v == "" {
		return "", nil
	}
	id, err := uuid.Parse(v)
	if err != nil {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, name+" must be a UUID")
	}
	return id, nil
}

// respondWithError writes a consistent JSON error response. If the error is an
// *AppError it uses the error's status code, code, message and field list.
// Otherwise it logs the unexpected error and returns a generic internal server
// error.
func respondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Internal != nil {
			logger.Get().Errorw("app error",
				"code", appErr.Code,
				"internal", appErr.Internal.Error(),
				"path", c.Request.URL.Path,
			)
		}
		c.JSON(appErr.StatusCode, gin.H{"error": appErr})
		return
	}

	logger.Get().Errorw("unexpected error",
		"error", err.Error(),
		"path", c.Request.URL.Path,
		"method", c.Request.Method,
	)
	c.JSON(apperrors.ErrInternalServer.StatusCode, gin.H{"error": apperrors.ErrInternalServer})
}

// ErrorDetail represents the inner error object in an error response.
type ErrorDetail struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Fields  []apperrors.FieldError `json:"fields,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// MessageResponse represents a simple message response
type MessageResponse struct {
	Message string `json:"message"`
}
