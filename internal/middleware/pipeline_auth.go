package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	apperrors "grantdesk/internal/errors"
	"grantdesk/internal/models"
	"grantdesk/internal/policy"
	"grantdesk/internal/uuid"
)

// APIKeyHeader carries the expense pipeline's shared secret.
const APIKeyHeader = "X-API-Key"

// PipelinePrincipal is the identity under which the expense pipeline acts.
var PipelinePrincipal = policy.Principal{
	UserID: uuid.Nil,
	Email:  "expense-pipeline",
	Role:   models.RoleService,
}

// PipelineAuthMiddleware admits callers presenting apiKey in X-API-Key and
// lets them act as PipelinePrincipal. With no key configured the pipeline
// routes are closed.
func PipelineAuthMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiKey == "" {
			abortWithError(c, apperrors.ErrPipelineNotConfigured)
			return
		}
		key := c.GetHeader(APIKeyHeader)
		if subtle.ConstantTimeCompare([]byte(key), []byte(apiKey)) != 1 {
			abortWithError(c, apperrors.ErrInvalidAPIKey)
			return
		}
		SetPrincipal(c, PipelinePrincipal)
		c.Next()
	}
}
