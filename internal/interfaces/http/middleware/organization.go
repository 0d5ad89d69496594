package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/agentcommerce/backend/internal/infrastructure/logger"
)

// OrganizationIDKey is the gin context key holding the organization ID
const (
	OrganizationIDKey     = "organization_id"
	OrganizationHeaderKey = "X-Organization-ID"
)

// OrganizationMiddlewareConfig holds configuration for organization middleware
type OrganizationMiddlewareConfig struct {
	// SkipPaths are paths that don't require organization context.
	// Webhook routes belong here: platforms identify their tenant by
	// shop domain, not by header.
	SkipPaths []string
	// Required determines if organization context is mandatory
	Required bool
}

// DefaultOrganizationConfig returns default organization middleware configuration
func DefaultOrganizationConfig() OrganizationMiddlewareConfig {
	return OrganizationMiddlewareConfig{
		SkipPaths: []string{"/healthz", "/readyz", "/api/v1/webhooks"},
		Required:  true,
	}
}

// OrganizationMiddleware extracts the organization ID from the
// X-Organization-ID header. Authentication itself is an upstream
// concern; this layer trusts the header a gateway has already verified.
func OrganizationMiddleware() gin.HandlerFunc {
	return OrganizationMiddlewareWithConfig(DefaultOrganizationConfig())
}

// OrganizationMiddlewareWithConfig returns organization middleware with custom configuration
func OrganizationMiddlewareWithConfig(cfg OrganizationMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skipPath := range cfg.SkipPaths {
			if path == skipPath || strings.HasPrefix(path, skipPath+"/") {
				c.Next()
				return
			}
		}

		organizationID := c.GetHeader(OrganizationHeaderKey)

		if organizationID != "" {
			if _, err := uuid.Parse(organizationID); err != nil {
				respondUnauthorized(c, "Invalid organization ID format")
				return
			}
		}

		if organizationID == "" && cfg.Required {
			respondUnauthorized(c, "Organization identification required")
			return
		}

		if organizationID != "" {
			c.Set(OrganizationIDKey, organizationID)

			// Propagate to the request context so service-layer logs carry
			// the organization.
			ctx := c.Request.Context()
			log := logger.FromContext(ctx)
			ctx, _ = logger.WithOrganizationID(ctx, log, organizationID)
			c.Request = c.Request.WithContext(ctx)
		}

		c.Next()
	}
}

// respondUnauthorized sends an unauthorized response
func respondUnauthorized(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"error": gin.H{
			"code":    "ERR_UNAUTHORIZED",
			"message": message,
		},
	})
}

// GetOrganizationID retrieves the organization ID from gin.Context
func GetOrganizationID(c *gin.Context) string {
	if organizationID, exists := c.Get(OrganizationIDKey); exists {
		if id, ok := organizationID.(string); ok {
			return id
		}
	}
	return ""
}

// GetOrganizationUUID retrieves the organization ID as UUID from gin.Context
func GetOrganizationUUID(c *gin.Context) (uuid.UUID, error) {
	organizationID := GetOrganizationID(c)
	if organizationID == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(organizationID)
}

// OptionalOrganizationMiddleware creates middleware that doesn't require an organization
func OptionalOrganizationMiddleware() gin.HandlerFunc {
	cfg := DefaultOrganizationConfig()
	cfg.Required = false
	return OrganizationMiddlewareWithConfig(cfg)
}
