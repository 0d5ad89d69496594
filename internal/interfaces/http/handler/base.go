package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsync "github.com/agentcommerce/backend/internal/application/sync"
	"github.com/agentcommerce/backend/internal/domain/integration"
	"github.com/agentcommerce/backend/internal/interfaces/http/dto"
	"github.com/agentcommerce/backend/internal/interfaces/http/middleware"
)

// RequestIDKey is the context key for request ID
const RequestIDKey = "X-Request-ID"

// BaseHandler provides common handler utilities
type BaseHandler struct{}

// getRequestID extracts the request ID from the context
func getRequestID(c *gin.Context) string {
	if id := c.GetString(RequestIDKey); id != "" {
		return id
	}
	if id := c.GetHeader(RequestIDKey); id != "" {
		return id
	}
	return ""
}

// getOrganizationID extracts the organization ID set by the organization
// middleware. Routes behind that middleware always have it.
func getOrganizationID(c *gin.Context) (uuid.UUID, error) {
	idStr := middleware.GetOrganizationID(c)
	if idStr == "" {
		return uuid.Nil, errors.New("organization ID not found in context")
	}
	return uuid.Parse(idStr)
}

// Success sends a success response
func (h *BaseHandler) Success(c *gin.Context, data any) {
	c.JSON(http.StatusOK, dto.NewSuccessResponse(data))
}

// SuccessWithMeta sends a success response with pagination meta
func (h *BaseHandler) SuccessWithMeta(c *gin.Context, data any, total int64, page, pageSize int) {
	c.JSON(http.StatusOK, dto.NewSuccessResponseWithMeta(data, total, page, pageSize))
}

// Created sends a 201 created response
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, dto.NewSuccessResponse(data))
}

// Error sends an error response with the appropriate status code
func (h *BaseHandler) Error(c *gin.Context, statusCode int, code, message string) {
	requestID := getRequestID(c)
	c.JSON(statusCode, dto.NewErrorResponseWithRequestID(code, message, requestID))
}

// BadRequest sends a 400 bad request response
func (h *BaseHandler) BadRequest(c *gin.Context, message string) {
	h.Error(c, http.StatusBadRequest, dto.ErrCodeBadRequest, message)
}

// NotFound sends a 404 not found response
func (h *BaseHandler) NotFound(c *gin.Context, message string) {
	h.Error(c, http.StatusNotFound, dto.ErrCodeNotFound, message)
}

// Unauthorized sends a 401 unauthorized response
func (h *BaseHandler) Unauthorized(c *gin.Context, message string) {
	h.Error(c, http.StatusUnauthorized, dto.ErrCodeUnauthorized, message)
}

// Conflict sends a 409 conflict response
func (h *BaseHandler) Conflict(c *gin.Context, code, message string) {
	h.Error(c, http.StatusConflict, code, message)
}

// InternalError sends a 500 internal server error response
func (h *BaseHandler) InternalError(c *gin.Context, message string) {
	h.Error(c, http.StatusInternalServerError, dto.ErrCodeInternal, message)
}

// ValidationError sends a 400 validation error response with details
func (h *BaseHandler) ValidationError(c *gin.Context, err error) {
	middleware.HandleValidationError(c, err)
}

// HandleDomainError converts sentinel domain errors to HTTP responses.
// Unrecognized errors surface as 500 without leaking internals.
func (h *BaseHandler) HandleDomainError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, integration.ErrIntegrationNotFound),
		errors.Is(err, integration.ErrProductNotFound),
		errors.Is(err, integration.ErrOrderNotFound):
		h.NotFound(c, err.Error())
	case errors.Is(err, integration.ErrSyncAlreadyInProgress):
		h.Conflict(c, dto.ErrCodeSyncInProgress, "A sync run for this integration is already in progress")
	case errors.Is(err, integration.ErrIntegrationInactive):
		h.Error(c, http.StatusUnprocessableEntity, dto.ErrCodeIntegrationInactive, "Integration is not active")
	case errors.Is(err, integration.ErrPlatformInvalidSignature):
		h.Error(c, http.StatusUnauthorized, dto.ErrCodeInvalidSignature, "Webhook signature verification failed")
	case errors.Is(err, integration.ErrPlatformNotRegistered),
		errors.Is(err, integration.ErrPlatformNotConfigured):
		h.BadRequest(c, err.Error())
	case errors.Is(err, integration.ErrPlatformUnavailable),
		errors.Is(err, integration.ErrPlatformRequestFailed):
		h.Error(c, http.StatusBadGateway, dto.ErrCodePlatformUnavailable, "Commerce platform is unavailable")
	case errors.Is(err, appsync.ErrInvalidScope),
		errors.Is(err, appsync.ErrInvalidDirection):
		h.Error(c, http.StatusBadRequest, dto.ErrCodeInvalidInput, err.Error())
	default:
		h.InternalError(c, "An unexpected error occurred")
	}
}
