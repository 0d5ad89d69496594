package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	appsync "github.com/agentcommerce/backend/internal/application/sync"
	"github.com/agentcommerce/backend/internal/domain/integration"
	"github.com/agentcommerce/backend/internal/interfaces/http/dto"
)

// SyncRunner executes a manual sync run.
type SyncRunner interface {
	Run(ctx context.Context, req appsync.RunRequest) (*appsync.RunResult, error)
}

// SyncHandler exposes manual sync orchestration and the sync audit trail.
type SyncHandler struct {
	BaseHandler
	runner  SyncRunner
	logRepo integration.SyncLogRepository
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(runner SyncRunner, logRepo integration.SyncLogRepository) *SyncHandler {
	return &SyncHandler{
		runner:  runner,
		logRepo: logRepo,
	}
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	integrations := rg.Group("/integrations")
	{
		integrations.POST("/:id/sync", h.TriggerSync)
		integrations.GET("/:id/sync/logs", h.ListSyncLogs)
	}
}

// TriggerSync handles POST /integrations/:id/sync.
//
// The run executes synchronously and the response carries its per-kind
// summaries. A concurrent run on the same integration answers 409; the
// caller retries later instead of queueing.
func (h *SyncHandler) TriggerSync(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Organization identification required")
		return
	}

	integrationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID")
		return
	}

	var req dto.SyncRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	result, err := h.runner.Run(c.Request.Context(), req.ToRunRequest(organizationID, integrationID))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.Success(c, result)
}

// ListSyncLogs handles GET /integrations/:id/sync/logs.
func (h *SyncHandler) ListSyncLogs(c *gin.Context) {
	organizationID, err := getOrganizationID(c)
	if err != nil {
		h.Unauthorized(c, "Organization identification required")
		return
	}

	integrationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid integration ID")
		return
	}

	var req dto.SyncLogListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.ValidationError(c, err)
		return
	}

	logs, total, err := h.logRepo.List(c.Request.Context(), organizationID, req.ToFilter(integrationID))
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	h.SuccessWithMeta(c, dto.ToSyncLogResponses(logs), total, req.Page, req.PageSize)
}
