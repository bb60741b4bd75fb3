package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agentgate-org/agentgate/pkg/action"
	"github.com/agentgate-org/agentgate/pkg/api/dto"
	"github.com/agentgate-org/agentgate/pkg/api/middleware"
	"github.com/agentgate-org/agentgate/pkg/catalog"
	"github.com/agentgate-org/agentgate/pkg/llm"
	"github.com/agentgate-org/agentgate/pkg/store"
)

// ActorUser marks directly-invoked executions in the audit trail.
const ActorUser = "user"

// ActionHandler handles direct action execution, confirmation and history.
type ActionHandler struct {
	executor *action.Executor
	catalog  *catalog.Catalog
	models   *llm.ModelCatalog
}

func NewActionHandler(executor *action.Executor, cat *catalog.Catalog, models *llm.ModelCatalog) *ActionHandler {
	return &ActionHandler{executor: executor, catalog: cat, models: models}
}

// Catalog godoc
// @Summary      Action and model catalog
// @Description  Lists every known action definition and model
// @Tags         action
// @Produce      json
// @Success      200 {object} dto.CatalogResponse
// @Router       /api/v1/actions/catalog [get]
func (h *ActionHandler) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, dto.CatalogResponse{
		Actions: h.catalog.List(),
		Models:  h.models.List(),
	})
}

// Execute godoc
// @Summary      Execute an action directly
// @Description  Runs one action through the permission check and state machine; the outcome status is in the body, not the HTTP status
// @Tags         action
// @Accept       json
// @Produce      json
// @Param        request body dto.ExecuteRequest true "Execute request"
// @Success      200 {object} dto.ExecutionResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /api/v1/actions/execute [post]
func (h *ActionHandler) Execute(c *gin.Context) {
	var req dto.ExecuteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "action_id is required"})
		return
	}

	rec, err := h.executor.Execute(c.Request.Context(), action.ExecuteInput{
		UserID:    middleware.UserID(c),
		ActorID:   ActorUser,
		ActionID:  req.ActionID,
		Params:    req.Params,
		Confirmed: req.Confirmed,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewExecutionResponse(*rec))
}

// Confirm godoc
// @Summary      Confirm a pending action
// @Description  Executes an action previously parked in pending_confirmation
// @Tags         action
// @Produce      json
// @Param        id path string true "Execution ID"
// @Success      200 {object} dto.ExecutionResponse
// @Failure      404 {object} dto.ErrorResponse
// @Failure      409 {object} dto.ErrorResponse
// @Router       /api/v1/actions/{id}/confirm [post]
func (h *ActionHandler) Confirm(c *gin.Context) {
	rec, err := h.executor.Confirm(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewExecutionResponse(*rec))
}

// Pending godoc
// @Summary      List pending confirmations
// @Tags         action
// @Produce      json
// @Success      200 {object} dto.ExecutionListResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /api/v1/actions/pending [get]
func (h *ActionHandler) Pending(c *gin.Context) {
	recs, err := h.executor.ListPending(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, executionList(recs))
}

// History godoc
// @Summary      List execution history
// @Description  Recent executions, newest first; filterable by action id and status
// @Tags         action
// @Produce      json
// @Param        action_id query string false "Filter by action id"
// @Param        status query string false "Filter by status"
// @Param        limit query int false "Maximum entries"
// @Success      200 {object} dto.ExecutionListResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /api/v1/actions/history [get]
func (h *ActionHandler) History(c *gin.Context) {
	filter := store.ExecutionFilter{
		ActionID: c.Query("action_id"),
		Status:   store.ExecutionStatus(c.Query("status")),
	}
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			filter.Limit = n
		}
	}

	recs, err := h.executor.History(c.Request.Context(), middleware.UserID(c), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, executionList(recs))
}

func executionList(recs []store.ExecutionRecord) dto.ExecutionListResponse {
	resp := dto.ExecutionListResponse{
		Executions: make([]dto.ExecutionResponse, 0, len(recs)),
	}
	for _, rec := range recs {
		resp.Executions = append(resp.Executions, dto.NewExecutionResponse(rec))
	}
	return resp
}
