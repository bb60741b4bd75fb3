package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agentgate-org/agentgate/pkg/api/dto"
	"github.com/agentgate-org/agentgate/pkg/api/middleware"
	"github.com/agentgate-org/agentgate/pkg/catalog"
	"github.com/agentgate-org/agentgate/pkg/permission"
)

// PermissionHandler handles grant and revoke requests.
type PermissionHandler struct {
	perms   *permission.Service
	catalog *catalog.Catalog
}

func NewPermissionHandler(perms *permission.Service, cat *catalog.Catalog) *PermissionHandler {
	return &PermissionHandler{perms: perms, catalog: cat}
}

// List godoc
// @Summary      List permissions
// @Description  Returns the caller's grants alongside the action catalog
// @Tags         permission
// @Produce      json
// @Success      200 {object} dto.PermissionsResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /api/v1/permissions [get]
func (h *PermissionHandler) List(c *gin.Context) {
	summary, err := h.perms.Summary(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.PermissionsResponse{
		Summary: summary,
		Catalog: h.catalog.List(),
	})
}

// Grant godoc
// @Summary      Grant an action or category
// @Description  Upserts a grant; action_id "*" with a category grants the whole category
// @Tags         permission
// @Accept       json
// @Produce      json
// @Param        request body dto.GrantRequest true "Grant request"
// @Success      200 {object} dto.OKResponse
// @Failure      400 {object} dto.ErrorResponse
// @Router       /api/v1/permissions/grant [post]
func (h *PermissionHandler) Grant(c *gin.Context) {
	var req dto.GrantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.ActionID == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "action_id is required"})
		return
	}

	err := h.perms.Grant(c.Request.Context(), middleware.UserID(c), req.ActionID, req.Category, permission.GrantOptions{
		RequiresConfirmation: req.RequiresConfirmation,
		DailyLimit:           req.DailyLimit,
		MaxValuePerAction:    req.MaxValuePerAction,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OKResponse{OK: true})
}

// Revoke godoc
// @Summary      Revoke an action or category
// @Description  Revokes a specific grant, a category wildcard, or a whole category; already-absent grants are a no-op
// @Tags         permission
// @Accept       json
// @Produce      json
// @Param        request body dto.RevokeRequest true "Revoke request"
// @Success      200 {object} dto.OKResponse
// @Failure      400 {object} dto.ErrorResponse
// @Router       /api/v1/permissions/revoke [post]
func (h *PermissionHandler) Revoke(c *gin.Context) {
	var req dto.RevokeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid request body"})
		return
	}
	if req.ActionID == "" && req.Category == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "action_id or category is required"})
		return
	}

	if err := h.perms.Revoke(c.Request.Context(), middleware.UserID(c), req.ActionID, req.Category); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OKResponse{OK: true})
}
