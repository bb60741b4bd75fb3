package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agentgate-org/agentgate/pkg/api/dto"
	"github.com/agentgate-org/agentgate/pkg/api/middleware"
	"github.com/agentgate-org/agentgate/pkg/credential"
	"github.com/agentgate-org/agentgate/pkg/types"
)

// CredentialHandler handles opt-in stored provider keys.
type CredentialHandler struct {
	resolver *credential.Resolver
}

func NewCredentialHandler(resolver *credential.Resolver) *CredentialHandler {
	return &CredentialHandler{resolver: resolver}
}

func parseProvider(raw string) (types.ProviderID, bool) {
	switch types.ProviderID(raw) {
	case types.ProviderOpenAI:
		return types.ProviderOpenAI, true
	case types.ProviderGemini:
		return types.ProviderGemini, true
	default:
		return "", false
	}
}

// Put godoc
// @Summary      Store a provider key
// @Description  Seals and persists a key for later requests. Explicit opt-in; the key is never logged.
// @Tags         credential
// @Accept       json
// @Produce      json
// @Param        provider path string true "Provider (openai or gemini)"
// @Param        request body dto.CredentialRequest true "Credential request"
// @Success      200 {object} dto.OKResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      500 {object} dto.ErrorResponse
// @Router       /api/v1/credentials/{provider} [put]
func (h *CredentialHandler) Put(c *gin.Context) {
	provider, ok := parseProvider(c.Param("provider"))
	if !ok {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "unknown provider"})
		return
	}

	var req dto.CredentialRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "key is required"})
		return
	}

	if err := h.resolver.Save(c.Request.Context(), middleware.UserID(c), provider, req.Key); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OKResponse{OK: true})
}

// Delete godoc
// @Summary      Delete a stored provider key
// @Description  Removes the stored key; no-op when absent
// @Tags         credential
// @Produce      json
// @Param        provider path string true "Provider (openai or gemini)"
// @Success      200 {object} dto.OKResponse
// @Failure      400 {object} dto.ErrorResponse
// @Router       /api/v1/credentials/{provider} [delete]
func (h *CredentialHandler) Delete(c *gin.Context) {
	provider, ok := parseProvider(c.Param("provider"))
	if !ok {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "unknown provider"})
		return
	}

	if err := h.resolver.Delete(c.Request.Context(), middleware.UserID(c), provider); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.OKResponse{OK: true})
}
