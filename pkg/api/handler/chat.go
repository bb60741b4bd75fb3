package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/agentgate-org/agentgate/pkg/api/dto"
	"github.com/agentgate-org/agentgate/pkg/api/middleware"
	"github.com/agentgate-org/agentgate/pkg/api/service"
	"github.com/agentgate-org/agentgate/pkg/credential"
)

// Per-provider credential headers. Keys arriving here are used for the one
// request and never logged or persisted.
const (
	HeaderOpenAIKey = "X-OpenAI-Key"
	HeaderGeminiKey = "X-Gemini-Key"
)

// ChatHandler handles chat completion requests.
type ChatHandler struct {
	svc *service.ChatService
}

func NewChatHandler(svc *service.ChatService) *ChatHandler {
	return &ChatHandler{svc: svc}
}

// Completion godoc
// @Summary      Chat completion
// @Description  Send a message to the assistant; proposed actions are authorized and executed inline
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        request body dto.ChatRequest true "Chat request"
// @Success      200 {object} dto.ChatResponse
// @Failure      400 {object} dto.ErrorResponse
// @Failure      402 {object} dto.ErrorResponse
// @Failure      429 {object} dto.ErrorResponse
// @Failure      502 {object} dto.ErrorResponse
// @Router       /api/v1/chat [post]
func (h *ChatHandler) Completion(c *gin.Context) {
	var req dto.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "message is required"})
		return
	}

	in := service.ChatInput{
		UserID:    middleware.UserID(c),
		Message:   req.Message,
		ModelHint: req.Model,
		Keys: credential.RequestKeys{
			OpenAI: c.GetHeader(HeaderOpenAIKey),
			Gemini: c.GetHeader(HeaderGeminiKey),
		},
	}

	if req.Stream {
		h.stream(c, in)
		return
	}

	result, err := h.svc.Chat(c.Request.Context(), in)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ChatResponse{
		Message:    result.Message,
		Actions:    actionResults(result.Actions),
		ModelUsed:  result.Model,
		Provider:   string(result.Provider),
		Usage:      usageBlock(result),
		UserStatus: userStatus(result),
	})
}

// stream delivers the completion as SSE frames: zero or more "delta" frames,
// then one "done" frame. Errors before the first delta fall back to a JSON
// error response; later ones become an "error" frame.
func (h *ChatHandler) stream(c *gin.Context, in service.ChatInput) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "streaming unsupported"})
		return
	}

	started := false
	begin := func() {
		c.Writer.Header().Set("Content-Type", "text/event-stream")
		c.Writer.Header().Set("Cache-Control", "no-cache")
		c.Writer.Header().Set("Connection", "keep-alive")
		c.Writer.Header().Set("X-Accel-Buffering", "no")
		c.Writer.WriteHeader(http.StatusOK)
		started = true
	}

	result, err := h.svc.ChatStream(c.Request.Context(), in, func(delta string) error {
		if !started {
			begin()
		}
		return writeEvent(c.Writer, flusher, "delta", gin.H{"content": delta})
	})
	if err != nil {
		if !started {
			respondError(c, err)
			return
		}
		_ = writeEvent(c.Writer, flusher, "error", dto.ErrorResponse{Error: err.Error()})
		return
	}

	if !started {
		begin()
	}
	_ = writeEvent(c.Writer, flusher, "done", dto.StreamDone{
		Done:       true,
		Actions:    actionResults(result.Actions),
		Model:      result.Model,
		Provider:   string(result.Provider),
		Usage:      usageBlock(result),
		UserStatus: userStatus(result),
	})
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("event: " + event + "\ndata: " + string(data) + "\n\n")); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}

func actionResults(outcomes []service.ActionOutcome) []dto.ActionResult {
	if len(outcomes) == 0 {
		return nil
	}
	results := make([]dto.ActionResult, 0, len(outcomes))
	for _, o := range outcomes {
		results = append(results, dto.ActionResult{
			ExecutionID: o.Record.ID,
			ActionID:    o.Record.ActionID,
			Status:      string(o.Record.Status),
			Summary:     o.Record.ResultSummary,
			Error:       o.Record.ErrorMessage,
		})
	}
	return results
}

func usageBlock(r *service.ChatResult) dto.UsageBlock {
	return dto.UsageBlock{
		InputTokens:  r.Usage.InputTokens,
		OutputTokens: r.Usage.OutputTokens,
		TotalTokens:  r.Usage.TotalTokens,
		UsedOwnKey:   r.UsedOwnKey,
	}
}

func userStatus(r *service.ChatResult) dto.UserStatus {
	return dto.UserStatus{
		HasOwnKey:          r.HasOwnKey,
		FreeQuotaRemaining: r.FreeQuotaRemaining,
	}
}
