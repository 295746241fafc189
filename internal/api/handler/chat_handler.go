package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lavoroapp/marketplace-api/internal/api/metrics"
	"github.com/lavoroapp/marketplace-api/internal/core/domain"
	"github.com/lavoroapp/marketplace-api/internal/core/sync"
)

// ChatHandler handles conversation resolution and unread tracking.
type ChatHandler struct {
	resolver *sync.ChatSessionResolver
	sessions *sync.Manager
}

func NewChatHandler(resolver *sync.ChatSessionResolver, sessions *sync.Manager) *ChatHandler {
	return &ChatHandler{resolver: resolver, sessions: sessions}
}

type resolveChatRequest struct {
	JobID      string `json:"job_id" validate:"required"`
	EmployerID string `json:"employer_id" validate:"required"`
	WorkerID   string `json:"worker_id" validate:"required"`
}

type resolveChatResponse struct {
	ConversationID string `json:"conversation_id"`
}

type unreadResponse struct {
	Total  int            `json:"total"`
	Counts map[string]int `json:"counts"`
}

// Resolve handles POST /v1/chats/resolve — returns the single conversation
// for a (job, employer, worker) triple, creating it when absent. Either
// party may invoke it; callers outside the triple are rejected.
//
// @Summary      Resolve the conversation for a job triple
// @Tags         chats
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      resolveChatRequest  true  "Conversation triple"
// @Success      200   {object}  resolveChatResponse
// @Failure      400   {object}  map[string]string
// @Failure      403   {object}  map[string]string
// @Router       /v1/chats/resolve [post]
func (h *ChatHandler) Resolve(c echo.Context) error {
	profileID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	var req resolveChatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if profileID != req.EmployerID && profileID != req.WorkerID {
		return domain.ErrPermissionDenied
	}

	id, created, err := h.resolver.GetOrCreate(c.Request().Context(), req.JobID, req.EmployerID, req.WorkerID)
	if err != nil {
		return err
	}

	result := "existing"
	if created {
		result = "created"
	}
	metrics.ConversationsResolvedTotal.WithLabelValues(result).Inc()

	return c.JSON(http.StatusOK, resolveChatResponse{ConversationID: id})
}

// Unread handles GET /v1/chats/unread — per-conversation unread counts and
// their total for the signed-in profile.
//
// @Summary      Get unread message counts
// @Tags         chats
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  unreadResponse
// @Failure      401  {object}  map[string]string
// @Router       /v1/chats/unread [get]
func (h *ChatHandler) Unread(c echo.Context) error {
	profileID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	sess, err := h.sessions.Open(c.Request().Context(), profileID)
	if err != nil {
		return err
	}

	tracker := sess.Unread()
	return c.JSON(http.StatusOK, unreadResponse{
		Total:  tracker.Total(),
		Counts: tracker.Counts(),
	})
}

// MarkRead handles POST /v1/chats/:id/read — stamps the caller onto every
// unread message of the conversation. The local count drops only when the
// store pushes the updated snapshot back.
//
// @Summary      Mark a conversation as read
// @Tags         chats
// @Security     BearerAuth
// @Param        id  path  string  true  "Conversation id"
// @Success      204
// @Failure      401  {object}  map[string]string
// @Router       /v1/chats/{id}/read [post]
func (h *ChatHandler) MarkRead(c echo.Context) error {
	profileID, _, err := ctxClaims(c)
	if err != nil {
		return err
	}

	sess, err := h.sessions.Open(c.Request().Context(), profileID)
	if err != nil {
		return err
	}

	if err := sess.Unread().MarkRead(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
