// Package handler exposes the conversation engine over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"prospectchat_backend/internal/conversation/domain"
	"prospectchat_backend/internal/conversation/engine"
	"prospectchat_backend/internal/conversation/repository"
	"prospectchat_backend/internal/conversation/transport"
	"prospectchat_backend/internal/http/response"
	"prospectchat_backend/internal/session"
	"prospectchat_backend/platform/logger"
	"prospectchat_backend/platform/validator"
)

// SessionStore is the session mapping the handler needs.
type SessionStore interface {
	Resolve(ctx context.Context, sessionID string) (uuid.UUID, error)
	Bind(ctx context.Context, sessionID string, prospectID uuid.UUID) error
}

// SummaryReader loads the operator-facing prospect view.
type SummaryReader interface {
	GetProspect(ctx context.Context, id uuid.UUID) (domain.Record, error)
	CountMessages(ctx context.Context, prospectID uuid.UUID) (int, error)
}

type Handler struct {
	engine   *engine.Engine
	sessions SessionStore
	reader   SummaryReader
	validate *validator.Validator
	log      *logger.Logger
}

func New(eng *engine.Engine, sessions SessionStore, reader SummaryReader, validate *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{
		engine:   eng,
		sessions: sessions,
		reader:   reader,
		validate: validate,
		log:      log,
	}
}

// PostMessage handles one widget chat turn.
func (h *Handler) PostMessage(c *gin.Context) {
	var req transport.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	ctx := c.Request.Context()

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	prospectID := h.resolveSession(ctx, sessionID)

	result, err := h.engine.HandleMessage(ctx, engine.Input{
		ProspectID: prospectID,
		Channel:    domain.ChannelWidget,
		Text:       req.Message,
	})
	if engine.IsNotFound(err) {
		// The session pointed at a conversation that no longer exists.
		// Start fresh rather than stranding the visitor.
		result, err = h.engine.HandleMessage(ctx, engine.Input{
			Channel: domain.ChannelWidget,
			Text:    req.Message,
		})
	}
	if err != nil {
		h.log.WithContext(ctx).Error("chat turn failed", "error", err)
		response.Error(c, http.StatusInternalServerError, "internal error", nil)
		return
	}

	if err := h.sessions.Bind(ctx, sessionID, result.ProspectID); err != nil {
		// The turn already happened; losing the binding only costs
		// conversation continuity, not the reply.
		h.log.WithContext(ctx).Error("bind session", "error", err)
	}

	response.OK(c, transport.ChatResponse{
		SessionID: sessionID,
		Reply:     result.Reply,
		Closed:    result.Status == domain.StatusClosed,
	})
}

func (h *Handler) resolveSession(ctx context.Context, sessionID string) uuid.UUID {
	id, err := h.sessions.Resolve(ctx, sessionID)
	if errors.Is(err, session.ErrNotFound) {
		return uuid.Nil
	}
	if err != nil {
		h.log.WithContext(ctx).Error("resolve session", "error", err)
		return uuid.Nil
	}
	return id
}

// GetProspect returns the accumulated record for operator tooling.
func (h *Handler) GetProspect(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Error(c, http.StatusBadRequest, "invalid prospect id", nil)
		return
	}

	ctx := c.Request.Context()
	rec, err := h.reader.GetProspect(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		response.Error(c, http.StatusNotFound, "prospect not found", nil)
		return
	}
	if err != nil {
		response.FromError(c, err)
		return
	}

	count, err := h.reader.CountMessages(ctx, id)
	if err != nil {
		h.log.WithContext(ctx).Error("count messages", "error", err)
	}

	response.OK(c, transport.ProspectSummary{
		ID:              rec.ID.String(),
		Name:            domain.StrOrEmpty(rec.Name),
		Company:         domain.StrOrEmpty(rec.Company),
		Email:           domain.StrOrEmpty(rec.Email),
		Budget:          domain.StrOrEmpty(rec.Budget),
		Location:        domain.StrOrEmpty(rec.Location),
		Industry:        domain.StrOrEmpty(rec.Industry),
		Notes:           rec.Notes.Lines(),
		Status:          string(rec.Status),
		Score:           rec.Score,
		MeetingLinkSent: rec.MeetingLinkSent,
		Channel:         string(rec.Channel),
		MessageCount:    count,
		CreatedAt:       rec.CreatedAt,
		UpdatedAt:       rec.UpdatedAt,
	})
}
