// Package webhook receives inbound channel callbacks and feeds them
// into the conversation engine. Currently the only channel is a
// gowa-compatible WhatsApp gateway.
package webhook

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"prospectchat_backend/internal/conversation/domain"
	"prospectchat_backend/internal/conversation/engine"
	"prospectchat_backend/internal/conversation/repository"
	"prospectchat_backend/internal/http/response"
	"prospectchat_backend/platform/logger"
	"prospectchat_backend/platform/phone"
	"prospectchat_backend/platform/validator"
)

// ProspectFinder resolves an open conversation by channel address.
type ProspectFinder interface {
	FindByChannelAddress(ctx context.Context, channel domain.Channel, address string) (domain.Record, error)
}

// ReplySender delivers the engine's reply back over the channel.
type ReplySender interface {
	SendMessage(ctx context.Context, phoneNumber string, message string) error
}

// WhatsAppPayload is the inbound message shape posted by the gateway.
type WhatsAppPayload struct {
	From     string `json:"from" validate:"required,max=64"`
	Pushname string `json:"pushname" validate:"max=128"`
	Message  struct {
		Text string `json:"text" validate:"required,max=4096"`
	} `json:"message"`
}

type Handler struct {
	engine   *engine.Engine
	finder   ProspectFinder
	sender   ReplySender
	validate *validator.Validator
	log      *logger.Logger
}

func NewHandler(eng *engine.Engine, finder ProspectFinder, sender ReplySender, validate *validator.Validator, log *logger.Logger) *Handler {
	return &Handler{
		engine:   eng,
		finder:   finder,
		sender:   sender,
		validate: validate,
		log:      log,
	}
}

// HandleWhatsApp processes one inbound WhatsApp message.
// POST /webhooks/whatsapp
func (h *Handler) HandleWhatsApp(c *gin.Context) {
	var payload WhatsAppPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request body", nil)
		return
	}
	if err := h.validate.Struct(payload); err != nil {
		response.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}

	ctx := c.Request.Context()
	address := normalizeAddress(payload.From)

	prospectID, err := h.resolveProspect(ctx, address)
	if err != nil {
		h.log.WithContext(ctx).Error("resolve whatsapp conversation", "error", err, "from", address)
		response.FromError(c, err)
		return
	}

	result, err := h.engine.HandleMessage(ctx, engine.Input{
		ProspectID:     prospectID,
		Channel:        domain.ChannelWhatsApp,
		ChannelAddress: &address,
		Text:           payload.Message.Text,
	})
	if err != nil {
		h.log.WithContext(ctx).Error("whatsapp turn failed", "error", err, "from", address)
		response.Error(c, http.StatusInternalServerError, "internal error", nil)
		return
	}

	if err := h.sender.SendMessage(ctx, address, result.Reply); err != nil {
		// The turn is already persisted. Report the delivery failure so
		// the gateway retries rather than dropping the reply.
		h.log.WithContext(ctx).Error("send whatsapp reply", "error", err, "prospect_id", result.ProspectID)
		response.Error(c, http.StatusBadGateway, "reply delivery failed", nil)
		return
	}

	response.OK(c, gin.H{"status": "processed"})
}

// resolveProspect maps the sender's phone number to its open
// conversation. A missing match means this is a first contact and the
// engine should create the record.
func (h *Handler) resolveProspect(ctx context.Context, address string) (uuid.UUID, error) {
	rec, err := h.finder.FindByChannelAddress(ctx, domain.ChannelWhatsApp, address)
	if errors.Is(err, repository.ErrNotFound) {
		return uuid.Nil, nil
	}
	if err != nil {
		return uuid.Nil, err
	}
	return rec.ID, nil
}

// normalizeAddress strips gateway JID suffixes like "@s.whatsapp.net"
// and normalizes the remaining number so lookups are stable.
func normalizeAddress(from string) string {
	if at := strings.IndexByte(from, '@'); at >= 0 {
		from = from[:at]
	}
	if normalized := phone.NormalizeE164(from); normalized != "" {
		return normalized
	}
	return strings.TrimSpace(from)
}
