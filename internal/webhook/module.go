package webhook

import (
	"github.com/gin-gonic/gin"

	"prospectchat_backend/internal/conversation/engine"
	apphttp "prospectchat_backend/internal/http"
	"prospectchat_backend/platform/logger"
	"prospectchat_backend/platform/validator"
)

// Deps wires everything the webhook module needs.
type Deps struct {
	Engine    *engine.Engine
	Finder    ProspectFinder
	Sender    ReplySender
	Auth      gin.HandlerFunc
	Validator *validator.Validator
	Logger    *logger.Logger
}

type Module struct {
	handler *Handler
	auth    gin.HandlerFunc
}

func NewModule(deps Deps) *Module {
	return &Module{
		handler: NewHandler(deps.Engine, deps.Finder, deps.Sender, deps.Validator, deps.Logger),
		auth:    deps.Auth,
	}
}

func (m *Module) Name() string { return "webhook" }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Webhooks.Group("")
	if m.auth != nil {
		group.Use(m.auth)
	}
	group.POST("/whatsapp", m.handler.HandleWhatsApp)
}
