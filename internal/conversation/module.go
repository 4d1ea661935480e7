// Package conversation wires the chat pipeline into an HTTP module:
// repository, engine and handlers behind the public chat API.
package conversation

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"prospectchat_backend/internal/conversation/decide"
	"prospectchat_backend/internal/conversation/engine"
	"prospectchat_backend/internal/conversation/extract"
	"prospectchat_backend/internal/conversation/handler"
	"prospectchat_backend/internal/conversation/repository"
	"prospectchat_backend/internal/conversation/scoring"
	"prospectchat_backend/internal/events"
	apphttp "prospectchat_backend/internal/http"
	"prospectchat_backend/platform/logger"
	"prospectchat_backend/platform/validator"
)

// Deps are the externally constructed collaborators the module needs.
// The composition root builds these so the module stays free of any
// vendor SDK imports.
type Deps struct {
	Pool       *pgxpool.Pool
	Sessions   handler.SessionStore
	Classifier engine.IntentClassifier
	Extractor  engine.EntityExtractor
	Renderer   engine.ReplyRenderer
	RAG        engine.ContextProvider
	CRM        engine.CRMScheduler
	Bus        events.Bus
	Validator  *validator.Validator
	Logger     *logger.Logger

	MeetingURL       string
	QualifyThreshold int

	// OperatorAuth guards the operator-facing prospect endpoints.
	OperatorAuth gin.HandlerFunc
}

// Module is the conversation bounded context.
type Module struct {
	repo         *repository.Repository
	engine       *engine.Engine
	handler      *handler.Handler
	operatorAuth gin.HandlerFunc
}

func NewModule(deps Deps) *Module {
	repo := repository.New(deps.Pool)

	eng := engine.New(engine.Deps{
		Store:      repo,
		Classifier: deps.Classifier,
		Extractor:  deps.Extractor,
		Renderer:   deps.Renderer,
		RAG:        deps.RAG,
		CRM:        deps.CRM,
		Merger:     extract.NewMerger(nil),
		Scorer:     scoring.NewScorer(scoring.DefaultWeights()),
		Decider: decide.New(decide.Config{
			QualifyThreshold: deps.QualifyThreshold,
		}),
		Bus: deps.Bus,
		Log: deps.Logger,
	}, engine.Config{
		MeetingURL: deps.MeetingURL,
		Threshold:  deps.QualifyThreshold,
	})

	return &Module{
		repo:         repo,
		engine:       eng,
		handler:      handler.New(eng, deps.Sessions, repo, deps.Validator, deps.Logger),
		operatorAuth: deps.OperatorAuth,
	}
}

func (m *Module) Name() string { return "conversation" }

// Engine exposes the pipeline for other entrypoints (WhatsApp webhook).
func (m *Module) Engine() *engine.Engine { return m.engine }

// Repository exposes persistence for the CRM sync worker and backfill.
func (m *Module) Repository() *repository.Repository { return m.repo }

func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	chat := ctx.V1.Group("/chat")
	chat.Use(ctx.ChatRateLimiter.Middleware())
	chat.POST("/messages", m.handler.PostMessage)

	prospects := ctx.V1.Group("/prospects")
	if m.operatorAuth != nil {
		prospects.Use(m.operatorAuth)
	}
	prospects.GET("/:id", m.handler.GetProspect)
}
