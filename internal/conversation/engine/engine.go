package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"unicode/utf8"

	"github.com/google/uuid"

	"prospectchat_backend/internal/conversation/decide"
	"prospectchat_backend/internal/conversation/domain"
	"prospectchat_backend/internal/conversation/extract"
	"prospectchat_backend/internal/conversation/repository"
	"prospectchat_backend/internal/conversation/scoring"
	"prospectchat_backend/internal/events"
	"prospectchat_backend/platform/logger"
)

// maxMessageLen caps inbound and outbound message bodies before
// storage and prompting.
const maxMessageLen = 2000

// historyWindow is how many recent turns the classifier and renderer
// see.
const historyWindow = 5

// fallbackReply goes out whenever a turn fails internally. The
// conversation degrades, it never crashes.
const fallbackReply = "Sorry, something went wrong on our side. Could you say that again?"

// Store is what the engine needs from persistence.
type Store interface {
	CreateProspect(ctx context.Context, channel domain.Channel, channelAddress *string) (domain.Record, error)
	GetProspect(ctx context.Context, id uuid.UUID) (domain.Record, error)
	UpdateProspect(ctx context.Context, rec domain.Record) error
	AppendMessage(ctx context.Context, prospectID uuid.UUID, sender, body string) error
	ListRecentMessages(ctx context.Context, prospectID uuid.UUID, limit int) ([]repository.Message, error)
}

// IntentClassifier labels one inbound message. Implementations must
// return domain.IntentUnknown rather than failing the turn on
// ambiguous input.
type IntentClassifier interface {
	ClassifyIntent(ctx context.Context, message string, history []repository.Message) (domain.Intent, error)
}

// EntityExtractor pulls candidate facts out of one message.
type EntityExtractor interface {
	ExtractEntities(ctx context.Context, message string, history []repository.Message) (domain.Extraction, error)
}

// RenderRequest carries everything the renderer needs to write the
// next reply.
type RenderRequest struct {
	Action     domain.Action
	Intent     domain.Intent
	Record     domain.Record
	Message    string
	History    []repository.Message
	Extra      string // retrieved knowledge-base context, may be empty
	MeetingURL string
}

// ReplyRenderer produces the assistant's reply text.
type ReplyRenderer interface {
	RenderReply(ctx context.Context, req RenderRequest) (string, error)
}

// ContextProvider retrieves knowledge-base context for a question.
// An empty string means nothing relevant was found.
type ContextProvider interface {
	RetrieveContext(ctx context.Context, question string) (string, error)
}

// CRMScheduler enqueues a prospect for CRM synchronization.
type CRMScheduler interface {
	ScheduleSync(ctx context.Context, prospectID uuid.UUID) error
}

// Input is one inbound message. A Nil ProspectID starts a new
// conversation.
type Input struct {
	ProspectID     uuid.UUID
	Channel        domain.Channel
	ChannelAddress *string
	Text           string
}

// Result is what one processed turn produces.
type Result struct {
	ProspectID      uuid.UUID
	Reply           string
	Intent          domain.Intent
	Action          domain.Action
	Score           int
	Status          domain.Status
	MeetingLinkSent bool
}

// Config is the engine's own tuning, passed through from app config.
type Config struct {
	MeetingURL string
	Threshold  int
}

// Engine runs the conversation pipeline: classify, extract, merge,
// score, decide, respond. Collaborators are injected so the pipeline
// is testable without any live model or CRM.
type Engine struct {
	store      Store
	classifier IntentClassifier
	extractor  EntityExtractor
	renderer   ReplyRenderer
	rag        ContextProvider // optional
	crm        CRMScheduler    // optional
	merger     *extract.Merger
	scorer     *scoring.Scorer
	decider    *decide.Decider
	bus        events.Bus
	log        *logger.Logger
	cfg        Config

	mu    sync.Mutex
	locks map[uuid.UUID]*convLock
}

// convLock is a per-conversation mutex with a waiter count so entries
// can be dropped from the map once nobody holds or wants them.
type convLock struct {
	mu   sync.Mutex
	refs int
}

// Deps are the engine's injected collaborators. RAG and CRM are
// optional; everything else is required.
type Deps struct {
	Store      Store
	Classifier IntentClassifier
	Extractor  EntityExtractor
	Renderer   ReplyRenderer
	RAG        ContextProvider
	CRM        CRMScheduler
	Merger     *extract.Merger
	Scorer     *scoring.Scorer
	Decider    *decide.Decider
	Bus        events.Bus
	Log        *logger.Logger
}

func New(deps Deps, cfg Config) *Engine {
	return &Engine{
		store:      deps.Store,
		classifier: deps.Classifier,
		extractor:  deps.Extractor,
		renderer:   deps.Renderer,
		rag:        deps.RAG,
		crm:        deps.CRM,
		merger:     deps.Merger,
		scorer:     deps.Scorer,
		decider:    deps.Decider,
		bus:        deps.Bus,
		log:        deps.Log,
		cfg:        cfg,
		locks:      make(map[uuid.UUID]*convLock),
	}
}

// HandleMessage processes one turn end to end. Storage errors for an
// unknown prospect id surface to the caller; everything else inside
// the pipeline degrades to a safe fallback reply.
func (e *Engine) HandleMessage(ctx context.Context, in Input) (Result, error) {
	in.Text = truncate(in.Text, maxMessageLen)

	// Serialize turns per conversation before loading, so concurrent
	// messages cannot both read stale state. A brand new conversation
	// has no id to race on yet.
	if in.ProspectID != uuid.Nil {
		unlock := e.lock(in.ProspectID)
		defer unlock()
	}

	rec, err := e.loadOrCreate(ctx, in)
	if err != nil {
		return Result{}, err
	}

	ctx = logger.ContextWithConversationID(ctx, rec.ID.String())

	result, err := e.runTurn(ctx, &rec, in.Text)
	if err != nil {
		e.log.WithContext(ctx).Error("turn failed, sending fallback reply", "error", err, "prospect_id", rec.ID)
		result = Result{
			ProspectID:      rec.ID,
			Reply:           fallbackReply,
			Intent:          domain.IntentUnknown,
			Action:          domain.ActionContinue,
			Score:           rec.Score,
			Status:          rec.Status,
			MeetingLinkSent: rec.MeetingLinkSent,
		}
	}

	if err := e.store.AppendMessage(ctx, rec.ID, repository.SenderAssistant, truncate(result.Reply, maxMessageLen)); err != nil {
		e.log.WithContext(ctx).Error("store assistant message", "error", err, "prospect_id", rec.ID)
	}
	return result, nil
}

func (e *Engine) loadOrCreate(ctx context.Context, in Input) (domain.Record, error) {
	if in.ProspectID == uuid.Nil {
		channel := in.Channel
		if channel == "" {
			channel = domain.ChannelWidget
		}
		rec, err := e.store.CreateProspect(ctx, channel, in.ChannelAddress)
		if err != nil {
			return domain.Record{}, fmt.Errorf("create prospect: %w", err)
		}
		e.bus.Publish(ctx, events.ConversationStarted{
			BaseEvent:  events.NewBaseEvent(),
			ProspectID: rec.ID,
			Channel:    string(channel),
		})
		return rec, nil
	}
	return e.store.GetProspect(ctx, in.ProspectID)
}

// runTurn is the pipeline body. A panic anywhere inside is recovered
// into an error so the caller can degrade instead of crash.
func (e *Engine) runTurn(ctx context.Context, rec *domain.Record, text string) (_ Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("turn panicked: %v", r)
		}
	}()

	if err := e.store.AppendMessage(ctx, rec.ID, repository.SenderUser, text); err != nil {
		return Result{}, fmt.Errorf("store user message: %w", err)
	}

	history, err := e.store.ListRecentMessages(ctx, rec.ID, historyWindow)
	if err != nil {
		e.log.WithContext(ctx).Error("load history", "error", err, "prospect_id", rec.ID)
		history = nil
	}

	intent := e.classify(ctx, text, history)
	facts := e.extractFacts(ctx, text, history)

	wasQualified := rec.Score >= e.cfg.Threshold
	e.merger.Merge(rec, facts)
	rec.SetScore(e.scorer.Score(*rec, facts))

	if !wasQualified && rec.Score >= e.cfg.Threshold {
		if rec.Status == domain.StatusNew {
			rec.Status = domain.StatusQualified
		}
		e.bus.Publish(ctx, events.LeadQualified{
			BaseEvent:  events.NewBaseEvent(),
			ProspectID: rec.ID,
			Score:      rec.Score,
		})
	}

	decision := e.decider.Decide(*rec, intent, text)
	e.applyDecision(ctx, rec, decision, intent)

	if err := e.store.UpdateProspect(ctx, *rec); err != nil {
		return Result{}, fmt.Errorf("persist prospect: %w", err)
	}

	e.maybeScheduleSync(ctx, *rec)

	reply := e.render(ctx, RenderRequest{
		Action:     decision.Action,
		Intent:     intent,
		Record:     *rec,
		Message:    text,
		History:    history,
		Extra:      e.retrieve(ctx, intent, text),
		MeetingURL: e.cfg.MeetingURL,
	})

	return Result{
		ProspectID:      rec.ID,
		Reply:           reply,
		Intent:          intent,
		Action:          decision.Action,
		Score:           rec.Score,
		Status:          rec.Status,
		MeetingLinkSent: rec.MeetingLinkSent,
	}, nil
}

func (e *Engine) applyDecision(ctx context.Context, rec *domain.Record, decision decide.Decision, intent domain.Intent) {
	switch decision.Action {
	case domain.ActionSendMeeting:
		if decision.EmailInMessage != "" && !rec.HasEmail() {
			email := decision.EmailInMessage
			rec.Email = &email
		}
		rec.MarkMeetingLinkSent()
		e.bus.Publish(ctx, events.MeetingLinkSent{
			BaseEvent:  events.NewBaseEvent(),
			ProspectID: rec.ID,
			Email:      domain.StrOrEmpty(rec.Email),
			Name:       domain.StrOrEmpty(rec.Name),
			Company:    domain.StrOrEmpty(rec.Company),
			Score:      rec.Score,
		})
	case domain.ActionEnd:
		rec.Close()
		e.bus.Publish(ctx, events.ConversationClosed{
			BaseEvent:  events.NewBaseEvent(),
			ProspectID: rec.ID,
			Intent:     string(intent),
		})
	}
}

// classify never fails the turn: a classifier error becomes
// IntentUnknown.
func (e *Engine) classify(ctx context.Context, text string, history []repository.Message) domain.Intent {
	if e.classifier == nil {
		return domain.IntentUnknown
	}
	intent, err := e.classifier.ClassifyIntent(ctx, text, history)
	if err != nil {
		e.log.CollaboratorError("classifier", "classify_intent", err)
		return domain.IntentUnknown
	}
	return intent
}

// extractFacts never fails the turn: an extractor error yields an
// empty extraction, which merge treats as a no-op.
func (e *Engine) extractFacts(ctx context.Context, text string, history []repository.Message) domain.Extraction {
	if e.extractor == nil {
		return domain.Extraction{}
	}
	facts, err := e.extractor.ExtractEntities(ctx, text, history)
	if err != nil {
		e.log.CollaboratorError("extractor", "extract_entities", err)
		return domain.Extraction{}
	}
	return facts
}

func (e *Engine) retrieve(ctx context.Context, intent domain.Intent, text string) string {
	if e.rag == nil || intent != domain.IntentInformation {
		return ""
	}
	extra, err := e.rag.RetrieveContext(ctx, text)
	if err != nil {
		e.log.CollaboratorError("rag", "retrieve_context", err)
		return ""
	}
	return extra
}

func (e *Engine) render(ctx context.Context, req RenderRequest) string {
	if e.renderer == nil {
		return fallbackReply
	}
	reply, err := e.renderer.RenderReply(ctx, req)
	if err != nil || reply == "" {
		if err != nil {
			e.log.CollaboratorError("renderer", "render_reply", err)
		}
		return fallbackReply
	}
	return truncate(reply, maxMessageLen)
}

// maybeScheduleSync pushes qualified prospects with an email toward
// the CRM. Failures are logged and retried on a later turn, never
// surfaced to the prospect.
func (e *Engine) maybeScheduleSync(ctx context.Context, rec domain.Record) {
	if e.crm == nil || rec.CRMContactID != nil || !rec.HasEmail() {
		return
	}
	if rec.Status != domain.StatusQualified && rec.Status != domain.StatusMeetingSent {
		return
	}
	if err := e.crm.ScheduleSync(ctx, rec.ID); err != nil {
		e.log.CollaboratorError("crm", "schedule_sync", err)
	}
}

// lock serializes turns per conversation so two concurrent messages
// for the same prospect cannot interleave merge and persist. The map
// entry is removed once the last holder releases it, keeping the map
// proportional to in-flight conversations rather than total prospects.
func (e *Engine) lock(id uuid.UUID) func() {
	e.mu.Lock()
	l, ok := e.locks[id]
	if !ok {
		l = &convLock{}
		e.locks[id] = l
	}
	l.refs++
	e.mu.Unlock()

	l.mu.Lock()
	return func() {
		l.mu.Unlock()
		e.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(e.locks, id)
		}
		e.mu.Unlock()
	}
}

// IsNotFound reports whether err is the unknown-prospect error, for
// transport-level mapping.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

// truncate cuts s to at most n bytes without splitting a rune, so the
// result is always valid UTF-8 for storage.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
