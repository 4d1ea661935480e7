package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
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

// ---------------------------------------------------------------------------
// fakes

type memStore struct {
	mu       sync.Mutex
	records  map[uuid.UUID]domain.Record
	messages map[uuid.UUID][]repository.Message
	failNext error
}

func newMemStore() *memStore {
	return &memStore{
		records:  make(map[uuid.UUID]domain.Record),
		messages: make(map[uuid.UUID][]repository.Message),
	}
}

func (s *memStore) CreateProspect(_ context.Context, channel domain.Channel, addr *string) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := domain.Record{
		ID:             uuid.New(),
		Status:         domain.StatusNew,
		Channel:        channel,
		ChannelAddress: addr,
	}
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *memStore) GetProspect(_ context.Context, id uuid.UUID) (domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[id]
	if !ok {
		return domain.Record{}, repository.ErrNotFound
	}
	return rec, nil
}

func (s *memStore) UpdateProspect(_ context.Context, rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext != nil {
		err := s.failNext
		s.failNext = nil
		return err
	}
	if _, ok := s.records[rec.ID]; !ok {
		return repository.ErrNotFound
	}
	s.records[rec.ID] = rec
	return nil
}

func (s *memStore) AppendMessage(_ context.Context, id uuid.UUID, sender, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages[id] = append(s.messages[id], repository.Message{
		ProspectID: id, Sender: sender, Body: body,
	})
	return nil
}

func (s *memStore) ListRecentMessages(_ context.Context, id uuid.UUID, limit int) ([]repository.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	msgs := s.messages[id]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	out := make([]repository.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

type fakeClassifier struct {
	intent domain.Intent
	err    error
}

func (f *fakeClassifier) ClassifyIntent(context.Context, string, []repository.Message) (domain.Intent, error) {
	return f.intent, f.err
}

type fakeExtractor struct {
	facts domain.Extraction
	err   error
}

func (f *fakeExtractor) ExtractEntities(context.Context, string, []repository.Message) (domain.Extraction, error) {
	return f.facts, f.err
}

type fakeRenderer struct {
	reply string
	err   error
	last  RenderRequest
}

func (f *fakeRenderer) RenderReply(_ context.Context, req RenderRequest) (string, error) {
	f.last = req
	return f.reply, f.err
}

type fakeCRM struct {
	scheduled []uuid.UUID
}

func (f *fakeCRM) ScheduleSync(_ context.Context, id uuid.UUID) error {
	f.scheduled = append(f.scheduled, id)
	return nil
}

type fakeRAG struct {
	context string
	called  bool
}

func (f *fakeRAG) RetrieveContext(context.Context, string) (string, error) {
	f.called = true
	return f.context, nil
}

// ---------------------------------------------------------------------------
// harness

type harness struct {
	engine     *Engine
	store      *memStore
	classifier *fakeClassifier
	extractor  *fakeExtractor
	renderer   *fakeRenderer
	crm        *fakeCRM
	rag        *fakeRAG
	bus        *events.InMemoryBus
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := logger.New("development")
	h := &harness{
		store:      newMemStore(),
		classifier: &fakeClassifier{intent: domain.IntentInterest},
		extractor:  &fakeExtractor{},
		renderer:   &fakeRenderer{reply: "got it!"},
		crm:        &fakeCRM{},
		rag:        &fakeRAG{},
		bus:        events.NewInMemoryBus(log),
	}
	h.engine = New(Deps{
		Store:      h.store,
		Classifier: h.classifier,
		Extractor:  h.extractor,
		Renderer:   h.renderer,
		RAG:        h.rag,
		CRM:        h.crm,
		Merger:     extract.NewMerger(nil),
		Scorer:     scoring.NewScorer(scoring.DefaultWeights()),
		Decider:    decide.New(decide.DefaultConfig()),
		Bus:        h.bus,
		Log:        log,
	}, Config{MeetingURL: "https://meet.example.com/intro", Threshold: 60})
	return h
}

// richFacts is an extraction that pushes a fresh record past the
// qualification threshold in one turn.
func richFacts() domain.Extraction {
	return domain.Extraction{
		Name:    "Ana García",
		Company: "Acme SRL",
		Budget:  "$50k",
		PainPoints: []string{
			"shipping delays are killing repeat purchases",
			"support inbox is always overflowing",
		},
		Needs:         "automated order tracking",
		DecisionMaker: true,
	}
}

// ---------------------------------------------------------------------------
// tests

func TestHandleMessageStartsConversation(t *testing.T) {
	h := newHarness(t)

	res, err := h.engine.HandleMessage(context.Background(), Input{Text: "hi, I run a shop"})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if res.ProspectID == uuid.Nil {
		t.Fatal("a new conversation should mint a prospect id")
	}
	if res.Reply != "got it!" {
		t.Fatalf("reply = %q", res.Reply)
	}

	msgs := h.store.messages[res.ProspectID]
	if len(msgs) != 2 || msgs[0].Sender != repository.SenderUser || msgs[1].Sender != repository.SenderAssistant {
		t.Fatalf("transcript = %+v", msgs)
	}
}

func TestHandleMessageUnknownProspectSurfacesError(t *testing.T) {
	h := newHarness(t)

	_, err := h.engine.HandleMessage(context.Background(), Input{
		ProspectID: uuid.New(),
		Text:       "hello again",
	})
	if !IsNotFound(err) {
		t.Fatalf("err = %v, want not-found", err)
	}
}

func TestHandleMessageQualifiesAndRequestsEmail(t *testing.T) {
	h := newHarness(t)
	h.extractor.facts = richFacts()

	res, err := h.engine.HandleMessage(context.Background(), Input{Text: "long message with details"})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	if res.Score < 60 {
		t.Fatalf("score = %d, want >= 60", res.Score)
	}
	if res.Action != domain.ActionRequestEmail {
		t.Fatalf("action = %s, want request_email_before_meeting", res.Action)
	}
	if res.Status != domain.StatusQualified {
		t.Fatalf("status = %s, want qualified", res.Status)
	}
}

func TestHandleMessageSendsMeetingLinkWithEmail(t *testing.T) {
	h := newHarness(t)
	h.extractor.facts = richFacts()

	res, err := h.engine.HandleMessage(context.Background(), Input{
		Text: "sure! my email is ana@acme.com",
	})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	if res.Action != domain.ActionSendMeeting {
		t.Fatalf("action = %s, want send_meeting_link", res.Action)
	}
	if !res.MeetingLinkSent || res.Status != domain.StatusMeetingSent {
		t.Fatalf("result = %+v", res)
	}

	stored := h.store.records[res.ProspectID]
	if stored.Email == nil || *stored.Email != "ana@acme.com" {
		t.Fatalf("stored email = %v", stored.Email)
	}
	if !stored.MeetingLinkSent {
		t.Fatal("meeting_link_sent must be persisted")
	}
	if len(h.crm.scheduled) != 1 {
		t.Fatalf("crm scheduled %d times, want 1", len(h.crm.scheduled))
	}
	if h.renderer.last.MeetingURL == "" {
		t.Fatal("renderer should receive the meeting url")
	}
}

func TestHandleMessageNeverResendsMeetingLink(t *testing.T) {
	h := newHarness(t)
	h.extractor.facts = richFacts()

	res, err := h.engine.HandleMessage(context.Background(), Input{Text: "I'm ana@acme.com"})
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}
	if res.Action != domain.ActionSendMeeting {
		t.Fatalf("first turn action = %s", res.Action)
	}

	// Same enthusiasm on the next turn must not re-trigger the link.
	res2, err := h.engine.HandleMessage(context.Background(), Input{
		ProspectID: res.ProspectID,
		Text:       "perfect, when can we talk? I'm ana@acme.com",
	})
	if err != nil {
		t.Fatalf("second turn: %v", err)
	}
	if res2.Action != domain.ActionContinue {
		t.Fatalf("second turn action = %s, want continue", res2.Action)
	}
	if !res2.MeetingLinkSent {
		t.Fatal("flag must stay set")
	}
}

func TestHandleMessageEndsOnRejection(t *testing.T) {
	h := newHarness(t)
	h.classifier.intent = domain.IntentRejection

	res, err := h.engine.HandleMessage(context.Background(), Input{Text: "not interested, remove me"})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if res.Action != domain.ActionEnd {
		t.Fatalf("action = %s, want end_conversation", res.Action)
	}
	if h.store.records[res.ProspectID].Status != domain.StatusClosed {
		t.Fatal("record must be closed")
	}
}

func TestHandleMessageCollaboratorFailuresDegrade(t *testing.T) {
	h := newHarness(t)
	h.classifier.err = errors.New("model timeout")
	h.extractor.err = errors.New("model timeout")

	res, err := h.engine.HandleMessage(context.Background(), Input{Text: "hello?"})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if res.Intent != domain.IntentUnknown {
		t.Fatalf("intent = %s, want unknown on classifier failure", res.Intent)
	}
	if res.Reply != "got it!" {
		t.Fatalf("reply = %q, pipeline should still respond", res.Reply)
	}
	if res.Score != 0 {
		t.Fatalf("score = %d, failed extraction must not change it", res.Score)
	}
}

func TestHandleMessageRendererFailureUsesFallback(t *testing.T) {
	h := newHarness(t)
	h.renderer.err = errors.New("model refused")

	res, err := h.engine.HandleMessage(context.Background(), Input{Text: "hi"})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if res.Reply != fallbackReply {
		t.Fatalf("reply = %q, want fallback", res.Reply)
	}
}

func TestHandleMessagePersistFailureUsesFallback(t *testing.T) {
	h := newHarness(t)

	res, err := h.engine.HandleMessage(context.Background(), Input{Text: "hi"})
	if err != nil {
		t.Fatalf("first turn: %v", err)
	}

	h.store.failNext = errors.New("connection reset")
	res2, err := h.engine.HandleMessage(context.Background(), Input{
		ProspectID: res.ProspectID,
		Text:       "still there?",
	})
	if err != nil {
		t.Fatalf("second turn should not error to caller: %v", err)
	}
	if res2.Reply != fallbackReply {
		t.Fatalf("reply = %q, want fallback on persist failure", res2.Reply)
	}
}

func TestHandleMessageTruncatesLongInput(t *testing.T) {
	h := newHarness(t)

	long := strings.Repeat("a", 5000)
	res, err := h.engine.HandleMessage(context.Background(), Input{Text: long})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}

	msgs := h.store.messages[res.ProspectID]
	if len(msgs[0].Body) != maxMessageLen {
		t.Fatalf("stored user message is %d chars, want %d", len(msgs[0].Body), maxMessageLen)
	}
}

func TestTruncateKeepsValidUTF8(t *testing.T) {
	long := "x" + strings.Repeat("á", 1500)

	got := truncate(long, maxMessageLen)
	if len(got) > maxMessageLen {
		t.Fatalf("truncated to %d bytes, cap is %d", len(got), maxMessageLen)
	}
	if !utf8.ValidString(got) {
		t.Fatal("truncation split a rune, result is not valid UTF-8")
	}
	// The cut would land mid-rune here; one byte gets backed off.
	if len(got) != maxMessageLen-1 {
		t.Fatalf("truncated length = %d, want %d", len(got), maxMessageLen-1)
	}

	short := "hola qué tal"
	if truncate(short, maxMessageLen) != short {
		t.Fatal("short input must pass through unchanged")
	}
}

func TestHandleMessageAccentedLongInputStillProcessed(t *testing.T) {
	h := newHarness(t)

	long := "x" + strings.Repeat("á", 1500)
	res, err := h.engine.HandleMessage(context.Background(), Input{Text: long})
	if err != nil {
		t.Fatalf("HandleMessage: %v", err)
	}
	if res.Reply != "got it!" {
		t.Fatalf("reply = %q, want the rendered reply, not the fallback", res.Reply)
	}

	msgs := h.store.messages[res.ProspectID]
	if !utf8.ValidString(msgs[0].Body) {
		t.Fatal("stored user message is not valid UTF-8")
	}
}

func TestConversationLockReleasedAfterTurn(t *testing.T) {
	h := newHarness(t)

	res, err := h.engine.HandleMessage(context.Background(), Input{Text: "hi"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := h.engine.HandleMessage(context.Background(), Input{
		ProspectID: res.ProspectID,
		Text:       "hello again",
	}); err != nil {
		t.Fatal(err)
	}

	h.engine.mu.Lock()
	n := len(h.engine.locks)
	h.engine.mu.Unlock()
	if n != 0 {
		t.Fatalf("lock map holds %d entries after turns finished, want 0", n)
	}
}

func TestHandleMessageRAGOnlyForInformationRequests(t *testing.T) {
	h := newHarness(t)
	h.rag.context = "We offer a 14 day trial."

	h.classifier.intent = domain.IntentGreeting
	if _, err := h.engine.HandleMessage(context.Background(), Input{Text: "hi"}); err != nil {
		t.Fatal(err)
	}
	if h.rag.called {
		t.Fatal("RAG must not run for a greeting")
	}

	h.classifier.intent = domain.IntentInformation
	if _, err := h.engine.HandleMessage(context.Background(), Input{Text: "do you have a trial?"}); err != nil {
		t.Fatal(err)
	}
	if !h.rag.called {
		t.Fatal("RAG should run for an information request")
	}
	if h.renderer.last.Extra != "We offer a 14 day trial." {
		t.Fatalf("renderer Extra = %q", h.renderer.last.Extra)
	}
}

func TestHandleMessageIdempotentExtractionAcrossTurns(t *testing.T) {
	h := newHarness(t)
	h.extractor.facts = domain.Extraction{
		Company:    "Acme SRL",
		PainPoints: []string{"shipping delays"},
	}

	res, err := h.engine.HandleMessage(context.Background(), Input{Text: "we have shipping delays"})
	if err != nil {
		t.Fatal(err)
	}
	first := h.store.records[res.ProspectID]

	if _, err := h.engine.HandleMessage(context.Background(), Input{
		ProspectID: res.ProspectID,
		Text:       "as I said, shipping delays",
	}); err != nil {
		t.Fatal(err)
	}
	second := h.store.records[res.ProspectID]

	if second.Notes.String() != first.Notes.String() {
		t.Fatalf("notes changed on repeated extraction:\n%q\nvs\n%q", first.Notes.String(), second.Notes.String())
	}
	if second.Score != first.Score {
		t.Fatalf("score drifted %d -> %d on identical input", first.Score, second.Score)
	}
}

func TestHandleMessageWhatsAppChannel(t *testing.T) {
	h := newHarness(t)
	addr := "+5491155550001"

	res, err := h.engine.HandleMessage(context.Background(), Input{
		Channel:        domain.ChannelWhatsApp,
		ChannelAddress: &addr,
		Text:           "hola",
	})
	if err != nil {
		t.Fatal(err)
	}
	rec := h.store.records[res.ProspectID]
	if rec.Channel != domain.ChannelWhatsApp || rec.ChannelAddress == nil || *rec.ChannelAddress != addr {
		t.Fatalf("record channel = %+v", rec)
	}
}
