package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"prospectchat_backend/internal/conversation/domain"
	"prospectchat_backend/internal/events"
	"prospectchat_backend/platform/logger"
)

// ProspectReader loads the accumulated record for email content.
type ProspectReader interface {
	GetProspect(ctx context.Context, id uuid.UUID) (domain.Record, error)
}

// Module turns qualification events into sales inbox emails.
type Module struct {
	mailer     Mailer
	prospects  ProspectReader
	salesInbox string
	log        *logger.Logger
}

func NewModule(mailer Mailer, prospects ProspectReader, salesInbox string, log *logger.Logger) *Module {
	return &Module{
		mailer:     mailer,
		prospects:  prospects,
		salesInbox: salesInbox,
		log:        log,
	}
}

// RegisterHandlers subscribes the module to the events it cares about.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.LeadQualified{}.EventName(), m)
	bus.Subscribe(events.MeetingLinkSent{}.EventName(), m)
}

func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.LeadQualified:
		return m.handleLeadQualified(ctx, e)
	case events.MeetingLinkSent:
		return m.handleMeetingLinkSent(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleLeadQualified(ctx context.Context, e events.LeadQualified) error {
	rec, err := m.prospects.GetProspect(ctx, e.ProspectID)
	if err != nil {
		return fmt.Errorf("load prospect %s: %w", e.ProspectID, err)
	}

	content, err := renderSalesAlert(salesAlertData{
		Heading: "New qualified lead",
		Lede:    "A chatbot conversation just crossed the qualification threshold.",
		Rows:    prospectRows(rec, e.Score),
		Notes:   rec.Notes.Lines(),
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Qualified lead: %s (score %d)", displayName(rec), e.Score)
	return m.send(ctx, subject, content)
}

func (m *Module) handleMeetingLinkSent(ctx context.Context, e events.MeetingLinkSent) error {
	rec, err := m.prospects.GetProspect(ctx, e.ProspectID)
	if err != nil {
		return fmt.Errorf("load prospect %s: %w", e.ProspectID, err)
	}

	content, err := renderSalesAlert(salesAlertData{
		Heading: "Meeting link sent",
		Lede:    "The scheduling link was just handed to this prospect. Expect a booking.",
		Rows:    prospectRows(rec, e.Score),
		Notes:   rec.Notes.Lines(),
	})
	if err != nil {
		return err
	}

	subject := fmt.Sprintf("Meeting link sent to %s", displayName(rec))
	return m.send(ctx, subject, content)
}

func (m *Module) send(ctx context.Context, subject, content string) error {
	if err := m.mailer.Send(ctx, m.salesInbox, subject, content); err != nil {
		return fmt.Errorf("send sales alert: %w", err)
	}
	m.log.WithContext(ctx).Info("sales alert sent", "subject", subject)
	return nil
}

func prospectRows(rec domain.Record, score int) []salesAlertRow {
	rows := []salesAlertRow{
		{Label: "Score", Value: fmt.Sprintf("%d", score)},
		{Label: "Channel", Value: string(rec.Channel)},
	}
	optional := []struct {
		label string
		value *string
	}{
		{"Name", rec.Name},
		{"Company", rec.Company},
		{"Industry", rec.Industry},
		{"Email", rec.Email},
		{"Budget", rec.Budget},
		{"Location", rec.Location},
	}
	for _, o := range optional {
		if o.value != nil && *o.value != "" {
			rows = append(rows, salesAlertRow{Label: o.label, Value: *o.value})
		}
	}
	return rows
}

func displayName(rec domain.Record) string {
	switch {
	case rec.Name != nil && *rec.Name != "":
		return *rec.Name
	case rec.Company != nil && *rec.Company != "":
		return *rec.Company
	default:
		return "unnamed prospect"
	}
}
