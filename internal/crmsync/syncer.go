package crmsync

import (
	"context"
	"fmt"
	"strings"

	"prospectchat_backend/internal/conversation/domain"
	"prospectchat_backend/internal/crm/brevo"
)

// CRM is the slice of the Brevo client the syncer uses.
type CRM interface {
	UpsertContact(ctx context.Context, contact brevo.Contact) (string, error)
	AddToList(ctx context.Context, listID int, email string) error
	CreateDeal(ctx context.Context, deal brevo.Deal) (string, error)
	CreateNote(ctx context.Context, contactID, text string) error
}

// Syncer turns one prospect record into the CRM-side objects: contact,
// list membership, deal and a conversation summary note.
type Syncer struct {
	crm    CRM
	listID int
}

func NewSyncer(crm CRM, listID int) *Syncer {
	return &Syncer{crm: crm, listID: listID}
}

// Sync pushes the record and returns the CRM contact id. The contact
// upsert must succeed; the remaining steps are best-effort additions
// that collect into one error without losing the id.
func (s *Syncer) Sync(ctx context.Context, rec domain.Record) (string, error) {
	if !rec.HasEmail() {
		return "", fmt.Errorf("prospect %s has no email", rec.ID)
	}

	contactID, err := s.crm.UpsertContact(ctx, brevo.Contact{
		Email:      *rec.Email,
		Attributes: contactAttributes(rec),
	})
	if err != nil {
		return "", err
	}

	var extras []string
	if s.listID > 0 {
		if err := s.crm.AddToList(ctx, s.listID, *rec.Email); err != nil {
			extras = append(extras, err.Error())
		}
	}
	if _, err := s.crm.CreateDeal(ctx, brevo.Deal{
		Name:      dealName(rec),
		ContactID: contactID,
		Attributes: map[string]interface{}{
			"lead_score": rec.Score,
		},
	}); err != nil {
		extras = append(extras, err.Error())
	}
	if note := summaryNote(rec); note != "" {
		if err := s.crm.CreateNote(ctx, contactID, note); err != nil {
			extras = append(extras, err.Error())
		}
	}

	if len(extras) > 0 {
		return contactID, fmt.Errorf("partial sync: %s", strings.Join(extras, "; "))
	}
	return contactID, nil
}

func contactAttributes(rec domain.Record) map[string]interface{} {
	attrs := make(map[string]interface{})
	put := func(key string, v *string) {
		if v != nil && *v != "" {
			attrs[key] = *v
		}
	}
	put("FIRSTNAME", rec.Name)
	put("COMPANY", rec.Company)
	put("INDUSTRY", rec.Industry)
	put("CITY", rec.Location)
	put("BUDGET", rec.Budget)
	attrs["LEAD_SCORE"] = rec.Score
	attrs["LEAD_SOURCE"] = "chatbot_" + string(rec.Channel)
	return attrs
}

func dealName(rec domain.Record) string {
	if rec.Company != nil && *rec.Company != "" {
		return *rec.Company + " - chatbot lead"
	}
	if rec.Name != nil && *rec.Name != "" {
		return *rec.Name + " - chatbot lead"
	}
	return "Chatbot lead " + rec.ID.String()[:8]
}

func summaryNote(rec domain.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Qualification score: %d (%s)\n", rec.Score, rec.Status)
	if rec.MeetingLinkSent {
		b.WriteString("Meeting link sent.\n")
	}
	if !rec.Notes.IsEmpty() {
		b.WriteString("\nConversation notes:\n")
		b.WriteString(rec.Notes.String())
	}
	return b.String()
}
