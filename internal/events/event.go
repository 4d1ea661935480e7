// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"prospectchat_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Conversation Domain Events
// =============================================================================

// ConversationStarted is published when a first message creates a new prospect.
type ConversationStarted struct {
	BaseEvent
	ProspectID uuid.UUID `json:"prospectId"`
	Channel    string    `json:"channel"`
}

func (e ConversationStarted) EventName() string { return "conversation.started" }

// LeadQualified is published the first time a prospect's score crosses the
// qualification threshold.
type LeadQualified struct {
	BaseEvent
	ProspectID uuid.UUID `json:"prospectId"`
	Score      int       `json:"score"`
}

func (e LeadQualified) EventName() string { return "lead.qualified" }

// MeetingLinkSent is published when the scheduling link is handed off.
type MeetingLinkSent struct {
	BaseEvent
	ProspectID uuid.UUID `json:"prospectId"`
	Email      string    `json:"email"`
	Name       string    `json:"name,omitempty"`
	Company    string    `json:"company,omitempty"`
	Score      int       `json:"score"`
}

func (e MeetingLinkSent) EventName() string { return "lead.meeting_link_sent" }

// ConversationClosed is published when a conversation ends on rejection or
// an explicit close.
type ConversationClosed struct {
	BaseEvent
	ProspectID uuid.UUID `json:"prospectId"`
	Intent     string    `json:"intent"`
}

func (e ConversationClosed) EventName() string { return "conversation.closed" }

// CRMSynced is published after a prospect has been pushed to the external CRM.
type CRMSynced struct {
	BaseEvent
	ProspectID uuid.UUID `json:"prospectId"`
	ContactID  string    `json:"contactId"`
}

func (e CRMSynced) EventName() string { return "lead.crm_synced" }
