// Package transport defines the HTTP request/response shapes for the
// conversation API.
package transport

import "time"

// ChatRequest is one inbound widget message. SessionID is empty on the
// visitor's first message; the server mints one and returns it.
type ChatRequest struct {
	SessionID string `json:"sessionId" validate:"omitempty,max=128"`
	Message   string `json:"message" validate:"required,min=1,max=2000"`
}

// ChatResponse carries the assistant's reply back to the widget.
type ChatResponse struct {
	SessionID string `json:"sessionId"`
	Reply     string `json:"reply"`
	Closed    bool   `json:"closed"`
}

// ProspectSummary is the operator-facing view of one conversation's
// accumulated state.
type ProspectSummary struct {
	ID              string    `json:"id"`
	Name            string    `json:"name,omitempty"`
	Company         string    `json:"company,omitempty"`
	Email           string    `json:"email,omitempty"`
	Budget          string    `json:"budget,omitempty"`
	Location        string    `json:"location,omitempty"`
	Industry        string    `json:"industry,omitempty"`
	Notes           []string  `json:"notes"`
	Status          string    `json:"status"`
	Score           int       `json:"score"`
	MeetingLinkSent bool      `json:"meetingLinkSent"`
	Channel         string    `json:"channel"`
	MessageCount    int       `json:"messageCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
