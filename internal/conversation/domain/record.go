package domain

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a prospect. The happy path is
// new -> qualified -> meeting_sent; closed is reachable from any state.
type Status string

const (
	StatusNew         Status = "new"
	StatusQualified   Status = "qualified"
	StatusMeetingSent Status = "meeting_sent"
	StatusClosed      Status = "closed"
)

// ParseStatus maps stored text to a Status, falling back to StatusNew
// for anything it does not recognize.
func ParseStatus(s string) Status {
	switch Status(s) {
	case StatusNew, StatusQualified, StatusMeetingSent, StatusClosed:
		return Status(s)
	default:
		return StatusNew
	}
}

// Channel identifies where a conversation is happening.
type Channel string

const (
	ChannelWidget   Channel = "widget"
	ChannelWhatsApp Channel = "whatsapp"
)

// Record is the accumulated profile of a single prospect. Optional
// profile fields use pointers so "never observed" is distinct from
// "observed empty".
type Record struct {
	ID              uuid.UUID
	Name            *string
	Company         *string
	Email           *string
	Budget          *string
	Location        *string
	Industry        *string
	Notes           Journal
	Status          Status
	Score           int
	MeetingLinkSent bool
	CRMContactID    *string
	Channel         Channel
	ChannelAddress  *string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SetScore clamps to [0,100] before storing.
func (r *Record) SetScore(score int) {
	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	r.Score = score
}

// MarkMeetingLinkSent flips the flag on. It never flips back off, so
// the prospect can never be offered the meeting link twice.
func (r *Record) MarkMeetingLinkSent() {
	r.MeetingLinkSent = true
	r.Status = StatusMeetingSent
}

// Close moves the record to the terminal closed status.
func (r *Record) Close() {
	r.Status = StatusClosed
}

// HasEmail reports whether a non-empty email has been captured.
func (r *Record) HasEmail() bool {
	return r.Email != nil && *r.Email != ""
}

// HasCompanyOrIndustry reports whether at least one firmographic field
// is known.
func (r *Record) HasCompanyOrIndustry() bool {
	return strptrSet(r.Company) || strptrSet(r.Industry)
}

func strptrSet(p *string) bool {
	return p != nil && *p != ""
}

// StrOrEmpty dereferences an optional field for display.
func StrOrEmpty(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
