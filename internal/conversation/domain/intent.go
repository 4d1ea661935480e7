package domain

import "strings"

// Intent is the classified purpose of a single inbound message.
type Intent string

const (
	IntentGreeting    Intent = "greeting"
	IntentInformation Intent = "information_request"
	IntentInterest    Intent = "interest"
	IntentObjection   Intent = "objection"
	IntentRejection   Intent = "rejection"
	IntentScheduling  Intent = "scheduling"
	IntentClosing     Intent = "closing"
	IntentUnknown     Intent = "unknown"
)

// ParseIntent normalizes classifier output to a known Intent. Anything
// unrecognized becomes IntentUnknown rather than an error, so a noisy
// classifier can never break a turn.
func ParseIntent(s string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(s))) {
	case IntentGreeting, IntentInformation, IntentInterest,
		IntentObjection, IntentRejection, IntentScheduling, IntentClosing:
		return Intent(strings.ToLower(strings.TrimSpace(s)))
	default:
		return IntentUnknown
	}
}

// IsTerminal reports whether the intent signals the prospect is done
// talking.
func (i Intent) IsTerminal() bool {
	return i == IntentRejection || i == IntentClosing
}

// Action is what the conversation should do next, decided once per
// turn.
type Action string

const (
	ActionContinue     Action = "continue_conversation"
	ActionRequestEmail Action = "request_email_before_meeting"
	ActionSendMeeting  Action = "send_meeting_link"
	ActionEnd          Action = "end_conversation"
)
