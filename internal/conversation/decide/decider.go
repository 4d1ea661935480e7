package decide

import (
	"prospectchat_backend/internal/conversation/domain"
)

// Config holds the decision thresholds.
type Config struct {
	// QualifyThreshold is the minimum score before the meeting link
	// is offered.
	QualifyThreshold int
	// MinDepthNotesLen is the journal length required for the
	// substance path of the depth check.
	MinDepthNotesLen int
}

func DefaultConfig() Config {
	return Config{
		QualifyThreshold: 60,
		MinDepthNotesLen: 100,
	}
}

// Decision is the outcome of one turn's evaluation.
type Decision struct {
	Action domain.Action
	// EmailInMessage is the address found in the current message when
	// the meeting-link rule fires, so the caller can store it before
	// sending.
	EmailInMessage string
}

// Decider picks the next action for a conversation turn. Rules are
// evaluated strictly in priority order and the first match wins.
type Decider struct {
	cfg Config
}

// New builds a decider for the given thresholds. QualifyThreshold is
// taken verbatim, zero included, so the decider always agrees with the
// engine about what counts as qualified.
func New(cfg Config) *Decider {
	if cfg.MinDepthNotesLen == 0 {
		cfg.MinDepthNotesLen = 100
	}
	return &Decider{cfg: cfg}
}

// Decide evaluates the rules against the up-to-date record, the turn's
// intent and the raw message text.
func (d *Decider) Decide(rec domain.Record, intent domain.Intent, message string) Decision {
	// Once the meeting link is out, the conversation only ends on an
	// explicit goodbye. It never re-qualifies or re-sends.
	if rec.MeetingLinkSent {
		if intent.IsTerminal() {
			return Decision{Action: domain.ActionEnd}
		}
		return Decision{Action: domain.ActionContinue}
	}

	if rec.Score >= d.cfg.QualifyThreshold && rec.HasCompanyOrIndustry() && d.depthOK(rec) {
		if email, ok := domain.FindEmail(message); ok {
			return Decision{Action: domain.ActionSendMeeting, EmailInMessage: email}
		}
		if rec.HasEmail() {
			return Decision{Action: domain.ActionSendMeeting}
		}
		return Decision{Action: domain.ActionRequestEmail}
	}

	if intent.IsTerminal() {
		return Decision{Action: domain.ActionEnd}
	}

	return Decision{Action: domain.ActionContinue}
}

// depthOK guards against qualifying on a thin conversation. Any one of
// three evidence paths is enough: real substance (a problem, a need
// and a filled-out journal), repeated strong-interest language, or
// signals across at least two categories.
func (d *Decider) depthOK(rec domain.Record) bool {
	notes := rec.Notes
	if notes.CountTag(domain.TagProblem) >= 1 &&
		notes.CountTag(domain.TagNeeds) >= 1 &&
		notes.Len() >= d.cfg.MinDepthNotesLen {
		return true
	}
	if domain.InterestSignals(notes) >= 2 {
		return true
	}
	return notes.DistinctTags() >= 2
}
