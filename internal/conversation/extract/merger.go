package extract

import (
	"strings"

	"prospectchat_backend/internal/conversation/domain"
)

// Merger folds one turn's candidate facts into the accumulated record.
// Merging is idempotent: running the same extraction twice leaves the
// record unchanged, and an empty extraction is always a no-op.
type Merger struct {
	classifier StructuredTextClassifier
}

// NewMerger builds a Merger. A nil classifier gets the default pattern
// heuristic.
func NewMerger(classifier StructuredTextClassifier) *Merger {
	if classifier == nil {
		classifier = PatternClassifier{}
	}
	return &Merger{classifier: classifier}
}

// Merge applies the candidate facts to the record in place. Profile
// fields only move forward: a candidate replaces a stored value only
// when it is a genuine improvement, and never with something empty or
// malformed.
func (m *Merger) Merge(rec *domain.Record, facts domain.Extraction) {
	if facts.IsEmpty() {
		return
	}

	mergeField(&rec.Name, facts.Name, betterName)
	mergeField(&rec.Company, facts.Company, betterValue)
	mergeField(&rec.Budget, facts.Budget, betterValue)
	mergeField(&rec.Location, facts.Location, betterValue)
	mergeField(&rec.Industry, facts.Industry, betterValue)
	m.mergeEmail(rec, facts.Email)

	for _, p := range facts.PainPoints {
		rec.Notes.Append(domain.TagProblem, p)
	}
	if facts.Needs != "" {
		rec.Notes.Append(domain.TagNeeds, facts.Needs)
	}
	if facts.Channel != "" {
		rec.Notes.Append(domain.TagChannel, facts.Channel)
	}
	if facts.Timeline != "" {
		rec.Notes.Append(domain.TagTiming, facts.Timeline)
	}
	if facts.DecisionMaker {
		rec.Notes.AppendRaw("Decision maker: yes")
	}
	if facts.Notes != "" && !m.classifier.LooksStructured(facts.Notes) {
		rec.Notes.AppendRaw(facts.Notes)
	}
}

// mergeEmail only ever stores a value that passes shape validation.
// A malformed candidate is discarded and the prior value survives.
func (m *Merger) mergeEmail(rec *domain.Record, candidate string) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" || !domain.ValidEmail(candidate) {
		return
	}
	if rec.Email != nil && domain.ValidEmail(*rec.Email) && !strings.EqualFold(*rec.Email, candidate) {
		// A different valid address does not displace the one the
		// prospect already gave us.
		return
	}
	rec.Email = &candidate
}

func mergeField(field **string, candidate string, better func(old, candidate string) bool) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return
	}
	if *field == nil || better(**field, candidate) {
		v := candidate
		*field = &v
	}
}

// betterValue decides whether a candidate should overwrite an existing
// field value. The bar is deliberately high so the record never churns
// between turns.
func betterValue(old, candidate string) bool {
	if old == "" {
		return true
	}
	if strings.EqualFold(old, candidate) {
		// Same value, keep the better-capitalized spelling.
		return old != candidate && betterCased(old, candidate)
	}
	// Longer text that still contains the old value is a superset
	// with more detail.
	if len(candidate) > len(old) && strings.Contains(strings.ToLower(candidate), strings.ToLower(old)) {
		return true
	}
	// Substantially more detailed wins even without containment.
	return len(candidate) >= 2*len(old)
}

// betterName applies the general rules plus a name-shape check, so
// "Ana García" beats "ana" but a random sentence never replaces a
// clean name.
func betterName(old, candidate string) bool {
	if old == "" {
		return true
	}
	if looksLikeName(candidate) && !looksLikeName(old) {
		return true
	}
	if looksLikeName(old) && !looksLikeName(candidate) {
		return false
	}
	return betterValue(old, candidate)
}

// betterCased prefers title case over all-lower or all-upper.
func betterCased(old, candidate string) bool {
	return !isTitleCased(old) && isTitleCased(candidate)
}

func isTitleCased(s string) bool {
	for _, f := range strings.Fields(s) {
		r := []rune(f)
		if len(r) == 0 || !isUpper(r[0]) {
			return false
		}
		for _, c := range r[1:] {
			if c >= 'A' && c <= 'Z' {
				return false
			}
		}
	}
	return len(s) > 0
}
