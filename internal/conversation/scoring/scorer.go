package scoring

import (
	"strings"

	"prospectchat_backend/internal/conversation/domain"
)

// Weights are the scoring knobs. Every point value lives here so the
// scale can be re-tuned without touching scorer logic.
type Weights struct {
	FieldPresence int // name, company, industry each
	BudgetStrong  int // budget with a concrete figure
	BudgetWeak    int // budget mentioned without a figure
	Location      int

	PainOne  int // exactly one distinct problem
	PainTwo  int // two distinct problems
	PainMany int // three or more
	Decision int // decision-maker signal observed
	Needs    int // explicit needs signal

	DepthTier1 int // notes >= 50 chars
	DepthTier2 int // notes >= 100 chars
	DepthTier3 int // notes >= 200 chars
	DepthTier4 int // notes >= 300 chars
	DepthTag   int // per distinct note category, up to four
	DepthWord  int // a strong-interest keyword appears
	DepthMax   int // cap on the whole depth component
}

// DefaultWeights returns the production scale. A perfect profile lands
// exactly on 100.
func DefaultWeights() Weights {
	return Weights{
		FieldPresence: 10,
		BudgetStrong:  15,
		BudgetWeak:    8,
		Location:      5,
		PainOne:       15,
		PainTwo:       18,
		PainMany:      25,
		Decision:      10,
		Needs:         12,
		DepthTier1:    5,
		DepthTier2:    8,
		DepthTier3:    12,
		DepthTier4:    15,
		DepthTag:      2,
		DepthWord:     3,
		DepthMax:      20,
	}
}

// Scorer computes the qualification score for a prospect. It is a pure
// function of the record and the turn's extraction: same inputs, same
// score, no randomness and no clock.
type Scorer struct {
	w Weights
}

func NewScorer(w Weights) *Scorer {
	return &Scorer{w: w}
}

// Score returns the qualification score in [0,100]. The turn's facts
// are considered alongside the record so signals count even before
// they are persisted.
func (s *Scorer) Score(rec domain.Record, facts domain.Extraction) int {
	total := s.scoreProfile(rec)
	total += s.scoreEngagement(rec, facts)
	total += s.scoreDepth(rec.Notes)
	return clampScore(total)
}

func (s *Scorer) scoreProfile(rec domain.Record) int {
	pts := 0
	if set(rec.Name) {
		pts += s.w.FieldPresence
	}
	if set(rec.Company) {
		pts += s.w.FieldPresence
	}
	if set(rec.Industry) {
		pts += s.w.FieldPresence
	}
	if set(rec.Budget) {
		if hasCurrencyMarker(*rec.Budget) {
			pts += s.w.BudgetStrong
		} else {
			pts += s.w.BudgetWeak
		}
	}
	if set(rec.Location) {
		pts += s.w.Location
	}
	return pts
}

func (s *Scorer) scoreEngagement(rec domain.Record, facts domain.Extraction) int {
	pts := 0

	switch n := rec.Notes.CountTag(domain.TagProblem); {
	case n >= 3:
		pts += s.w.PainMany
	case n == 2:
		pts += s.w.PainTwo
	case n == 1:
		pts += s.w.PainOne
	}

	if facts.DecisionMaker || rec.Notes.ContainsFold("decision maker") {
		pts += s.w.Decision
	}
	if facts.Needs != "" || rec.Notes.CountTag(domain.TagNeeds) > 0 {
		pts += s.w.Needs
	}
	return pts
}

func (s *Scorer) scoreDepth(notes domain.Journal) int {
	pts := 0

	switch n := notes.Len(); {
	case n >= 300:
		pts += s.w.DepthTier4
	case n >= 200:
		pts += s.w.DepthTier3
	case n >= 100:
		pts += s.w.DepthTier2
	case n >= 50:
		pts += s.w.DepthTier1
	}

	tags := notes.DistinctTags()
	if tags > 4 {
		tags = 4
	}
	pts += tags * s.w.DepthTag

	if domain.InterestSignals(notes) > 0 {
		pts += s.w.DepthWord
	}

	if pts > s.w.DepthMax {
		pts = s.w.DepthMax
	}
	return pts
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func set(p *string) bool {
	return p != nil && *p != ""
}

// hasCurrencyMarker reports whether a budget string carries a concrete
// figure: digits, a currency symbol, or a magnitude word. Any one marker
// is enough; "we have some budget" has none and stays in the weak tier.
func hasCurrencyMarker(s string) bool {
	if strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' }) >= 0 {
		return true
	}
	lower := strings.ToLower(s)
	for _, m := range []string{"$", "€", "usd", "eur", "ars", "mxn", "k", "mil", "thousand", "million", "millones"} {
		if strings.Contains(lower, m) {
			return true
		}
	}
	return false
}
