package extract

import (
	"testing"

	"prospectchat_backend/internal/conversation/domain"
)

func strp(s string) *string { return &s }

func TestMergeEmptyExtractionIsNoOp(t *testing.T) {
	rec := domain.Record{Name: strp("Ana García")}
	rec.Notes.Append(domain.TagProblem, "slow site")
	before := rec.Notes.String()

	NewMerger(nil).Merge(&rec, domain.Extraction{})

	if *rec.Name != "Ana García" || rec.Notes.String() != before {
		t.Fatal("empty extraction must leave the record untouched")
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	rec := domain.Record{}
	facts := domain.Extraction{
		Name:       "Ana García",
		Company:    "Acme SRL",
		PainPoints: []string{"shipping delays"},
		Needs:      "automated tracking",
	}

	m := NewMerger(nil)
	m.Merge(&rec, facts)
	first := rec.Notes.String()
	m.Merge(&rec, facts)

	if rec.Notes.String() != first {
		t.Fatalf("second merge changed notes:\n%q\nvs\n%q", first, rec.Notes.String())
	}
	if rec.Notes.CountTag(domain.TagProblem) != 1 {
		t.Fatal("pain point must not be journaled twice")
	}
}

func TestMergeFillsEmptyFields(t *testing.T) {
	rec := domain.Record{}
	NewMerger(nil).Merge(&rec, domain.Extraction{Name: "ana", Location: "Buenos Aires"})

	if rec.Name == nil || *rec.Name != "ana" {
		t.Fatalf("Name = %v", rec.Name)
	}
	if rec.Location == nil || *rec.Location != "Buenos Aires" {
		t.Fatalf("Location = %v", rec.Location)
	}
}

func TestMergeOverwritesOnlyWithBetterValue(t *testing.T) {
	tests := []struct {
		name      string
		old       string
		candidate string
		want      string
	}{
		{"superset wins", "Acme", "Acme Corporation", "Acme Corporation"},
		{"shorter loses", "Acme Corporation", "Acme", "Acme Corporation"},
		{"unrelated short loses", "Acme Corporation", "Beta", "Acme Corporation"},
		{"capitalization upgrade", "acme corp", "Acme Corp", "Acme Corp"},
		{"much more detail wins", "retail", "retail fashion e-commerce", "retail fashion e-commerce"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := domain.Record{Company: strp(tt.old)}
			NewMerger(nil).Merge(&rec, domain.Extraction{Company: tt.candidate})
			if *rec.Company != tt.want {
				t.Fatalf("company = %q, want %q", *rec.Company, tt.want)
			}
		})
	}
}

func TestMergeNameShapePreference(t *testing.T) {
	rec := domain.Record{Name: strp("ana")}
	NewMerger(nil).Merge(&rec, domain.Extraction{Name: "Ana García"})
	if *rec.Name != "Ana García" {
		t.Fatalf("name = %q, want the name-shaped candidate", *rec.Name)
	}

	// A sentence never displaces a clean name.
	NewMerger(nil).Merge(&rec, domain.Extraction{Name: "the person we talked to yesterday about pricing"})
	if *rec.Name != "Ana García" {
		t.Fatalf("name = %q, sentence should not win", *rec.Name)
	}
}

func TestMergeNeverStoresInvalidEmail(t *testing.T) {
	rec := domain.Record{}
	m := NewMerger(nil)

	m.Merge(&rec, domain.Extraction{Email: "not-an-email"})
	if rec.Email != nil {
		t.Fatal("malformed email must be discarded")
	}

	m.Merge(&rec, domain.Extraction{Email: "ana@acme.com"})
	if rec.Email == nil || *rec.Email != "ana@acme.com" {
		t.Fatalf("email = %v", rec.Email)
	}

	m.Merge(&rec, domain.Extraction{Email: "broken@"})
	if *rec.Email != "ana@acme.com" {
		t.Fatal("prior valid email must survive a malformed candidate")
	}

	m.Merge(&rec, domain.Extraction{Email: "other@corp.com"})
	if *rec.Email != "ana@acme.com" {
		t.Fatal("a different address must not displace the stored one")
	}
}

func TestMergeJournalsQualitativeSignals(t *testing.T) {
	rec := domain.Record{}
	NewMerger(nil).Merge(&rec, domain.Extraction{
		PainPoints:    []string{"shipping delays", "high return rate"},
		Needs:         "automated tracking",
		Channel:       "found us on Instagram",
		Timeline:      "wants to launch before December",
		DecisionMaker: true,
	})

	if rec.Notes.CountTag(domain.TagProblem) != 2 {
		t.Fatalf("problems = %d, want 2", rec.Notes.CountTag(domain.TagProblem))
	}
	if !rec.Notes.Contains("Client seeks: automated tracking") {
		t.Fatal("needs line missing")
	}
	if !rec.Notes.Contains("Channel: found us on Instagram") {
		t.Fatal("channel line missing")
	}
	if !rec.Notes.Contains("Timing: wants to launch before December") {
		t.Fatal("timing line missing")
	}
	if !rec.Notes.Contains("Decision maker: yes") {
		t.Fatal("decision maker line missing")
	}
}

func TestMergeExcludesStructuredLookingNotes(t *testing.T) {
	rec := domain.Record{}
	m := NewMerger(nil)

	m.Merge(&rec, domain.Extraction{Notes: "Ana García"})
	if !rec.Notes.IsEmpty() {
		t.Fatalf("name-shaped note must be excluded, got %q", rec.Notes.String())
	}

	m.Merge(&rec, domain.Extraction{Notes: "they tried two agencies before and churned both times"})
	if rec.Notes.IsEmpty() {
		t.Fatal("genuine qualitative note should be journaled")
	}
}

func TestPatternClassifier(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"Ana García", true},
		{"Acme SRL", true},
		{"$50k", true},
		{"budget", true},
		{"they want to migrate off their legacy platform before summer", false},
		{"", true},
	}
	c := PatternClassifier{}
	for _, tt := range tests {
		if got := c.LooksStructured(tt.text); got != tt.want {
			t.Errorf("LooksStructured(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
