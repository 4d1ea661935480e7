package domain

import "testing"

func TestSetScoreClamps(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{-10, 0},
		{0, 0},
		{55, 55},
		{100, 100},
		{140, 100},
	}
	for _, tt := range tests {
		var r Record
		r.SetScore(tt.in)
		if r.Score != tt.want {
			t.Errorf("SetScore(%d): score = %d, want %d", tt.in, r.Score, tt.want)
		}
	}
}

func TestMarkMeetingLinkSentIsMonotonic(t *testing.T) {
	var r Record
	r.MarkMeetingLinkSent()
	if !r.MeetingLinkSent || r.Status != StatusMeetingSent {
		t.Fatal("flag and status should both flip")
	}

	// Later transitions never reset the flag.
	r.Close()
	if !r.MeetingLinkSent {
		t.Fatal("closing must not reset meeting_link_sent")
	}
	if r.Status != StatusClosed {
		t.Fatalf("status = %s, want closed", r.Status)
	}
}

func TestParseStatusFallsBackToNew(t *testing.T) {
	if got := ParseStatus("meeting_sent"); got != StatusMeetingSent {
		t.Fatalf("ParseStatus(meeting_sent) = %s", got)
	}
	if got := ParseStatus("in_progress"); got != StatusNew {
		t.Fatalf("ParseStatus(unknown) = %s, want new", got)
	}
}

func TestParseIntent(t *testing.T) {
	tests := []struct {
		in   string
		want Intent
	}{
		{"REJECTION", IntentRejection},
		{" scheduling ", IntentScheduling},
		{"information_request", IntentInformation},
		{"gibberish", IntentUnknown},
		{"", IntentUnknown},
	}
	for _, tt := range tests {
		if got := ParseIntent(tt.in); got != tt.want {
			t.Errorf("ParseIntent(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestIntentIsTerminal(t *testing.T) {
	if !IntentRejection.IsTerminal() || !IntentClosing.IsTerminal() {
		t.Fatal("rejection and closing are terminal")
	}
	if IntentObjection.IsTerminal() {
		t.Fatal("objection is not terminal")
	}
}

func TestValidEmail(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"ana@acme.com", true},
		{"first.last+tag@sub.domain.io", true},
		{"not-an-email", false},
		{"a@b", false},
		{"", false},
		{"spaced @acme.com", false},
	}
	for _, tt := range tests {
		if got := ValidEmail(tt.in); got != tt.want {
			t.Errorf("ValidEmail(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestFindEmail(t *testing.T) {
	got, ok := FindEmail("sure, write me at ana@acme.com whenever")
	if !ok || got != "ana@acme.com" {
		t.Fatalf("FindEmail = %q, %v", got, ok)
	}
	if _, ok := FindEmail("no address here"); ok {
		t.Fatal("FindEmail should not match plain text")
	}
}

func TestHasCompanyOrIndustry(t *testing.T) {
	var r Record
	if r.HasCompanyOrIndustry() {
		t.Fatal("empty record has no firmographics")
	}
	industry := "retail"
	r.Industry = &industry
	if !r.HasCompanyOrIndustry() {
		t.Fatal("industry alone should satisfy the check")
	}
}
