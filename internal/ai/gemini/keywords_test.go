package gemini

import (
	"testing"

	"prospectchat_backend/internal/conversation/domain"
)

func TestKeywordClassifier(t *testing.T) {
	tests := []struct {
		message string
		want    domain.Intent
	}{
		{"hola, buenas tardes", domain.IntentGreeting},
		{"hi there!", domain.IntentGreeting},
		{"how much does it cost?", domain.IntentInformation},
		{"cuánto sale el plan?", domain.IntentInformation},
		{"me interesa, quiero saber más", domain.IntentInterest},
		{"sounds good, sign me up", domain.IntentInterest},
		{"that's too expensive for us", domain.IntentObjection},
		{"no me interesa, dejen de escribirme", domain.IntentRejection},
		{"not interested, please stop", domain.IntentRejection},
		{"can we schedule a call?", domain.IntentScheduling},
		{"ok bye, talk later", domain.IntentClosing},
		{"xyzzy", domain.IntentUnknown},
	}

	k := NewKeywordClassifier()
	for _, tt := range tests {
		if got := k.Classify(tt.message); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.message, got, tt.want)
		}
	}
}

func TestKeywordClassifierRejectionBeatsInterest(t *testing.T) {
	// "no me interesa" contains "me interesa"; the refusal must win.
	k := NewKeywordClassifier()
	if got := k.Classify("no me interesa"); got != domain.IntentRejection {
		t.Fatalf("Classify = %s, want rejection", got)
	}
}

func TestStripFences(t *testing.T) {
	in := "```json\n{\"name\": \"Ana\"}\n```"
	if got := stripFences(in); got != `{"name": "Ana"}` {
		t.Fatalf("stripFences = %q", got)
	}
	if got := stripFences(`{"a":1}`); got != `{"a":1}` {
		t.Fatalf("stripFences plain = %q", got)
	}
}
