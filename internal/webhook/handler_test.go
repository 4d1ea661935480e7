package webhook

import "testing"

func TestNormalizeAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"+5491155550123@s.whatsapp.net", "+5491155550123"},
		{"+54 9 11 5555-0123", "+5491155550123"},
		{"not-a-number", "not-a-number"},
		{"  garbage@g.us  ", "garbage"},
	}
	for _, tt := range tests {
		if got := normalizeAddress(tt.in); got != tt.want {
			t.Errorf("normalizeAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
