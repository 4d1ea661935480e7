package domain

import "regexp"

var emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)

var emailExact = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`)

// ValidEmail reports whether s as a whole is a plausible email address.
func ValidEmail(s string) bool {
	return emailExact.MatchString(s)
}

// FindEmail returns the first email-shaped token inside free text.
func FindEmail(text string) (string, bool) {
	m := emailPattern.FindString(text)
	return m, m != ""
}
