package extract

import (
	"regexp"
	"strings"
)

// StructuredTextClassifier decides whether a piece of candidate note
// text looks like structured profile data (a name, a company, a price)
// rather than genuine qualitative conversation notes. Structured text
// belongs in the dedicated record fields, not the journal.
type StructuredTextClassifier interface {
	LooksStructured(text string) bool
}

// PatternClassifier is the default heuristic: a handful of shape checks
// tuned on real widget transcripts.
type PatternClassifier struct{}

var (
	currencyPattern = regexp.MustCompile(`(?i)(\$|€|usd|eur|ars|mxn)\s*\d|[\d.,]+\s*(k|mil|thousand|million|millones)\b`)
	namePattern     = regexp.MustCompile(`^([A-ZÁÉÍÓÚÑ][a-záéíóúñ]+\s){1,3}[A-ZÁÉÍÓÚÑ][a-záéíóúñ]+$`)

	companySuffixes = []string{
		" s.a.", " s.a", " srl", " s.r.l", " llc", " ltd", " inc",
		" inc.", " gmbh", " s.l.", " spa", " corp", " co.",
	}
)

// LooksStructured reports whether the text reads like a field value.
// Short word-or-two fragments, personal names, company names and bare
// money amounts all count.
func (PatternClassifier) LooksStructured(text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return true
	}

	// A real note is a sentence. One or two words with no verb is a
	// field value that leaked out of the extractor.
	if len(strings.Fields(trimmed)) <= 2 && len(trimmed) < 30 {
		return true
	}

	if namePattern.MatchString(trimmed) {
		return true
	}

	lower := strings.ToLower(trimmed)
	for _, suffix := range companySuffixes {
		if strings.HasSuffix(lower, suffix) || strings.Contains(lower, suffix+" ") {
			return true
		}
	}

	// Bare amounts with no surrounding sentence.
	if currencyPattern.MatchString(trimmed) && len(strings.Fields(trimmed)) <= 4 {
		return true
	}

	return false
}

// looksLikeName is shared with the merge pass: 2-5 capitalized words
// and nothing else.
func looksLikeName(s string) bool {
	fields := strings.Fields(strings.TrimSpace(s))
	if len(fields) < 2 || len(fields) > 5 {
		return false
	}
	for _, f := range fields {
		r := []rune(f)
		if !isUpper(r[0]) {
			return false
		}
	}
	return true
}

func isUpper(r rune) bool {
	return (r >= 'A' && r <= 'Z') || strings.ContainsRune("ÁÉÍÓÚÑ", r)
}
