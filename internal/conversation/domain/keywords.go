package domain

import "strings"

// interestKeywords are phrases that signal strong buying interest when
// they show up in the notes journal. Spanish variants are included
// because much of the inbound traffic is Spanish-speaking.
var interestKeywords = []string{
	"interested",
	"would like",
	"feasible",
	"sounds good",
	"me interesa",
	"quisiera",
	"me gustaria",
	"necesito ya",
}

// InterestSignals counts how many distinct strong-interest keywords
// appear in the journal.
func InterestSignals(j Journal) int {
	text := strings.ToLower(j.String())
	text = strings.Map(stripAccent, text)
	n := 0
	for _, kw := range interestKeywords {
		if strings.Contains(text, kw) {
			n++
		}
	}
	return n
}

func stripAccent(r rune) rune {
	switch r {
	case 'á':
		return 'a'
	case 'é':
		return 'e'
	case 'í':
		return 'i'
	case 'ó':
		return 'o'
	case 'ú':
		return 'u'
	}
	return r
}
