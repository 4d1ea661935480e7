package gemini

import (
	"strings"

	"prospectchat_backend/internal/conversation/domain"
)

// KeywordClassifier is the zero-dependency fallback when the model is
// down. It only has to be roughly right: the decider treats unknown
// conservatively.
type KeywordClassifier struct {
	rules []keywordRule
}

type keywordRule struct {
	intent   domain.Intent
	keywords []string
}

func NewKeywordClassifier() *KeywordClassifier {
	return &KeywordClassifier{rules: []keywordRule{
		// Order matters: a refusal mentioning price is still a refusal.
		{domain.IntentRejection, []string{
			"not interested", "no thanks", "stop messaging", "unsubscribe",
			"no me interesa", "no gracias", "dejen de",
		}},
		{domain.IntentScheduling, []string{
			"schedule", "book a", "calendar", "available", "what time",
			"agendar", "reunion", "reunión", "llamada",
		}},
		{domain.IntentClosing, []string{
			"bye", "goodbye", "talk later", "that's all",
			"hasta luego", "adios", "adiós", "nos vemos",
		}},
		{domain.IntentInterest, []string{
			"interested", "i want", "sounds good", "let's do it", "sign me up",
			"me interesa", "quiero", "me gustaria", "me gustaría",
		}},
		{domain.IntentObjection, []string{
			"too expensive", "not sure", "worried", "but ",
			"muy caro", "no estoy segur",
		}},
		{domain.IntentInformation, []string{
			"how does", "how much", "what is", "price", "pricing", "cost", "?",
			"cuanto", "cuánto", "como funciona", "cómo funciona",
		}},
		{domain.IntentGreeting, []string{
			"hello", "hi ", "hey", "good morning", "good afternoon",
			"hola", "buenas", "buen dia", "buen día",
		}},
	}}
}

// Classify returns the first intent whose keywords match, or unknown.
func (k *KeywordClassifier) Classify(message string) domain.Intent {
	text := " " + strings.ToLower(strings.TrimSpace(message)) + " "
	for _, rule := range k.rules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.intent
			}
		}
	}
	return domain.IntentUnknown
}
