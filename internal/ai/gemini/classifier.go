package gemini

import (
	"context"
	"strings"

	"prospectchat_backend/internal/conversation/domain"
	"prospectchat_backend/internal/conversation/repository"
	"prospectchat_backend/platform/logger"
)

const classifySystem = `You label the intent of one message from a potential customer
talking to a sales assistant. Reply with exactly one of these labels and
nothing else:

greeting, information_request, interest, objection, rejection, scheduling, closing

- greeting: salutations, small talk openers
- information_request: asking about the product, pricing, how it works
- interest: signals they want this, asks about next steps
- objection: doubts, concerns, pushback that is not a refusal
- rejection: explicit refusal, asking to stop
- scheduling: anything about booking, times, availability
- closing: wrapping up, goodbyes, thanks-and-done`

// Classifier labels message intents with Gemini, degrading to a
// keyword heuristic when the model is unavailable.
type Classifier struct {
	client   *Client
	fallback *KeywordClassifier
	log      *logger.Logger
}

func NewClassifier(client *Client, log *logger.Logger) *Classifier {
	return &Classifier{
		client:   client,
		fallback: NewKeywordClassifier(),
		log:      log,
	}
}

func (c *Classifier) ClassifyIntent(ctx context.Context, message string, history []repository.Message) (domain.Intent, error) {
	prompt := message
	if len(history) > 0 {
		var b strings.Builder
		b.WriteString("Recent conversation:\n")
		for _, m := range history {
			b.WriteString(m.Sender)
			b.WriteString(": ")
			b.WriteString(m.Body)
			b.WriteString("\n")
		}
		b.WriteString("\nMessage to label:\n")
		b.WriteString(message)
		prompt = b.String()
	}

	out, err := c.client.generate(ctx, classifySystem, prompt, false)
	if err != nil {
		c.log.CollaboratorError("gemini", "classify_intent", err)
		return c.fallback.Classify(message), nil
	}

	label := strings.ToLower(strings.Trim(strings.TrimSpace(out), `"'.`))
	intent := domain.ParseIntent(label)
	if intent == domain.IntentUnknown {
		// The model went off-script; the heuristic is better than
		// nothing.
		if kw := c.fallback.Classify(message); kw != domain.IntentUnknown {
			return kw, nil
		}
	}
	return intent, nil
}
