package gemini

import (
	"context"
	"encoding/json"
	"strings"

	"prospectchat_backend/internal/conversation/domain"
	"prospectchat_backend/internal/conversation/repository"
)

const extractSystem = `You extract sales-relevant facts from one message sent by a
potential customer. Respond with a single JSON object using exactly
these keys (use "" or [] or false when the message says nothing about
a field, never invent values):

{
  "name": "",
  "company": "",
  "email": "",
  "budget": "",
  "location": "",
  "industry": "",
  "pain_points": [],
  "needs": "",
  "channel": "",
  "timeline": "",
  "notes": "",
  "decision_maker": false
}

- pain_points: concrete problems they describe, one short phrase each
- needs: what they are looking for, one short phrase
- channel: how they found us, if mentioned
- timeline: any urgency or deadline
- notes: one qualitative observation worth remembering, as a sentence
- decision_maker: true only if they say they decide or own the company`

// Extractor pulls candidate facts out of a message with Gemini.
type Extractor struct {
	client *Client
}

func NewExtractor(client *Client) *Extractor {
	return &Extractor{client: client}
}

func (e *Extractor) ExtractEntities(ctx context.Context, message string, history []repository.Message) (domain.Extraction, error) {
	prompt := "Message:\n" + message
	if len(history) > 0 {
		var b strings.Builder
		b.WriteString("Recent conversation for context:\n")
		for _, m := range history {
			b.WriteString(m.Sender)
			b.WriteString(": ")
			b.WriteString(m.Body)
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(prompt)
		prompt = b.String()
	}

	out, err := e.client.generate(ctx, extractSystem, prompt, true)
	if err != nil {
		return domain.Extraction{}, err
	}

	var facts domain.Extraction
	if err := json.Unmarshal([]byte(stripFences(out)), &facts); err != nil {
		return domain.Extraction{}, err
	}
	return facts, nil
}

// stripFences removes a markdown code fence if the model wrapped its
// JSON in one despite the mime type.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
