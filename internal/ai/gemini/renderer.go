package gemini

import (
	"context"
	"fmt"
	"strings"

	"prospectchat_backend/internal/conversation/domain"
	"prospectchat_backend/internal/conversation/engine"
)

const rendererBase = `You are a warm, concise sales assistant chatting with a potential
customer. Write the next reply in the language the customer is using.
Keep it short (2-4 sentences), natural and helpful. Never mention that
you are scoring or qualifying them, never invent prices or promises,
and never repeat a question they already answered.`

// Renderer writes the assistant's replies with Gemini, steering the
// message with a per-action instruction.
type Renderer struct {
	client *Client
}

func NewRenderer(client *Client) *Renderer {
	return &Renderer{client: client}
}

func (r *Renderer) RenderReply(ctx context.Context, req engine.RenderRequest) (string, error) {
	system := rendererBase + "\n\n" + actionInstruction(req)

	if known := knownProfile(req.Record); known != "" {
		system += "\n\nWhat we already know about them:\n" + known
	}
	if req.Extra != "" {
		system += "\n\nRelevant company knowledge you may draw on:\n" + req.Extra
	}

	var b strings.Builder
	for _, m := range req.History {
		b.WriteString(m.Sender)
		b.WriteString(": ")
		b.WriteString(m.Body)
		b.WriteString("\n")
	}
	b.WriteString("user: ")
	b.WriteString(req.Message)
	b.WriteString("\nassistant:")

	return r.client.generate(ctx, system, b.String(), false)
}

func actionInstruction(req engine.RenderRequest) string {
	switch req.Action {
	case domain.ActionSendMeeting:
		return fmt.Sprintf(
			"They are ready to talk to the team. Share this scheduling link "+
				"and invite them to pick a slot: %s", req.MeetingURL)
	case domain.ActionRequestEmail:
		return "They are a great fit and the next step is a short call. " +
			"Ask politely for their email address so you can send the " +
			"scheduling link. Do not share any link yet."
	case domain.ActionEnd:
		return "They are ending the conversation. Thank them warmly, leave " +
			"the door open, and say goodbye. Do not pitch anything."
	default:
		return "Keep the conversation going: answer what they asked, and " +
			"naturally learn more about their business, their challenges " +
			"or what they are looking for. One question at most."
	}
}

// knownProfile renders the non-empty record fields so the model stops
// re-asking for them.
func knownProfile(rec domain.Record) string {
	var lines []string
	add := func(label string, v *string) {
		if v != nil && *v != "" {
			lines = append(lines, "- "+label+": "+*v)
		}
	}
	add("Name", rec.Name)
	add("Company", rec.Company)
	add("Industry", rec.Industry)
	add("Location", rec.Location)
	add("Budget", rec.Budget)
	add("Email", rec.Email)
	if !rec.Notes.IsEmpty() {
		lines = append(lines, "- Notes:")
		for _, l := range rec.Notes.Lines() {
			lines = append(lines, "    "+l)
		}
	}
	return strings.Join(lines, "\n")
}
