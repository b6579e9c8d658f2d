package agent

// Event is one step of an agent run. Every field is optional; absent
// fields mean the step carried no payload of that kind.
type Event struct {
	Actions *Actions `json:"actions,omitempty"`
	Content *Content `json:"content,omitempty"`
}

// Actions carries state mutations produced by a step. The "reply" key
// of StateDelta holds the canonical user-facing answer.
type Actions struct {
	StateDelta map[string]string `json:"state_delta,omitempty"`
}

// Content carries model-generated output parts.
type Content struct {
	Parts []Part `json:"parts,omitempty"`
}

// Part is a single fragment of model output.
type Part struct {
	Text string `json:"text,omitempty"`
}

// ReplyEvent builds an event that records its text as the canonical reply.
func ReplyEvent(text string) Event {
	return Event{Actions: &Actions{StateDelta: map[string]string{"reply": text}}}
}

// TextEvent builds an event carrying plain content text.
func TextEvent(text string) Event {
	return Event{Content: &Content{Parts: []Part{{Text: text}}}}
}
