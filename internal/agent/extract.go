package agent

// ExtractFinalReply walks the events of an agent run and pulls out the
// final user-facing text. Two passes, in priority order:
//
//  1. the first non-empty "reply" value in any event's state delta
//  2. the first non-empty content part text across all events
//
// Always returns a string (possibly ""), never panics on missing fields.
func ExtractFinalReply(events []Event) string {
	for _, e := range events {
		if e.Actions == nil || e.Actions.StateDelta == nil {
			continue
		}
		if reply := e.Actions.StateDelta["reply"]; reply != "" {
			return reply
		}
	}

	for _, e := range events {
		if e.Content == nil {
			continue
		}
		for _, p := range e.Content.Parts {
			if p.Text != "" {
				return p.Text
			}
		}
	}

	return ""
}
