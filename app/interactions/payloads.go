package interactions

import (
	"encoding/json"
	"fmt"
	"strings"
)

// TaskPayload is one sub-task extracted from a final assistant reply.
type TaskPayload struct {
	Title       string
	Description string
}

// rawTask accepts both the Portuguese and English key spellings the
// completion model is known to emit.
type rawTask struct {
	Titulo      string `json:"titulo"`
	Title       string `json:"title"`
	Descricao   string `json:"descricao"`
	Description string `json:"description"`
}

func (r rawTask) toPayload() TaskPayload {
	p := TaskPayload{Title: r.Titulo, Description: r.Descricao}
	if p.Title == "" {
		p.Title = r.Title
	}
	if p.Description == "" {
		p.Description = r.Description
	}
	return p
}

// ParseTaskPayloads decodes the assistant's final reply into task payloads.
// Accepted shapes: a bare JSON array of tasks, or an object wrapping the
// array under an "activities"/"atividades" key, matched case-insensitively.
func ParseTaskPayloads(text string) ([]TaskPayload, error) {
	trimmed := strings.TrimSpace(text)

	var items []rawTask
	if err := json.Unmarshal([]byte(trimmed), &items); err == nil {
		return toPayloads(items), nil
	}

	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal([]byte(trimmed), &wrapper); err != nil {
		return nil, fmt.Errorf("reply is neither a task array nor a wrapper object: %w", err)
	}
	for key, raw := range wrapper {
		switch strings.ToLower(key) {
		case "activities", "atividades":
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, fmt.Errorf("wrapper key %q does not hold a task array: %w", key, err)
			}
			return toPayloads(items), nil
		}
	}
	return nil, fmt.Errorf("no recognized wrapper key in reply object")
}

func toPayloads(items []rawTask) []TaskPayload {
	payloads := make([]TaskPayload, 0, len(items))
	for _, item := range items {
		payloads = append(payloads, item.toPayload())
	}
	return payloads
}
