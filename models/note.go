package models

import "encoding/json"

// Task is a single actionable item extracted from a handwritten note.
// Status is "done" or "todo" as produced by the structuring LLM.
type Task struct {
	Task   string `json:"task"`
	Status string `json:"status"`
}

// Note is the structured form of a handwritten note, as produced by the
// LLM structuring step. Every field except the identity hints is expected
// to be present; decoding is lenient so that a note with one malformed
// field stays searchable on the others.
type Note struct {
	Title     string   `json:"title"`
	Data      string   `json:"data"`
	Summary   string   `json:"summary"`
	Keywords  []string `json:"keywords"`
	Tasks     []Task   `json:"tasks"`
	Notes     []string `json:"notes"`
	Reminders []string `json:"reminders"`

	// Optional identity hints set by upstream producers. When present they
	// take precedence over content-derived ids.
	SourceID string `json:"source_id,omitempty"`
	VectorID string `json:"vector_id,omitempty"`
}

// UnmarshalJSON decodes a note field by field, coercing missing or
// wrong-typed fields to their zero value instead of failing the whole note.
func (n *Note) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	n.Title = asString(raw["title"])
	n.Data = asString(raw["data"])
	n.Summary = asString(raw["summary"])
	n.Keywords = asStringList(raw["keywords"])
	n.Tasks = asTaskList(raw["tasks"])
	n.Notes = asStringList(raw["notes"])
	n.Reminders = asStringList(raw["reminders"])
	n.SourceID = asString(raw["source_id"])
	n.VectorID = asString(raw["vector_id"])
	return nil
}

func asString(raw json.RawMessage) string {
	if raw == nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func asStringList(raw json.RawMessage) []string {
	if raw == nil {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	list := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err != nil {
			continue
		}
		list = append(list, s)
	}
	return list
}

func asTaskList(raw json.RawMessage) []Task {
	if raw == nil {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	tasks := make([]Task, 0, len(items))
	for _, item := range items {
		var t Task
		if err := json.Unmarshal(item, &t); err == nil {
			tasks = append(tasks, t)
			continue
		}
		// Some structuring runs emit bare strings instead of objects.
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			tasks = append(tasks, Task{Task: s, Status: "todo"})
		}
	}
	return tasks
}
