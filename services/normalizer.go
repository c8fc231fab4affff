package services

import (
	"strings"
	"time"

	"github.com/thiago-gmacedo/keep/models"
)

// ExtractEmbeddableText combines the relevant sections of a structured note
// into a single text for embedding. Sections are rendered as
// "<Label>: <content>" in fixed order and joined with " | "; empty sections
// are skipped. An empty result means the note has nothing to index.
func ExtractEmbeddableText(note models.Note) string {
	var parts []string

	if note.Title != "" {
		parts = append(parts, "Título: "+note.Title)
	}
	if note.Summary != "" {
		parts = append(parts, "Resumo: "+note.Summary)
	}
	if text := strings.Join(note.Notes, " "); strings.TrimSpace(text) != "" {
		parts = append(parts, "Notas: "+text)
	}
	if text := strings.Join(note.Reminders, " "); strings.TrimSpace(text) != "" {
		parts = append(parts, "Lembretes: "+text)
	}
	// Task descriptions only; status never participates in the embedding.
	var taskTexts []string
	for _, task := range note.Tasks {
		if task.Task != "" {
			taskTexts = append(taskTexts, task.Task)
		}
	}
	if len(taskTexts) > 0 {
		parts = append(parts, "Tarefas: "+strings.Join(taskTexts, " "))
	}
	if text := strings.Join(note.Keywords, " "); strings.TrimSpace(text) != "" {
		parts = append(parts, "Palavras-chave: "+text)
	}

	return strings.Join(parts, " | ")
}

// BuildMetadata derives the flat metadata record stored alongside the
// embedding. indexed_at is set at call time, so updates refresh it.
func BuildMetadata(note models.Note) map[string]interface{} {
	metadata := map[string]interface{}{
		"title":   note.Title,
		"summary": note.Summary,
		"data":    note.Data,
	}

	metadata["indexed_at"] = time.Now().Format(time.RFC3339)

	if len(note.Keywords) > 0 {
		metadata["keywords"] = strings.Join(note.Keywords, ", ")
	}

	// Task counts are omitted entirely when the note has no tasks, which
	// keeps "no tasks" distinguishable from "tasks, none done".
	if len(note.Tasks) > 0 {
		done, todo := 0, 0
		for _, task := range note.Tasks {
			switch task.Status {
			case "done":
				done++
			case "todo":
				todo++
			}
		}
		metadata["total_tasks"] = len(note.Tasks)
		metadata["done_tasks"] = done
		metadata["todo_tasks"] = todo
	}

	metadata["notes_count"] = len(note.Notes)
	metadata["reminders_count"] = len(note.Reminders)

	if note.SourceID != "" {
		metadata["source_id"] = note.SourceID
	}
	if note.VectorID != "" {
		metadata["vector_id"] = note.VectorID
	}

	return metadata
}
