package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thiago-gmacedo/keep/models"
)

func fullNote() models.Note {
	return models.Note{
		Title:   "Planejamento",
		Data:    "28/05/25",
		Summary: "Tarefas da semana",
		Keywords: []string{
			"trabalho", "planejamento",
		},
		Tasks: []models.Task{
			{Task: "Reunião", Status: "done"},
			{Task: "Relatório", Status: "todo"},
		},
		Notes:     []string{"Priorizar urgentes", "Revisar agenda"},
		Reminders: []string{"Ligar para João"},
	}
}

func TestExtractEmbeddableTextFullNote(t *testing.T) {
	text := ExtractEmbeddableText(fullNote())

	expected := "Título: Planejamento | " +
		"Resumo: Tarefas da semana | " +
		"Notas: Priorizar urgentes Revisar agenda | " +
		"Lembretes: Ligar para João | " +
		"Tarefas: Reunião Relatório | " +
		"Palavras-chave: trabalho planejamento"
	assert.Equal(t, expected, text)
}

func TestExtractEmbeddableTextSkipsEmptySections(t *testing.T) {
	note := models.Note{
		Title:    "Só título",
		Keywords: []string{"tag"},
		// Whitespace-only lists count as empty.
		Notes:     []string{"  ", ""},
		Reminders: []string{},
		Tasks:     []models.Task{{Task: "", Status: "todo"}},
	}

	assert.Equal(t, "Título: Só título | Palavras-chave: tag", ExtractEmbeddableText(note))
}

func TestExtractEmbeddableTextEmptyNote(t *testing.T) {
	assert.Empty(t, ExtractEmbeddableText(models.Note{}))
}

func TestExtractEmbeddableTextExcludesTaskStatus(t *testing.T) {
	note := models.Note{Tasks: []models.Task{{Task: "Reunião", Status: "done"}}}
	text := ExtractEmbeddableText(note)

	assert.Equal(t, "Tarefas: Reunião", text)
	assert.NotContains(t, text, "done")
}

func TestBuildMetadataFullNote(t *testing.T) {
	metadata := BuildMetadata(fullNote())

	assert.Equal(t, "Planejamento", metadata["title"])
	assert.Equal(t, "Tarefas da semana", metadata["summary"])
	assert.Equal(t, "28/05/25", metadata["data"])
	assert.Equal(t, "trabalho, planejamento", metadata["keywords"])
	assert.Equal(t, 2, metadata["total_tasks"])
	assert.Equal(t, 1, metadata["done_tasks"])
	assert.Equal(t, 1, metadata["todo_tasks"])
	assert.Equal(t, 2, metadata["notes_count"])
	assert.Equal(t, 1, metadata["reminders_count"])

	indexedAt, ok := metadata["indexed_at"].(string)
	require.True(t, ok)
	_, err := time.Parse(time.RFC3339, indexedAt)
	assert.NoError(t, err)
}

func TestBuildMetadataOmitsTaskCountsWithoutTasks(t *testing.T) {
	metadata := BuildMetadata(models.Note{Title: "Sem tarefas"})

	// "no tasks" must stay distinguishable from "tasks, none done".
	assert.NotContains(t, metadata, "total_tasks")
	assert.NotContains(t, metadata, "done_tasks")
	assert.NotContains(t, metadata, "todo_tasks")

	// Counts for notes/reminders are always present, even at zero.
	assert.Equal(t, 0, metadata["notes_count"])
	assert.Equal(t, 0, metadata["reminders_count"])
}

func TestBuildMetadataOmitsEmptyKeywordsAndHints(t *testing.T) {
	metadata := BuildMetadata(models.Note{Title: "Nota"})

	assert.NotContains(t, metadata, "keywords")
	assert.NotContains(t, metadata, "source_id")
	assert.NotContains(t, metadata, "vector_id")

	// Empty strings still copied verbatim for the always-present fields.
	assert.Equal(t, "", metadata["summary"])
	assert.Equal(t, "", metadata["data"])
}

func TestBuildMetadataPassesThroughIdentityHints(t *testing.T) {
	metadata := BuildMetadata(models.Note{
		Title:    "Nota",
		SourceID: "keep_nota",
		VectorID: "v1",
	})

	assert.Equal(t, "keep_nota", metadata["source_id"])
	assert.Equal(t, "v1", metadata["vector_id"])
}
