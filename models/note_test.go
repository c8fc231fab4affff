package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoteUnmarshalComplete(t *testing.T) {
	raw := `{
		"title": "Planejamento Semanal",
		"data": "28/05/25",
		"summary": "Organização de tarefas da semana",
		"keywords": ["planejamento", "trabalho"],
		"tasks": [
			{"task": "Reunião com cliente", "status": "done"},
			{"task": "Finalizar relatório", "status": "todo"}
		],
		"notes": ["Priorizar tarefas urgentes"],
		"reminders": ["Ligar para João às 14h"],
		"source_id": "keep_planejamento_semanal",
		"vector_id": "abc123"
	}`

	var note Note
	require.NoError(t, json.Unmarshal([]byte(raw), &note))

	assert.Equal(t, "Planejamento Semanal", note.Title)
	assert.Equal(t, "28/05/25", note.Data)
	assert.Equal(t, "Organização de tarefas da semana", note.Summary)
	assert.Equal(t, []string{"planejamento", "trabalho"}, note.Keywords)
	require.Len(t, note.Tasks, 2)
	assert.Equal(t, Task{Task: "Reunião com cliente", Status: "done"}, note.Tasks[0])
	assert.Equal(t, []string{"Priorizar tarefas urgentes"}, note.Notes)
	assert.Equal(t, []string{"Ligar para João às 14h"}, note.Reminders)
	assert.Equal(t, "keep_planejamento_semanal", note.SourceID)
	assert.Equal(t, "abc123", note.VectorID)
}

func TestNoteUnmarshalCoercesMalformedFields(t *testing.T) {
	// tasks is an object, keywords a number: both coerce to empty so the
	// rest of the note stays usable.
	raw := `{
		"title": "Nota parcial",
		"data": 20250528,
		"summary": "Campos ruins não derrubam a nota",
		"keywords": 42,
		"tasks": {"task": "not a list"},
		"notes": ["ok", 7, "também ok"],
		"reminders": null
	}`

	var note Note
	require.NoError(t, json.Unmarshal([]byte(raw), &note))

	assert.Equal(t, "Nota parcial", note.Title)
	assert.Empty(t, note.Data)
	assert.Equal(t, "Campos ruins não derrubam a nota", note.Summary)
	assert.Empty(t, note.Keywords)
	assert.Empty(t, note.Tasks)
	assert.Equal(t, []string{"ok", "também ok"}, note.Notes)
	assert.Empty(t, note.Reminders)
}

func TestNoteUnmarshalMissingFieldsDefaultEmpty(t *testing.T) {
	var note Note
	require.NoError(t, json.Unmarshal([]byte(`{}`), &note))

	assert.Empty(t, note.Title)
	assert.Empty(t, note.Keywords)
	assert.Empty(t, note.Tasks)
	assert.Empty(t, note.SourceID)
	assert.Empty(t, note.VectorID)
}

func TestNoteUnmarshalTaskStrings(t *testing.T) {
	raw := `{"tasks": ["comprar pão", {"task": "reunião", "status": "done"}]}`

	var note Note
	require.NoError(t, json.Unmarshal([]byte(raw), &note))

	require.Len(t, note.Tasks, 2)
	assert.Equal(t, Task{Task: "comprar pão", Status: "todo"}, note.Tasks[0])
	assert.Equal(t, Task{Task: "reunião", Status: "done"}, note.Tasks[1])
}
