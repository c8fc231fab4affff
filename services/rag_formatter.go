package services

import (
	"fmt"
	"strings"

	"github.com/thiago-gmacedo/keep/models"
)

// charsPerToken is the fixed character-to-token ratio used to approximate
// budgets. It is deliberately not a real tokenizer; ~4 chars per token is
// close enough for Portuguese and English prose.
const charsPerToken = 4

const (
	noResultsSentinel  = "Nenhuma nota relevante encontrada."
	noBlockFitSentinel = "Erro ao processar as notas encontradas."
	truncationMarker   = "\n\n[CONTEXTO TRUNCADO DEVIDO AO LIMITE DE TOKENS]"
)

// FormatForRAG assembles ranked search results into a single context block
// bounded by maxTokens. Results are consumed in the given order and only
// whole note blocks are included: a block that would cross the budget is
// dropped along with everything after it. The header reports the number of
// notes actually included, not the number requested.
func FormatForRAG(results []models.SearchResult, maxTokens int) string {
	if len(results) == 0 {
		return noResultsSentinel
	}

	var blocks []string
	totalChars := 0
	maxChars := maxTokens * charsPerToken

	for i, result := range results {
		var b strings.Builder
		fmt.Fprintf(&b, "\n--- NOTA %d ---", i+1)
		if title := metaString(result.Metadata, "title"); title != "" {
			fmt.Fprintf(&b, "\nTítulo: %s", title)
		}
		if date := metaString(result.Metadata, "data"); date != "" {
			fmt.Fprintf(&b, "\nData: %s", date)
		}
		if summary := metaString(result.Metadata, "summary"); summary != "" {
			fmt.Fprintf(&b, "\nResumo: %s", summary)
		}
		if result.Document != "" {
			fmt.Fprintf(&b, "\nConteúdo: %s", result.Document)
		}
		fmt.Fprintf(&b, "\nRelevância: %.2f\n", result.Similarity)

		block := b.String()
		if totalChars+len(block) > maxChars {
			break
		}
		blocks = append(blocks, block)
		totalChars += len(block)
	}

	if len(blocks) == 0 {
		return noBlockFitSentinel
	}

	var context strings.Builder
	context.WriteString("=== CONTEXTO DAS SUAS ANOTAÇÕES ===\n")
	fmt.Fprintf(&context, "Total de notas relevantes: %d\n", len(blocks))
	for _, block := range blocks {
		context.WriteString(block)
	}
	context.WriteString("\n=== FIM DO CONTEXTO ===")
	return context.String()
}

// FormatForRAGDetailed is the richer variant: it adds keywords and task
// progress from the metadata to each block. Same budget policy as
// FormatForRAG.
func FormatForRAGDetailed(results []models.SearchResult, maxTokens int) string {
	if len(results) == 0 {
		return noResultsSentinel
	}

	var blocks []string
	totalChars := 0
	maxChars := maxTokens * charsPerToken

	for i, result := range results {
		var b strings.Builder
		title := metaString(result.Metadata, "title")
		if title == "" {
			title = "Sem título"
		}
		fmt.Fprintf(&b, "\n--- NOTA %d: %s ---", i+1, title)
		if date := metaString(result.Metadata, "data"); date != "" {
			fmt.Fprintf(&b, "\nData: %s", date)
		}
		if summary := metaString(result.Metadata, "summary"); summary != "" {
			fmt.Fprintf(&b, "\nResumo: %s", summary)
		}
		if keywords := metaString(result.Metadata, "keywords"); keywords != "" {
			fmt.Fprintf(&b, "\nPalavras-chave: %s", keywords)
		}
		if total := metaInt(result.Metadata, "total_tasks"); total > 0 {
			done := metaInt(result.Metadata, "done_tasks")
			todo := metaInt(result.Metadata, "todo_tasks")
			fmt.Fprintf(&b, "\nTarefas: %d concluídas, %d pendentes", done, todo)
		}
		if result.Document != "" {
			fmt.Fprintf(&b, "\nConteúdo completo: %s", result.Document)
		}
		fmt.Fprintf(&b, "\nRelevância: %.3f\n", result.Similarity)

		block := b.String()
		if totalChars+len(block) > maxChars {
			break
		}
		blocks = append(blocks, block)
		totalChars += len(block)
	}

	if len(blocks) == 0 {
		return noBlockFitSentinel
	}

	var context strings.Builder
	context.WriteString("=== SUAS ANOTAÇÕES PESSOAIS ===\n")
	fmt.Fprintf(&context, "Encontradas %d notas relevantes:\n", len(blocks))
	for _, block := range blocks {
		context.WriteString(block)
	}
	context.WriteString("\n=== FIM DAS ANOTAÇÕES ===")
	return context.String()
}

// EstimateTokens approximates the token count of a text.
func EstimateTokens(text string) int {
	return len(text) / charsPerToken
}

// TruncateContext bluntly cuts an already-formatted context at the token
// budget, backing up to the previous newline when it falls inside the last
// 20% of the cut so lines are not split mid-way, and appends a marker.
func TruncateContext(context string, maxTokens int) string {
	maxChars := maxTokens * charsPerToken
	if len(context) <= maxChars {
		return context
	}

	truncated := context[:maxChars]
	if lastNewline := strings.LastIndex(truncated, "\n"); lastNewline > maxChars*4/5 {
		truncated = truncated[:lastNewline]
	}
	return truncated + truncationMarker
}

// metaString reads a string value from a flat metadata map, tolerating
// missing keys and non-string values.
func metaString(metadata map[string]interface{}, key string) string {
	if metadata == nil {
		return ""
	}
	if s, ok := metadata[key].(string); ok {
		return s
	}
	return ""
}

// metaInt reads an integer metadata value. Values that went through a JSON
// round trip come back as float64, so both shapes are accepted.
func metaInt(metadata map[string]interface{}, key string) int {
	if metadata == nil {
		return 0
	}
	switch v := metadata[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	}
	return 0
}
