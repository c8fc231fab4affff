package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"regexp"
	"strings"

	"google.golang.org/genai"

	"github.com/thiago-gmacedo/keep/models"
)

// ParserService turns raw transcription text into a structured note
// honoring the note schema. It is the structuring collaborator of the
// indexer: the core only ever consumes its output.
type ParserService interface {
	ParseText(ctx context.Context, text string) (models.Note, error)
}

type parserService struct {
	geminiClient *genai.Client
	model        string
}

// NewParserService creates a Gemini-backed structuring service.
func NewParserService(client *genai.Client, model string) ParserService {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &parserService{geminiClient: client, model: model}
}

const parsingPrompt = `Você é um assistente especializado em estruturar notas manuscritas em formato JSON.

Sua tarefa é analisar o texto fornecido e organizá-lo em uma estrutura JSON consistente com os seguintes campos:

- "title": Título da nota (se houver, ou uma data no formato "dd/mm/aa" se for um diário)
- "data": Data encontrada no texto (formato "dd/mm/aa") ou string vazia se não houver
- "summary": Resumo conciso do conteúdo em uma frase
- "keywords": Array de até 5 palavras-chave relevantes
- "tasks": Array de objetos {"task": "descrição", "status": "done" ou "todo"}
- "notes": Array de anotações gerais e observações
- "reminders": Array de lembretes e coisas a não esquecer

REGRAS IMPORTANTES:
1. TODO o texto deve ser extraído e organizado nos campos apropriados
2. Se algo estiver ilegível, use lógica para completar lacunas
3. Tarefas podem estar marcadas com ✓, ✅, ou similar = "done"
4. Tarefas sem marcação ou com ○, -, • = "todo"
5. Retorne APENAS o JSON válido, sem explicações adicionais
6. Use encoding UTF-8 para caracteres especiais`

// ParseText sends the transcription to the LLM and decodes the structured
// reply into a note. Low temperature keeps runs consistent.
func (s *parserService) ParseText(ctx context.Context, text string) (models.Note, error) {
	if strings.TrimSpace(text) == "" {
		return models.Note{}, fmt.Errorf("empty text provided for parsing")
	}

	log.Printf("PARSER: Sending text for structuring with LLM...")

	result, err := s.geminiClient.Models.GenerateContent(ctx, s.model,
		genai.Text("Texto para estruturar:\n\n"+text),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.Text(parsingPrompt)[0],
			Temperature:       genai.Ptr[float32](0.1),
		},
	)
	if err != nil {
		return models.Note{}, fmt.Errorf("gemini structuring call failed: %w", err)
	}

	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return models.Note{}, fmt.Errorf("gemini returned an empty structuring response")
	}

	var reply strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		if p.Text != "" {
			reply.WriteString(p.Text)
		}
	}

	note, err := ExtractNoteJSON(reply.String())
	if err != nil {
		return models.Note{}, fmt.Errorf("could not extract structured note from LLM reply: %w", err)
	}
	log.Printf("PARSER: Structured note extracted successfully")
	return note, nil
}

var jsonFencePattern = regexp.MustCompile("(?is)```(?:json)?\\s*\\n?(.*?)\\n?```")

// ExtractNoteJSON pulls a note out of an LLM reply, preferring fenced code
// blocks and falling back to the whole reply. Decoding is lenient, so a
// reply with some malformed fields still yields a partially usable note.
func ExtractNoteJSON(reply string) (models.Note, error) {
	content := strings.TrimSpace(reply)
	if m := jsonFencePattern.FindStringSubmatch(content); m != nil {
		content = strings.TrimSpace(m[1])
	}

	var note models.Note
	if err := json.Unmarshal([]byte(content), &note); err != nil {
		return models.Note{}, fmt.Errorf("reply is not valid JSON: %w", err)
	}
	return note, nil
}
