package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/genai"
)

// OCRService transcribes handwritten-note images with a vision-capable
// model. Like the parser it is a collaborator feeding the indexer, not part
// of the index itself.
type OCRService interface {
	TranscribeHandwriting(ctx context.Context, image []byte, mimeType string) (string, error)
}

type ocrService struct {
	geminiClient *genai.Client
	model        string
}

// NewOCRService creates a Gemini-vision-backed transcription service.
func NewOCRService(client *genai.Client, model string) OCRService {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &ocrService{geminiClient: client, model: model}
}

const transcriptionPrompt = `A imagem contém texto manuscrito que deve ser transcrito de forma precisa e fiel ao conteúdo. ` +
	`Caso alguma parte fique ilegível, use a lógica para completar a lacuna. ` +
	`A imagem pode vir dividida em blocos de texto, tarefas, notas e lembretes; ` +
	`preserve as quebras de linha e as marcações de tarefas (✓, ✅, ○, -, •) exatamente como aparecem. ` +
	`Retorne APENAS o texto transcrito, sem comentários adicionais.`

// TranscribeHandwriting sends the image to the vision model and returns its
// transcription.
func (s *ocrService) TranscribeHandwriting(ctx context.Context, image []byte, mimeType string) (string, error) {
	if len(image) == 0 {
		return "", fmt.Errorf("empty image provided for transcription")
	}
	if mimeType == "" {
		mimeType = "image/png"
	}

	log.Printf("OCR: Transcribing handwritten image (%d bytes, %s)...", len(image), mimeType)

	contents := []*genai.Content{
		{
			Parts: []*genai.Part{
				{Text: transcriptionPrompt},
				{InlineData: &genai.Blob{MIMEType: mimeType, Data: image}},
			},
		},
	}

	result, err := s.geminiClient.Models.GenerateContent(ctx, s.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini vision call failed: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("gemini returned an empty transcription")
	}

	var text strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		if p.Text != "" {
			text.WriteString(p.Text)
		}
	}

	transcription := strings.TrimSpace(text.String())
	if transcription == "" {
		return "", fmt.Errorf("transcription came back empty")
	}
	log.Printf("OCR: Transcription complete (%d chars)", len(transcription))
	return transcription, nil
}
