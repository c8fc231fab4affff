package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/thiago-gmacedo/keep/models"
)

// DefaultEmbeddingModel is the Ollama model used when none is configured.
// Any sentence-embedding model served by Ollama works, including
// multilingual ones; the collection must be rebuilt when the model changes.
const DefaultEmbeddingModel = "nomic-embed-text:v1.5"

// EmbeddingService maps text to a fixed-length dense vector. Embedding the
// same text always yields the same vector, and calls are safe to run
// concurrently.
type EmbeddingService interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// ollamaEmbeddingService generates embeddings through Ollama's HTTP API.
type ollamaEmbeddingService struct {
	httpClient *http.Client
	baseURL    string
	model      string
}

// NewOllamaEmbeddingService creates an embedding service talking to the
// Ollama server at baseURL (e.g. http://localhost:11434).
func NewOllamaEmbeddingService(client *http.Client, baseURL, model string) EmbeddingService {
	if model == "" {
		model = DefaultEmbeddingModel
	}
	return &ollamaEmbeddingService{
		httpClient: client,
		baseURL:    baseURL,
		model:      model,
	}
}

// Embed generates an embedding for a single text.
func (s *ollamaEmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	reqBody, err := json.Marshal(models.OllamaEmbedRequest{
		Model:  s.model,
		Prompt: text,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal ollama request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/api/embeddings", bytes.NewBuffer(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create ollama http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call ollama embedding api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("ollama api returned non-200 status: %d, body: %s", resp.StatusCode, string(bodyBytes))
	}

	var ollamaResp models.OllamaEmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&ollamaResp); err != nil {
		return nil, fmt.Errorf("failed to decode ollama response: %w", err)
	}
	if ollamaResp.Error != "" {
		return nil, fmt.Errorf("ollama embedding failed: %s", ollamaResp.Error)
	}
	if len(ollamaResp.Embedding) == 0 {
		return nil, fmt.Errorf("ollama returned an empty embedding for model %s", s.model)
	}
	return ollamaResp.Embedding, nil
}
