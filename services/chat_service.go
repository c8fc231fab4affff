package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/thiago-gmacedo/keep/models"
)

const (
	chatContextResults = 5
	chatContextTokens  = 1200
)

// ChatService answers questions grounded exclusively in the user's indexed
// notes: each turn retrieves similar notes, formats them into a bounded
// context block and injects it into the prompt. Conversations keep their
// model-side history through per-session chats.
type ChatService interface {
	Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error)
}

type chatService struct {
	indexer      IndexerService
	geminiClient *genai.Client
	model        string
	chatSessions map[string]*genai.Chat
	mu           sync.Mutex
}

// NewChatService creates a RAG chat service on top of the indexer.
func NewChatService(indexer IndexerService, client *genai.Client, model string) ChatService {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &chatService{
		indexer:      indexer,
		geminiClient: client,
		model:        model,
		chatSessions: make(map[string]*genai.Chat),
	}
}

const chatSystemPrompt = `Você é um assistente pessoal inteligente que responde perguntas baseado exclusivamente nas anotações pessoais do usuário. Seja preciso, útil e cite as informações relevantes das notas quando possível.`

// Chat runs one RAG turn. Retrieval failures degrade to "no context found"
// instead of failing the turn.
func (s *chatService) Chat(ctx context.Context, req models.ChatRequest) (*models.ChatResponse, error) {
	log.Printf("CHAT: Querying with: '%s' (SessionID: '%s')", req.Query, req.SessionID)

	results := s.indexer.SearchSimilarNotes(ctx, req.Query, chatContextResults)
	ragContext := FormatForRAG(results, chatContextTokens)

	s.mu.Lock()
	defer s.mu.Unlock()

	sessionID := req.SessionID
	var session *genai.Chat
	if sessionID != "" {
		session = s.chatSessions[sessionID]
	}
	if session == nil {
		log.Println("CHAT: No active session found. Creating a new one.")
		var err error
		session, err = s.geminiClient.Chats.Create(ctx, s.model, &genai.GenerateContentConfig{
			SystemInstruction: genai.Text(chatSystemPrompt)[0],
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("could not start new chat session: %w", err)
		}
		sessionID = uuid.New().String()
		s.chatSessions[sessionID] = session
	}

	result, err := session.SendMessage(ctx, genai.Part{Text: buildRAGPrompt(req.Query, ragContext)})
	if err != nil {
		return nil, fmt.Errorf("gemini api call failed: %w", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil || len(result.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("gemini returned an empty chat response")
	}

	var answer strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		if p.Text != "" {
			answer.WriteString(p.Text)
		}
	}

	return &models.ChatResponse{
		Answer:       strings.TrimSpace(answer.String()),
		SessionID:    sessionID,
		ContextNotes: len(results),
	}, nil
}

// buildRAGPrompt wraps the retrieved context and the user question into the
// grounding prompt.
func buildRAGPrompt(query, context string) string {
	return fmt.Sprintf(`Você é um assistente que responde perguntas baseado exclusivamente nas anotações pessoais fornecidas abaixo.

INSTRUÇÕES:
- Use APENAS as informações do contexto fornecido
- Se a informação não estiver nas notas, diga claramente que não encontrou
- Cite as notas relevantes quando apropriado
- Seja conciso mas completo
- Use um tom amigável e pessoal

%s

PERGUNTA DO USUÁRIO: %s

RESPOSTA BASEADA NAS SUAS ANOTAÇÕES:`, context, query)
}
