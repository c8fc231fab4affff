package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"google.golang.org/genai"

	"github.com/thiago-gmacedo/keep/controller"
	"github.com/thiago-gmacedo/keep/services"
	"github.com/thiago-gmacedo/keep/store"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	collectionName := envOr("COLLECTION_NAME", "handwritten_notes")
	persistDir := envOr("CHROMA_DB_PATH", "./chroma_db")

	vectorStore, err := openStore(collectionName, persistDir)
	if err != nil {
		log.Fatalf("FATAL: Failed to open vector store: %v", err)
	}
	defer func() {
		if err := vectorStore.Close(); err != nil {
			log.Printf("Warning: Failed to close vector store: %v", err)
		}
	}()

	httpClient := &http.Client{
		Timeout: 30 * time.Second,
	}
	embedder := services.NewOllamaEmbeddingService(
		httpClient,
		envOr("OLLAMA_URL", "http://localhost:11434"),
		os.Getenv("EMBEDDING_MODEL"),
	)

	indexer := services.NewIndexerService(vectorStore, embedder, collectionName, persistDir)

	// Gemini backs the chat and the transcription pipeline. Without a key
	// the index/search/stats surface still works.
	var (
		chatService   services.ChatService
		ocrService    services.OCRService
		parserService services.ParserService
	)
	if apiKey := os.Getenv("GEMINI_API_KEY"); apiKey != "" {
		geminiClient, err := genai.NewClient(context.Background(), &genai.ClientConfig{
			APIKey:  apiKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			log.Fatalf("FATAL: Failed to create Gemini client: %v", err)
		}
		log.Println("Successfully connected to Google Gemini.")

		model := os.Getenv("GEMINI_MODEL")
		chatService = services.NewChatService(indexer, geminiClient, model)
		ocrService = services.NewOCRService(geminiClient, model)
		parserService = services.NewParserService(geminiClient, model)
	} else {
		log.Println("GEMINI_API_KEY not set: chat and transcription endpoints disabled")
	}

	// Keep the collection in sync with the structured-note drop directory.
	if watchDir := os.Getenv("NOTES_WATCH_DIR"); watchDir != "" {
		watcher := services.NewNoteWatcherService(indexer)
		go watcher.ScanAndIndexDirectory(context.Background(), watchDir)
		go watcher.WatchDirectory(context.Background(), watchDir)
	}

	ragController := controller.NewRAGController(indexer, chatService, ocrService, parserService)

	router := gin.Default()

	// CORS for local frontends and curl-based testing.
	router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "healthy",
			"service": "Keep Notes RAG API",
			"version": "1.0.0",
		})
	})

	apiV1 := router.Group("/api/v1")
	{
		apiV1.POST("/notes", ragController.IndexNote)       // index a structured note
		apiV1.GET("/notes", ragController.ListNotes)        // enumerate indexed notes
		apiV1.POST("/search", ragController.Search)         // semantic search + RAG context
		apiV1.GET("/stats", ragController.Stats)            // collection statistics
		apiV1.POST("/chat", ragController.Chat)             // RAG chat turn
		apiV1.POST("/transcribe", ragController.Transcribe) // image -> structured note
	}

	port := envOr("PORT", "8080")
	log.Printf("Keep notes backend starting on http://localhost:%s", port)
	log.Printf("Health check available at: http://localhost:%s/health", port)

	if err := router.Run(":" + port); err != nil {
		log.Fatalf("FATAL: Failed to start server: %v", err)
	}
}

// openStore picks the collection backend: the embedded bolt store by
// default, or a Chroma server when VECTOR_STORE=chroma.
func openStore(collectionName, persistDir string) (store.VectorStore, error) {
	if envOr("VECTOR_STORE", "bolt") == "chroma" {
		log.Printf("Using Chroma-backed collection '%s'", collectionName)
		return store.NewChromaStore(
			context.Background(),
			envOr("CHROMA_URL", "http://localhost:8000"),
			collectionName,
		)
	}
	log.Printf("Using embedded collection '%s' at %s", collectionName, persistDir)
	return store.NewBoltStore(collectionName, persistDir)
}

func envOr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
