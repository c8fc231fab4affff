package controller

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thiago-gmacedo/keep/models"
	"github.com/thiago-gmacedo/keep/services"
)

const defaultSearchResults = 5

// RAGController handles the HTTP requests for the note index. It depends on
// the service layer for the actual business logic.
type RAGController struct {
	indexer services.IndexerService
	chat    services.ChatService
	ocr     services.OCRService
	parser  services.ParserService
}

// NewRAGController creates a new controller; called from main.go to inject
// the service dependencies. Chat, OCR and parser may be nil when no Gemini
// key is configured, in which case their endpoints report 503.
func NewRAGController(indexer services.IndexerService, chat services.ChatService, ocr services.OCRService, parser services.ParserService) *RAGController {
	return &RAGController{
		indexer: indexer,
		chat:    chat,
		ocr:     ocr,
		parser:  parser,
	}
}

// IndexNote is the handler for POST /api/v1/notes: index one structured note.
func (c *RAGController) IndexNote(ctx *gin.Context) {
	var note models.Note
	if err := ctx.ShouldBindJSON(&note); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	if !c.indexer.IndexNote(ctx.Request.Context(), note) {
		// Indexing never raises; a false return means empty content or an
		// unavailable collaborator, both already logged by the service.
		ctx.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Note could not be indexed"})
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "Note indexed successfully",
		"id":      services.DeriveID(note),
	})
}

// ListNotes is the handler for GET /api/v1/notes.
func (c *RAGController) ListNotes(ctx *gin.Context) {
	notes := c.indexer.ListAllNotes(ctx.Request.Context())
	ctx.JSON(http.StatusOK, models.ListNotesResponse{
		Count: len(notes),
		Notes: notes,
	})
}

// Search is the handler for POST /api/v1/search: semantic search plus the
// RAG-ready context assembled from the hits.
func (c *RAGController) Search(ctx *gin.Context) {
	var req models.SearchRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}
	if req.NResults <= 0 {
		req.NResults = defaultSearchResults
	}

	results := c.indexer.SearchSimilarNotes(ctx.Request.Context(), req.Query, req.NResults)
	ctx.JSON(http.StatusOK, models.SearchResponse{
		Count:   len(results),
		Results: results,
		Context: services.FormatForRAG(results, 1500),
	})
}

// Stats is the handler for GET /api/v1/stats.
func (c *RAGController) Stats(ctx *gin.Context) {
	stats := c.indexer.GetCollectionStats(ctx.Request.Context())
	if _, failed := stats["error"]; failed {
		ctx.JSON(http.StatusServiceUnavailable, stats)
		return
	}
	ctx.JSON(http.StatusOK, stats)
}

// Chat is the handler for POST /api/v1/chat: one RAG conversation turn.
func (c *RAGController) Chat(ctx *gin.Context) {
	if c.chat == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Chat is not configured (missing GEMINI_API_KEY)"})
		return
	}

	var req models.ChatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	response, err := c.chat.Chat(ctx.Request.Context(), req)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate AI response"})
		return
	}
	ctx.JSON(http.StatusOK, response)
}

// Transcribe is the handler for POST /api/v1/transcribe: multipart image ->
// transcription -> structured note, optionally indexed when the "index"
// form field is "true".
func (c *RAGController) Transcribe(ctx *gin.Context) {
	if c.ocr == nil || c.parser == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "Transcription is not configured (missing GEMINI_API_KEY)"})
		return
	}

	fileHeader, err := ctx.FormFile("image")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Missing 'image' form file: " + err.Error()})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Could not open uploaded file"})
		return
	}
	defer file.Close()

	image, err := io.ReadAll(file)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Could not read uploaded file"})
		return
	}

	text, err := c.ocr.TranscribeHandwriting(ctx.Request.Context(), image, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to transcribe image"})
		return
	}

	resp := models.TranscribeResponse{Text: text}
	note, err := c.parser.ParseText(ctx.Request.Context(), text)
	if err == nil {
		resp.Note = &note
		if ctx.PostForm("index") == "true" {
			resp.Indexed = c.indexer.IndexNote(ctx.Request.Context(), note)
		}
	}
	ctx.JSON(http.StatusOK, resp)
}
