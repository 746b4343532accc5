// Package api exposes the document assistant over HTTP: document upload and
// ingestion, conversational querying, and structured extraction endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mvarghese/legaldoc-ai/internal/extract"
	"github.com/mvarghese/legaldoc-ai/internal/genai"
	"github.com/mvarghese/legaldoc-ai/internal/ingest"
	"github.com/mvarghese/legaldoc-ai/internal/session"
	"github.com/mvarghese/legaldoc-ai/internal/storage"
)

// maxUploadBytes bounds multipart uploads (32 MiB).
const maxUploadBytes = 32 << 20

// Ingestor runs the ingestion pipeline for an uploaded file.
type Ingestor interface {
	IngestFile(ctx context.Context, path string) (*ingest.Result, error)
}

// Answerer answers a query against one conversation's namespace.
type Answerer interface {
	AnswerQuery(ctx context.Context, query, namespace string) (string, error)
}

// Extractor produces structured document intelligence. *genai.Generator
// satisfies this.
type Extractor interface {
	GenerateSummary(ctx context.Context, content, language, department string) *genai.DocSummary
	PredictDepartments(ctx context.Context, content string) *genai.DepartmentPrediction
	ExtractLastDate(ctx context.Context, content string) *time.Time
}

// NamespaceDeleter removes every vector under a conversation's namespace.
type NamespaceDeleter interface {
	DeleteNamespace(ctx context.Context, namespace string) error
}

// Handlers holds the HTTP layer's dependencies.
type Handlers struct {
	ingestor  Ingestor
	answerer  Answerer
	extractor Extractor
	deleter   NamespaceDeleter
	sessions  *session.Store
	health    HealthChecker
	logger    *slog.Logger
}

// Config holds handler dependencies.
type Config struct {
	Ingestor  Ingestor
	Answerer  Answerer
	Extractor Extractor
	Deleter   NamespaceDeleter
	Sessions  *session.Store
	Health    HealthChecker
	Logger    *slog.Logger
}

// NewHandlers wires the HTTP layer.
func NewHandlers(cfg *Config) *Handlers {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		ingestor:  cfg.Ingestor,
		answerer:  cfg.Answerer,
		extractor: cfg.Extractor,
		deleter:   cfg.Deleter,
		sessions:  cfg.Sessions,
		health:    cfg.Health,
		logger:    logger,
	}
}

// Router returns the HTTP mux with all endpoints registered.
func (h *Handlers) Router() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", NewLandingHandler())
	mux.HandleFunc("GET /health", NewHealthHandler(h.health))
	mux.HandleFunc("POST /upload-and-build", h.handleUpload)
	mux.HandleFunc("POST /chat", h.handleChat)
	mux.HandleFunc("POST /summarize", h.handleSummarize)
	mux.HandleFunc("POST /predict-department", h.handlePredictDepartment)
	mux.HandleFunc("POST /extract-last-date", h.handleExtractLastDate)
	mux.HandleFunc("DELETE /conversations/{id}", h.handleDeleteConversation)
	return mux
}

// UploadResponse reports a successful ingestion.
type UploadResponse struct {
	Message            string `json:"message"`
	ConversationID     string `json:"conversation_id"`
	ChunksCount        int    `json:"chunks_count"`
	EmbeddingModel     string `json:"embedding_model"`
	EmbeddingDimension int    `json:"embedding_dimension"`
}

func (h *Handlers) handleUpload(w http.ResponseWriter, r *http.Request) {
	path, cleanup, err := h.saveUpload(r)
	if err != nil {
		h.writeError(w, err)
		return
	}
	defer cleanup()

	result, err := h.ingestor.IngestFile(r.Context(), path)
	if err != nil {
		h.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{
		Message:            fmt.Sprintf("Successfully processed %d chunks and built the vector index.", result.ChunkCount),
		ConversationID:     result.ConversationID,
		ChunksCount:        result.ChunkCount,
		EmbeddingModel:     "text-embedding-3-large",
		EmbeddingDimension: storage.VectorDimension,
	})
}

// ChatRequest is a conversational query against an ingested document.
type ChatRequest struct {
	ConversationID string `json:"conversation_id"`
	Query          string `json:"query"`
}

// ChatResponse carries the answer and the running chat history.
type ChatResponse struct {
	ConversationID string            `json:"conversation_id"`
	Answer         string            `json:"answer"`
	ChatHistory    []session.Message `json:"chat_history"`
}

func (h *Handlers) handleChat(w http.ResponseWriter, r *http.Request) {
	var req ChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ConversationID == "" {
		writeJSONError(w, http.StatusBadRequest, "missing conversation ID")
		return
	}
	if req.Query == "" {
		writeJSONError(w, http.StatusBadRequest, "missing query")
		return
	}

	h.sessions.Append(req.ConversationID, session.RoleUser, req.Query)

	answer, err := h.answerer.AnswerQuery(r.Context(), req.Query, req.ConversationID)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.sessions.Append(req.ConversationID, session.RoleAssistant, answer)

	writeJSON(w, http.StatusOK, ChatResponse{
		ConversationID: req.ConversationID,
		Answer:         answer,
		ChatHistory:    h.sessions.History(req.ConversationID),
	})
}

// SummaryResponse wraps the structured summary.
type SummaryResponse struct {
	Summary      *genai.DocSummary `json:"summary"`
	IsSummarized bool              `json:"is_summarized"`
}

func (h *Handlers) handleSummarize(w http.ResponseWriter, r *http.Request) {
	content, err := h.extractUpload(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	language := r.FormValue("language")
	if language == "" {
		language = "English"
	}
	department := r.FormValue("department")

	summary := h.extractor.GenerateSummary(r.Context(), content, language, department)
	writeJSON(w, http.StatusOK, SummaryResponse{Summary: summary, IsSummarized: true})
}

func (h *Handlers) handlePredictDepartment(w http.ResponseWriter, r *http.Request) {
	content, err := h.extractUpload(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	prediction := h.extractor.PredictDepartments(r.Context(), content)
	writeJSON(w, http.StatusOK, prediction)
}

// LastDateResponse carries the extracted final deadline, if any.
type LastDateResponse struct {
	LastDate *string `json:"last_date"`
}

func (h *Handlers) handleExtractLastDate(w http.ResponseWriter, r *http.Request) {
	content, err := h.extractUpload(r)
	if err != nil {
		h.writeError(w, err)
		return
	}

	var resp LastDateResponse
	if date := h.extractor.ExtractLastDate(r.Context(), content); date != nil {
		formatted := date.Format("2006-01-02")
		resp.LastDate = &formatted
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeJSONError(w, http.StatusBadRequest, "missing conversation ID")
		return
	}

	if err := h.deleter.DeleteNamespace(r.Context(), id); err != nil {
		h.writeError(w, err)
		return
	}
	h.sessions.Delete(id)

	w.WriteHeader(http.StatusNoContent)
}

// saveUpload writes the multipart "file" part to a temp file, validating the
// extension before touching disk. The cleanup func removes the file.
func (h *Handlers) saveUpload(r *http.Request) (string, func(), error) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		return "", nil, fmt.Errorf("%w: invalid multipart form", errBadRequest)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return "", nil, fmt.Errorf("%w: missing file field", errBadRequest)
	}
	defer file.Close()

	if !extract.Supported(header.Filename) {
		return "", nil, fmt.Errorf("%w: %s", extract.ErrUnsupportedType, filepath.Ext(header.Filename))
	}

	dir, err := os.MkdirTemp("", "upload-*")
	if err != nil {
		return "", nil, fmt.Errorf("create temp dir: %w", err)
	}
	cleanup := func() { os.RemoveAll(dir) }

	path := filepath.Join(dir, filepath.Base(header.Filename))
	dst, err := os.Create(path)
	if err != nil {
		cleanup()
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, file); err != nil {
		cleanup()
		return "", nil, fmt.Errorf("save upload: %w", err)
	}

	return path, cleanup, nil
}

// extractUpload saves the upload and extracts its text, enforcing the
// non-empty content rule shared by the extraction endpoints.
func (h *Handlers) extractUpload(r *http.Request) (string, error) {
	path, cleanup, err := h.saveUpload(r)
	if err != nil {
		return "", err
	}
	defer cleanup()

	content, err := extract.FromFile(path)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: could not extract text from the document", errBadRequest)
	}
	return content, nil
}

var errBadRequest = errors.New("bad request")

// writeError maps the error taxonomy onto HTTP statuses: validation errors
// are 400, provider rate limits 429, everything else 500.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, extract.ErrUnsupportedType),
		errors.Is(err, ingest.ErrEmptyDocument):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	case isRateLimited(err):
		writeJSONError(w, http.StatusTooManyRequests, err.Error())
	default:
		h.logger.Error("Request failed", "error", err)
		writeJSONError(w, http.StatusInternalServerError, err.Error())
	}
}

func isRateLimited(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "quota") || strings.Contains(msg, "rate limit")
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeJSONError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
