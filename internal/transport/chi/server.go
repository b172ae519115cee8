package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/docsense/retrieval/internal/domain"
	domdoc "github.com/docsense/retrieval/internal/domain/document"
	"github.com/docsense/retrieval/internal/domain/search/mode"
	"github.com/docsense/retrieval/internal/domain/search/request"
	documentuc "github.com/docsense/retrieval/internal/usecase/document"
	healthuc "github.com/docsense/retrieval/internal/usecase/health"
	searchuc "github.com/docsense/retrieval/internal/usecase/search"
)

const defaultRecentLimit = 20

// errorCode identifies an API error class in responses.
type errorCode string

const (
	codeBadRequest        errorCode = "bad_request"
	codeUnauthorized      errorCode = "unauthorized"
	codeValidationFailed  errorCode = "validation_failed"
	codeDocumentNotFound  errorCode = "document_not_found"
	codeDimensionMismatch errorCode = "vector_dim_mismatch"
	codeEmbeddingError    errorCode = "embedding_provider_error"
	codeInternalError     errorCode = "internal_error"
)

type errorResponse struct {
	Code    errorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the retrieval engine over HTTP: search to the query-serving
// side, document save/delete to the ingestion side.
type Server struct {
	documents     *documentuc.Service
	search        *searchuc.Service
	health        *healthuc.Service
	embedder      domain.Embedder
	pageLimits    request.Limits
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	documents *documentuc.Service,
	search *searchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		documents: documents,
		search:    search,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrDocumentNotFound, http.StatusNotFound, codeDocumentNotFound),
		sentinelHandler(domain.ErrDimensionMismatch, http.StatusBadRequest, codeDimensionMismatch),
		sentinelHandler(domain.ErrValidation, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrEmbeddingNotConfigured, http.StatusBadRequest, codeValidationFailed),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingError),
	}
	return s
}

// WithEmbedder attaches an optional query/document embedder. Without one,
// semantic requests must carry a precomputed vector.
func (s *Server) WithEmbedder(e domain.Embedder) *Server {
	s.embedder = e
	return s
}

// WithPageLimits overrides the default and maximum search page sizes.
func (s *Server) WithPageLimits(defaultSize, maxSize int) *Server {
	s.pageLimits = request.Limits{DefaultPageSize: defaultSize, MaxPageSize: maxSize}
	return s
}

// Routes mounts all API routes on r.
func (s *Server) Routes(r chi.Router) {
	r.Post("/search", s.handleSearch)
	r.Get("/documents", s.handleRecentDocuments)
	r.Post("/documents/batch", s.handleBatchSave)
	r.Put("/documents/{id}", s.handleSaveDocument)
	r.Get("/documents/{id}", s.handleGetDocument)
	r.Delete("/documents/{id}", s.handleDeleteDocument)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
}

// handleSearch handles POST /search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var dto searchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	filters, err := toFilterExpression(dto.Filters)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	m := mode.Mode(dto.SearchType)
	vector, err := s.resolveQueryVector(r, &dto, m)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	req, err := request.NewWithLimits(dto.Query, vector, m, filters, dto.Page, dto.PageSize, s.pageLimits)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	page, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPageDTO(page))
}

// resolveQueryVector derives the query vector through the embedder when the
// mode wants one and the request did not carry it. Hybrid without a vector
// and without an embedder stays valid: it degrades to full-text retrieval.
func (s *Server) resolveQueryVector(r *http.Request, dto *searchRequestDTO, m mode.Mode) ([]float32, error) {
	if len(dto.Vector) > 0 {
		return dto.Vector, nil
	}
	if m != mode.Semantic && m != mode.Hybrid && m != "" {
		return nil, nil
	}
	if s.embedder == nil || dto.Query == "" {
		return nil, nil
	}
	res, err := s.embedder.Embed(r.Context(), dto.Query)
	if err != nil {
		return nil, err
	}
	return res.Embedding, nil
}

// handleSaveDocument handles PUT /documents/{id}.
func (s *Server) handleSaveDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var dto documentDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}

	doc, err := s.documentFromDTO(r, id, dto)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	if err := s.documents.Save(r.Context(), doc); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"doc_id": id, "message": "document indexed"})
}

// handleBatchSave handles POST /documents/batch.
func (s *Server) handleBatchSave(w http.ResponseWriter, r *http.Request) {
	var dto batchRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return
	}
	if len(dto.Documents) == 0 {
		writeError(w, http.StatusBadRequest, codeValidationFailed, "documents is required")
		return
	}

	docs := make([]domdoc.Document, 0, len(dto.Documents))
	resp := batchResponseDTO{}
	for _, item := range dto.Documents {
		doc, err := s.documentFromDTO(r, item.ID, item.documentDTO)
		if err != nil {
			resp.Errors = append(resp.Errors, batchErrorDTO{DocID: item.ID, Message: err.Error()})
			continue
		}
		docs = append(docs, doc)
	}

	res := s.documents.SaveBatch(r.Context(), docs)
	resp.Saved = res.Saved
	for _, e := range res.Errors {
		resp.Errors = append(resp.Errors, batchErrorDTO{DocID: e.ID, Message: e.Err.Error()})
	}

	writeJSON(w, http.StatusOK, resp)
}

// documentFromDTO validates the payload into a domain document, deriving the
// embedding from the text when none was supplied and a provider is available.
func (s *Server) documentFromDTO(r *http.Request, id string, dto documentDTO) (domdoc.Document, error) {
	vector := dto.Vector
	if len(vector) == 0 && s.embedder != nil && dto.Text != "" {
		res, err := s.embedder.Embed(r.Context(), dto.Text)
		if err != nil {
			return domdoc.Document{}, err
		}
		vector = res.Embedding
	}

	doc, err := domdoc.New(id, dto.Filename, dto.Text, vector, dto.Tags, dto.Numerics)
	if err != nil {
		return domdoc.Document{}, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return doc, nil
}

// handleGetDocument handles GET /documents/{id}.
func (s *Server) handleGetDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	doc, err := s.documents.Get(r.Context(), id)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toDocumentResponseDTO(&doc, true))
}

// handleDeleteDocument handles DELETE /documents/{id}. Delete is idempotent:
// deleting an unknown id succeeds.
func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := s.documents.Delete(r.Context(), id); err != nil {
		s.handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"doc_id": id, "message": "document deleted"})
}

// handleRecentDocuments handles GET /documents?limit=N.
func (s *Server) handleRecentDocuments(w http.ResponseWriter, r *http.Request) {
	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			writeError(w, http.StatusBadRequest, codeValidationFailed, "limit must be a positive integer")
			return
		}
		limit = parsed
	}

	docs, err := s.documents.Recent(r.Context(), limit)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	dtos := make([]documentResponseDTO, len(docs))
	for i := range docs {
		dtos[i] = toDocumentResponseDTO(&docs[i], false)
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": dtos})
}

// handleHealth handles GET /healthz.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, err := s.health.Check(r.Context())
	if err != nil {
		s.logger.Error("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
		return
	}
	overall := "ok"
	if status.Degraded() {
		overall = "degraded"
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": overall, "engine": status})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code errorCode, message string) {
	writeJSON(w, status, errorResponse{Code: code, Message: message})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrValidation,
		domain.ErrDocumentNotFound,
		domain.ErrDimensionMismatch,
		domain.ErrEmbeddingNotConfigured,
		domain.ErrEmbeddingProviderError,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code errorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			s.logger.Warn("request rejected", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}
