package httpserver

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appanalysis "github.com/questionlab/qscore/internal/application/analysis"
	appkeys "github.com/questionlab/qscore/internal/application/keys"
	domain "github.com/questionlab/qscore/internal/domain/analysis"
	"github.com/questionlab/qscore/internal/domain/apikeys"
	"github.com/questionlab/qscore/internal/domain/auditlog"
	"github.com/questionlab/qscore/internal/middleware"
)

const maxUploadBytes = 5 << 20

// ArtifactStore keeps the raw document of a bulk upload.
type ArtifactStore interface {
	UploadBytes(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type Router struct {
	analysisSvc *appanalysis.Service
	keysSvc     *appkeys.Service
	logs        auditlog.Repository
	artifacts   ArtifactStore
	logger      *zap.Logger
}

// NewRouter wires the HTTP surface. artifacts may be nil when no object
// store is configured; bulk uploads then skip the artifact step.
func NewRouter(
	analysisSvc *appanalysis.Service,
	keysSvc *appkeys.Service,
	logs auditlog.Repository,
	artifacts ArtifactStore,
	limiter *middleware.RateLimiter,
	checkers map[string]middleware.HealthChecker,
	logger *zap.Logger,
) http.Handler {
	r := &Router{
		analysisSvc: analysisSvc,
		keysSvc:     keysSvc,
		logs:        logs,
		artifacts:   artifacts,
		logger:      logger,
	}

	mux := chi.NewRouter()
	mux.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.APIKeyHeader},
		MaxAge:         300,
	}))
	mux.Use(middleware.LoggingMiddleware(logger))
	mux.Use(middleware.MetricsMiddleware)

	mux.Get("/health", middleware.HealthHandler(checkers))
	mux.Get("/ready", middleware.ReadinessHandler)
	mux.Get("/metrics", middleware.MetricsHandler)

	mux.Route("/v1", func(rt chi.Router) {
		rt.Post("/register", r.wrap(r.handleRegister))

		rt.Group(func(pr chi.Router) {
			pr.Use(middleware.APIKeyAuth(keysSvc))
			pr.Use(middleware.RateLimitMiddleware(limiter))

			pr.Post("/analyze-question", r.wrap(r.handleAnalyze))
			pr.Post("/analyze-batch", r.wrap(r.handleAnalyzeBatch))
			pr.Post("/bulk-upload", r.wrap(r.handleBulkUpload))
			pr.Get("/analytics/summary", r.wrap(r.handleAnalyticsSummary))
			pr.Get("/analytics/latest", r.wrap(r.handleAnalyticsLatest))
		})
	})

	return mux
}

type handlerFunc func(http.ResponseWriter, *http.Request) error

// httpError carries an explicit status through the handler chain.
type httpError struct {
	status int
	msg    string
}

func (e *httpError) Error() string { return e.msg }

func badRequest(format string, args ...any) error {
	return &httpError{status: http.StatusBadRequest, msg: fmt.Sprintf(format, args...)}
}

// wrap maps handler errors onto the JSON error envelope. Upstream adapter
// failures never reach here; only validation, auth and internal errors do.
func (r *Router) wrap(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if err := h(w, req); err != nil {
			var herr *httpError
			switch {
			case errors.As(err, &herr):
				middleware.WriteError(w, herr.status, herr.msg)
			case errors.Is(err, apikeys.ErrNotFound):
				middleware.WriteError(w, http.StatusUnauthorized, "invalid api key")
			default:
				r.logger.Error("request failed", zap.String("path", req.URL.Path), zap.Error(err))
				middleware.WriteError(w, http.StatusInternalServerError, err.Error())
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

type analyzeBody struct {
	Question string `json:"question"`
	Subject  string `json:"subject"`
	Type     string `json:"type"`
}

func (b analyzeBody) toRequest() domain.AnalysisRequest {
	return domain.AnalysisRequest{
		Question: middleware.SanitizeString(b.Question),
		Subject:  middleware.SanitizeString(b.Subject),
		Type:     domain.ParseQuestionType(b.Type),
	}
}

// POST /v1/analyze-question
func (r *Router) handleAnalyze(w http.ResponseWriter, req *http.Request) error {
	var body analyzeBody
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if err := middleware.ValidateQuestion(body.Question); err != nil {
		return badRequest("%v", err)
	}
	if err := middleware.ValidateSubject(body.Subject); err != nil {
		return badRequest("%v", err)
	}

	result := r.analysisSvc.Analyze(req.Context(), middleware.APIKeyFromContext(req.Context()), body.toRequest())
	return writeJSON(w, http.StatusOK, map[string]any{"result": result})
}

// POST /v1/analyze-batch
func (r *Router) handleAnalyzeBatch(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Questions []analyzeBody `json:"questions"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}
	if err := middleware.ValidateBatchSize(len(body.Questions)); err != nil {
		return badRequest("%v", err)
	}

	reqs := make([]domain.AnalysisRequest, 0, len(body.Questions))
	for _, q := range body.Questions {
		reqs = append(reqs, q.toRequest())
	}

	items := r.analysisSvc.AnalyzeBatch(req.Context(), middleware.APIKeyFromContext(req.Context()), reqs)
	return writeJSON(w, http.StatusOK, map[string]any{
		"count":   len(items),
		"results": items,
	})
}

// POST /v1/bulk-upload
// Multipart CSV with a question,subject,type header row. The raw file is
// kept as an artifact so the batch can be audited later.
func (r *Router) handleBulkUpload(w http.ResponseWriter, req *http.Request) error {
	if err := req.ParseMultipartForm(maxUploadBytes); err != nil {
		return badRequest("invalid multipart form: %v", err)
	}
	file, header, err := req.FormFile("file")
	if err != nil {
		return badRequest("missing file field")
	}
	defer file.Close()

	raw, err := io.ReadAll(io.LimitReader(file, maxUploadBytes))
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	reqs, err := parseCSV(raw)
	if err != nil {
		return badRequest("%v", err)
	}
	if err := middleware.ValidateBatchSize(len(reqs)); err != nil {
		return badRequest("%v", err)
	}

	items := r.analysisSvc.AnalyzeBatch(req.Context(), middleware.APIKeyFromContext(req.Context()), reqs)

	artifactURL := ""
	if r.artifacts != nil {
		key := fmt.Sprintf("uploads/%s-%s", uuid.NewString(), sanitizeFilename(header.Filename))
		url, uerr := r.artifacts.UploadBytes(req.Context(), key, raw, "text/csv")
		if uerr != nil {
			// The batch is already scored; losing the artifact is not worth a 500.
			r.logger.Warn("bulk upload artifact store failed", zap.Error(uerr))
		} else {
			artifactURL = url
		}
	}

	return writeJSON(w, http.StatusOK, map[string]any{
		"count":        len(items),
		"artifact_url": artifactURL,
		"results":      items,
	})
}

// POST /v1/register
func (r *Router) handleRegister(w http.ResponseWriter, req *http.Request) error {
	var body struct {
		Institute string `json:"institute"`
		Email     string `json:"email"`
		Provider  string `json:"provider"`
	}
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		return badRequest("invalid request body: %v", err)
	}

	rec, err := r.keysSvc.Register(req.Context(), body.Institute, body.Email, body.Provider)
	if err != nil {
		return badRequest("%v", err)
	}
	return writeJSON(w, http.StatusCreated, rec)
}

// GET /v1/analytics/summary?days=7
func (r *Router) handleAnalyticsSummary(w http.ResponseWriter, req *http.Request) error {
	days, _ := strconv.Atoi(req.URL.Query().Get("days"))
	summary, err := r.logs.Summary(req.Context(), middleware.ValidateDays(days))
	if err != nil {
		return err
	}
	return writeJSON(w, http.StatusOK, summary)
}

// GET /v1/analytics/latest?limit=20
func (r *Router) handleAnalyticsLatest(w http.ResponseWriter, req *http.Request) error {
	limit, _ := strconv.Atoi(req.URL.Query().Get("limit"))
	entries, err := r.logs.Latest(req.Context(), middleware.ValidateLimit(limit))
	if err != nil {
		return err
	}
	if entries == nil {
		entries = []*auditlog.Entry{}
	}
	return writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

// parseCSV turns an uploaded document into analysis requests. The header
// row names the columns; question is required, subject and type optional.
func parseCSV(raw []byte) ([]domain.AnalysisRequest, error) {
	reader := csv.NewReader(strings.NewReader(string(raw)))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("invalid CSV: %v", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("CSV must have a header row and at least one question row")
	}

	qCol, sCol, tCol := -1, -1, -1
	for i, name := range records[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "question":
			qCol = i
		case "subject":
			sCol = i
		case "type":
			tCol = i
		}
	}
	if qCol == -1 {
		return nil, fmt.Errorf("CSV header must contain a question column")
	}

	var reqs []domain.AnalysisRequest
	for _, row := range records[1:] {
		if qCol >= len(row) {
			continue
		}
		b := analyzeBody{Question: row[qCol]}
		if sCol != -1 && sCol < len(row) {
			b.Subject = row[sCol]
		}
		if tCol != -1 && tCol < len(row) {
			b.Type = row[tCol]
		}
		reqs = append(reqs, b.toRequest())
	}
	if len(reqs) == 0 {
		return nil, fmt.Errorf("CSV contains no question rows")
	}
	return reqs, nil
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" {
		name = "upload.csv"
	}
	return name
}

