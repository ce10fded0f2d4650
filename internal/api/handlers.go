package api

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mrwolf/journal-server/internal/analysis"
	"github.com/mrwolf/journal-server/internal/config"
	"github.com/mrwolf/journal-server/internal/db"
	"github.com/mrwolf/journal-server/internal/insights"
	"github.com/mrwolf/journal-server/internal/llm"
	"github.com/mrwolf/journal-server/internal/models"
)

const (
	minTextLength   = 10
	defaultPageSize = 10
	maxPageSize     = 50
	version         = "1.0.0"
	dateLayout      = "2006-01-02"

	// allMoods as a mood filter means no filter
	allMoods = "all"
)

// ErrorResponse is the standard error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// ReflectionGenerator produces and stores a weekly reflection on demand.
type ReflectionGenerator interface {
	GenerateWeeklyNow(ctx context.Context, actor string) (*models.Reflection, error)
}

type Handlers struct {
	cfg           *config.Config
	db            *db.DB
	analyzer      *analysis.Analyzer
	llm           *llm.Client
	reflectionGen ReflectionGenerator
	logger        *zap.Logger
	loc           *time.Location
}

func NewHandlers(cfg *config.Config, database *db.DB, analyzer *analysis.Analyzer, llmClient *llm.Client, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		cfg:      cfg,
		db:       database,
		analyzer: analyzer,
		llm:      llmClient,
		logger:   logger.Named("api"),
		loc:      cfg.Location(),
	}
}

// SetReflectionGenerator enables POST /reflections/generate
func (h *Handlers) SetReflectionGenerator(g ReflectionGenerator) {
	h.reflectionGen = g
}

// Health handles GET /health
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	resp := models.HealthResponse{
		Status:   "ok",
		LLM:      h.checkLLM(r.Context()),
		Analysis: models.SourceFallback,
		Database: "connected",
		Version:  version,
	}
	if h.analyzer.RemoteEnabled() {
		resp.Analysis = models.SourceRemote
	}
	if err := h.db.Ping(); err != nil {
		resp.Status = "degraded"
		resp.Database = "error: " + err.Error()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) checkLLM(ctx context.Context) string {
	if !h.llm.Configured() {
		return "not configured"
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := h.llm.HealthCheck(ctx); err != nil {
		return "error: " + err.Error()
	}
	return "connected"
}

// CreateEntry handles POST /journal
func (h *Handlers) CreateEntry(w http.ResponseWriter, r *http.Request) {
	var req models.JournalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}
	if !validText(w, req.Text) {
		return
	}

	now := time.Now()
	date := now
	if req.Date != "" {
		parsed, err := parseDate(req.Date, h.loc, false)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format, use RFC3339 or YYYY-MM-DD", "INVALID_DATE")
			return
		}
		date = parsed
	}

	result, err := h.analyzer.Analyze(r.Context(), req.Text)
	if err != nil {
		h.analysisFailed(w, err)
		return
	}

	entry := &models.JournalEntry{
		ID:        uuid.NewString(),
		Actor:     GetActor(r),
		Date:      date,
		Text:      req.Text,
		WordCount: models.CountWords(req.Text),
		Analysis:  *result,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.db.SaveEntry(entry); err != nil {
		h.logger.Error("saving entry", zap.String("actor", entry.Actor), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to save entry", "DB_ERROR")
		return
	}

	h.logger.Info("entry created",
		zap.String("id", entry.ID),
		zap.String("actor", entry.Actor),
		zap.String("mood", entry.Analysis.Mood),
		zap.String("source", entry.Analysis.AISource),
	)
	writeJSON(w, http.StatusCreated, entry)
}

// ListEntries handles GET /journal
func (h *Handlers) ListEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := intParam(q.Get("page"), 1)
	if err != nil || page < 1 {
		writeError(w, http.StatusBadRequest, "page must be a positive integer", "INVALID_PAGE")
		return
	}
	limit, err := intParam(q.Get("limit"), defaultPageSize)
	if err != nil || limit < 1 || limit > maxPageSize {
		writeError(w, http.StatusBadRequest, "limit must be between 1 and 50", "INVALID_LIMIT")
		return
	}

	filter := db.EntryFilter{
		Mood:   q.Get("mood"),
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
	if filter.Mood == allMoods {
		filter.Mood = ""
	}
	if filter.Mood != "" && !models.IsMood(filter.Mood) {
		writeError(w, http.StatusBadRequest, "unknown mood", "INVALID_MOOD")
		return
	}
	if s := q.Get("startDate"); s != "" {
		start, err := parseDate(s, h.loc, false)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid startDate, use RFC3339 or YYYY-MM-DD", "INVALID_DATE")
			return
		}
		filter.Start = &start
	}
	if s := q.Get("endDate"); s != "" {
		end, err := parseDate(s, h.loc, true)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid endDate, use RFC3339 or YYYY-MM-DD", "INVALID_DATE")
			return
		}
		filter.End = &end
	}

	actor := GetActor(r)
	entries, err := h.db.ListEntries(actor, filter)
	if err != nil {
		h.logger.Error("listing entries", zap.String("actor", actor), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error", "DB_ERROR")
		return
	}
	total, err := h.db.CountEntries(actor, filter)
	if err != nil {
		h.logger.Error("counting entries", zap.String("actor", actor), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error", "DB_ERROR")
		return
	}

	writeJSON(w, http.StatusOK, models.JournalListResponse{
		Entries: entries,
		Pagination: models.Pagination{
			TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
			CurrentPage: page,
			Total:       total,
			Limit:       limit,
		},
	})
}

// GetEntry handles GET /journal/{id}
func (h *Handlers) GetEntry(w http.ResponseWriter, r *http.Request) {
	entry, ok := h.loadEntry(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

// UpdateEntry handles PUT /journal/{id}. The entry is re-analyzed only when
// its text changes.
func (h *Handlers) UpdateEntry(w http.ResponseWriter, r *http.Request) {
	var req models.JournalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}
	if !validText(w, req.Text) {
		return
	}

	entry, ok := h.loadEntry(w, r)
	if !ok {
		return
	}

	if req.Date != "" {
		parsed, err := parseDate(req.Date, h.loc, false)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid date format, use RFC3339 or YYYY-MM-DD", "INVALID_DATE")
			return
		}
		entry.Date = parsed
	}

	if req.Text != entry.Text {
		result, err := h.analyzer.Analyze(r.Context(), req.Text)
		if err != nil {
			h.analysisFailed(w, err)
			return
		}
		entry.Text = req.Text
		entry.WordCount = models.CountWords(req.Text)
		entry.Analysis = *result
	}
	entry.UpdatedAt = time.Now()

	updated, err := h.db.UpdateEntry(entry)
	if err != nil {
		h.logger.Error("updating entry", zap.String("id", entry.ID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to update entry", "DB_ERROR")
		return
	}
	if !updated {
		writeError(w, http.StatusNotFound, "entry not found", "NOT_FOUND")
		return
	}

	writeJSON(w, http.StatusOK, entry)
}

// DeleteEntry handles DELETE /journal/{id}
func (h *Handlers) DeleteEntry(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, err := h.db.DeleteEntry(GetActor(r), id)
	if err != nil {
		h.logger.Error("deleting entry", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to delete entry", "DB_ERROR")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "entry not found", "NOT_FOUND")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Analyze handles POST /analyze. Nothing is stored.
func (h *Handlers) Analyze(w http.ResponseWriter, r *http.Request) {
	var req models.AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", "INVALID_BODY")
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), req.Text)
	if err != nil {
		h.analysisFailed(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Stats handles GET /journal/stats?range=week|month|year
func (h *Handlers) Stats(w http.ResponseWriter, r *http.Request) {
	rng, err := insights.ParseRange(r.URL.Query().Get("range"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error(), "INVALID_RANGE")
		return
	}

	actor := GetActor(r)
	entries, err := h.db.ListEntries(actor, db.EntryFilter{})
	if err != nil {
		h.logger.Error("loading entries for stats", zap.String("actor", actor), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error", "DB_ERROR")
		return
	}

	report := insights.BuildReport(entries, time.Now().In(h.loc), rng)
	writeJSON(w, http.StatusOK, report)
}

// Export handles GET /journal/export
func (h *Handlers) Export(w http.ResponseWriter, r *http.Request) {
	actor := GetActor(r)
	entries, err := h.db.ListEntries(actor, db.EntryFilter{})
	if err != nil {
		h.logger.Error("exporting entries", zap.String("actor", actor), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error", "DB_ERROR")
		return
	}

	w.Header().Set("Content-Disposition", `attachment; filename="journal-export.json"`)
	writeJSON(w, http.StatusOK, models.ExportResponse{
		Entries:    entries,
		Count:      len(entries),
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
	})
}

// Reflections handles GET /reflections
func (h *Handlers) Reflections(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r.URL.Query().Get("limit"), 0)
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, "limit must be a positive integer", "INVALID_LIMIT")
		return
	}

	reflections, err := h.db.GetReflections(GetActor(r), limit)
	if err != nil {
		h.logger.Error("loading reflections", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error", "DB_ERROR")
		return
	}
	writeJSON(w, http.StatusOK, models.ReflectionsResponse{Reflections: reflections})
}

// GenerateReflection handles POST /reflections/generate
func (h *Handlers) GenerateReflection(w http.ResponseWriter, r *http.Request) {
	if h.reflectionGen == nil {
		writeError(w, http.StatusServiceUnavailable, "reflection generator not available", "NOT_AVAILABLE")
		return
	}

	reflection, err := h.reflectionGen.GenerateWeeklyNow(r.Context(), GetActor(r))
	if err != nil {
		h.logger.Error("generating reflection", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to generate reflection", "GENERATION_ERROR")
		return
	}
	writeJSON(w, http.StatusCreated, reflection)
}

func (h *Handlers) loadEntry(w http.ResponseWriter, r *http.Request) (*models.JournalEntry, bool) {
	id := chi.URLParam(r, "id")
	entry, err := h.db.GetEntry(GetActor(r), id)
	if err != nil {
		h.logger.Error("loading entry", zap.String("id", id), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "database error", "DB_ERROR")
		return nil, false
	}
	if entry == nil {
		writeError(w, http.StatusNotFound, "entry not found", "NOT_FOUND")
		return nil, false
	}
	return entry, true
}

func (h *Handlers) analysisFailed(w http.ResponseWriter, err error) {
	if errors.Is(err, analysis.ErrInvalidInput) {
		writeError(w, http.StatusBadRequest, "text is required", "MISSING_TEXT")
		return
	}
	h.logger.Error("analysis failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "analysis failed", "ANALYSIS_ERROR")
}

func validText(w http.ResponseWriter, text string) bool {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		writeError(w, http.StatusBadRequest, "text is required", "MISSING_TEXT")
		return false
	}
	if utf8.RuneCountInString(trimmed) < minTextLength {
		writeError(w, http.StatusBadRequest, "text must be at least 10 characters", "TEXT_TOO_SHORT")
		return false
	}
	return true
}

// parseDate accepts RFC3339 or YYYY-MM-DD in loc. With endOfDay set, a bare
// date means the last second of that day.
func parseDate(s string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dateLayout, s, loc)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Second)
	}
	return t, nil
}

func intParam(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	return strconv.Atoi(s)
}
