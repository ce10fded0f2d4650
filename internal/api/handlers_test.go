package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mrwolf/journal-server/internal/analysis"
	"github.com/mrwolf/journal-server/internal/config"
	"github.com/mrwolf/journal-server/internal/db"
	"github.com/mrwolf/journal-server/internal/insights"
	"github.com/mrwolf/journal-server/internal/models"
)

const (
	anaToken = "test_ana_token"
	benToken = "test_ben_token"
)

type fakeReflections struct {
	err   error
	calls []string
}

func (f *fakeReflections) GenerateWeeklyNow(ctx context.Context, actor string) (*models.Reflection, error) {
	f.calls = append(f.calls, actor)
	if f.err != nil {
		return nil, f.err
	}
	return &models.Reflection{ID: "r1", Actor: actor, Range: "week", ForDate: "2025-03-16", Text: "a quiet week"}, nil
}

type testServer struct {
	*httptest.Server
	db *db.DB
}

func setupTestServer(t *testing.T, rateLimit int, reflections ReflectionGenerator) *testServer {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	cfg := &config.Config{
		Port:      "0",
		DBPath:    dbPath,
		Timezone:  "UTC",
		RateLimit: rateLimit,
		Tokens: map[string]string{
			anaToken: "ana",
			benToken: "ben",
		},
	}

	database, err := db.Open(dbPath)
	require.NoError(t, err)

	logger := zaptest.NewLogger(t)
	analyzer := analysis.NewAnalyzer(nil, time.Second, logger)

	server := httptest.NewServer(NewRouter(cfg, database, analyzer, nil, reflections, logger))
	t.Cleanup(func() {
		server.Close()
		database.Close()
	})

	return &testServer{Server: server, db: database}
}

func (s *testServer) do(t *testing.T, method, path, token, body string) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, s.URL+path, reader)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func (s *testServer) createEntry(t *testing.T, token, body string) models.JournalEntry {
	t.Helper()
	resp := s.do(t, http.MethodPost, "/api/v1/journal", token, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decode[models.JournalEntry](t, resp)
}

func TestHealthEndpoint(t *testing.T) {
	s := setupTestServer(t, 60, nil)

	resp := s.do(t, http.MethodGet, "/health", "", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	body := decode[models.HealthResponse](t, resp)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "connected", body.Database)
	assert.Equal(t, "not configured", body.LLM)
	assert.Equal(t, models.SourceFallback, body.Analysis)
	assert.Equal(t, "1.0.0", body.Version)
}

func TestAuthRequired(t *testing.T) {
	s := setupTestServer(t, 60, nil)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic " + anaToken},
		{"unknown token", "Bearer nope"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, s.URL+"/api/v1/journal", nil)
			require.NoError(t, err)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			resp, err := http.DefaultClient.Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "UNAUTHORIZED", decode[ErrorResponse](t, resp).Code)
		})
	}
}

func TestCreateEntry(t *testing.T) {
	s := setupTestServer(t, 60, nil)

	entry := s.createEntry(t, anaToken, `{"text":"I felt stressed and overwhelmed by deadlines today","date":"2025-03-15"}`)

	assert.NotEmpty(t, entry.ID)
	assert.Equal(t, "ana", entry.Actor)
	assert.Equal(t, 8, entry.WordCount)
	assert.Equal(t, "2025-03-15", entry.Date.UTC().Format(dateLayout))
	assert.Equal(t, models.MoodStressed, entry.Analysis.Mood)
	assert.Equal(t, models.SourceFallback, entry.Analysis.AISource)

	stored, err := s.db.GetEntry("ana", entry.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, entry.Text, stored.Text)
}

func TestCreateEntryValidation(t *testing.T) {
	s := setupTestServer(t, 60, nil)

	tests := []struct {
		name string
		body string
		code string
	}{
		{"bad json", `{"text":`, "INVALID_BODY"},
		{"missing text", `{"text":"   "}`, "MISSING_TEXT"},
		{"too short", `{"text":"tiny note"}`, "TEXT_TOO_SHORT"},
		{"bad date", `{"text":"long enough to store","date":"15/03/2025"}`, "INVALID_DATE"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := s.do(t, http.MethodPost, "/api/v1/journal", anaToken, tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.code, decode[ErrorResponse](t, resp).Code)
		})
	}
}

func TestListEntries(t *testing.T) {
	s := setupTestServer(t, 60, nil)

	s.createEntry(t, anaToken, `{"text":"I felt stressed about the deadlines","date":"2025-03-10"}`)
	s.createEntry(t, anaToken, `{"text":"A calm and peaceful morning walk","date":"2025-03-12"}`)
	s.createEntry(t, anaToken, `{"text":"So happy and grateful for my friends","date":"2025-03-14"}`)
	s.createEntry(t, benToken, `{"text":"Ben writes about his own day here","date":"2025-03-14"}`)

	resp := s.do(t, http.MethodGet, "/api/v1/journal?limit=2", anaToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decode[models.JournalListResponse](t, resp)
	assert.Len(t, list.Entries, 2)
	assert.Equal(t, models.Pagination{TotalPages: 2, CurrentPage: 1, Total: 3, Limit: 2}, list.Pagination)
	assert.Equal(t, "2025-03-14", list.Entries[0].Date.UTC().Format(dateLayout))

	resp = s.do(t, http.MethodGet, "/api/v1/journal?startDate=2025-03-11&endDate=2025-03-12", anaToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	ranged := decode[models.JournalListResponse](t, resp)
	require.Len(t, ranged.Entries, 1)
	assert.Equal(t, "2025-03-12", ranged.Entries[0].Date.UTC().Format(dateLayout))

	resp = s.do(t, http.MethodGet, "/api/v1/journal?mood=stressed", anaToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, decode[models.JournalListResponse](t, resp).Pagination.Total)

	resp = s.do(t, http.MethodGet, "/api/v1/journal?mood=all", anaToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 3, decode[models.JournalListResponse](t, resp).Pagination.Total)
}

func TestListEntriesValidation(t *testing.T) {
	s := setupTestServer(t, 60, nil)

	tests := []struct {
		query string
		code  string
	}{
		{"limit=0", "INVALID_LIMIT"},
		{"limit=51", "INVALID_LIMIT"},
		{"page=0", "INVALID_PAGE"},
		{"page=abc", "INVALID_PAGE"},
		{"mood=elated", "INVALID_MOOD"},
		{"startDate=yesterday", "INVALID_DATE"},
	}

	for _, tc := range tests {
		t.Run(tc.query, func(t *testing.T) {
			resp := s.do(t, http.MethodGet, "/api/v1/journal?"+tc.query, anaToken, "")
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.code, decode[ErrorResponse](t, resp).Code)
		})
	}
}

func TestEntryLifecycle(t *testing.T) {
	s := setupTestServer(t, 60, nil)

	entry := s.createEntry(t, anaToken, `{"text":"A calm and peaceful morning walk"}`)
	path := "/api/v1/journal/" + entry.ID

	resp := s.do(t, http.MethodGet, path, anaToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, entry.ID, decode[models.JournalEntry](t, resp).ID)

	// entries are private to their actor
	resp = s.do(t, http.MethodGet, path, benToken, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.do(t, http.MethodPut, path, anaToken, `{"text":"Stressed and anxious about the exam tomorrow"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	updated := decode[models.JournalEntry](t, resp)
	assert.Equal(t, models.MoodStressed, updated.Analysis.Mood)
	assert.Equal(t, 7, updated.WordCount)

	resp = s.do(t, http.MethodPut, "/api/v1/journal/missing", anaToken, `{"text":"Nothing here to update at all"}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.do(t, http.MethodDelete, path, benToken, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = s.do(t, http.MethodDelete, path, anaToken, "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = s.do(t, http.MethodGet, path, anaToken, "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAnalyzeEndpoint(t *testing.T) {
	s := setupTestServer(t, 60, nil)

	resp := s.do(t, http.MethodPost, "/api/v1/analyze", anaToken, `{"text":"I felt stressed and overwhelmed by deadlines today"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	result := decode[models.AnalysisResult](t, resp)
	assert.Equal(t, models.MoodStressed, result.Mood)
	assert.Equal(t, models.SentimentNegative, result.Sentiment)

	resp = s.do(t, http.MethodPost, "/api/v1/analyze", anaToken, `{"text":"  "}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	list, err := s.db.ListEntries("ana", db.EntryFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestStatsEndpoint(t *testing.T) {
	s := setupTestServer(t, 60, nil)

	resp := s.do(t, http.MethodGet, "/api/v1/journal/stats", anaToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	empty := decode[insights.Report](t, resp)
	assert.Equal(t, 0, empty.TotalEntries)
	assert.Nil(t, empty.Insights)
	assert.Len(t, empty.MoodTrend, 7)
	assert.Equal(t, insights.RangeWeek, empty.Range)

	s.createEntry(t, anaToken, `{"text":"So happy and grateful for my friends"}`)
	s.createEntry(t, anaToken, `{"text":"A calm and peaceful evening at home"}`)

	resp = s.do(t, http.MethodGet, "/api/v1/journal/stats?range=month", anaToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	report := decode[insights.Report](t, resp)
	assert.Equal(t, 2, report.TotalEntries)
	assert.Equal(t, 1, report.CurrentStreak)
	assert.NotNil(t, report.Insights)
	assert.Equal(t, insights.RangeMonth, report.Range)

	resp = s.do(t, http.MethodGet, "/api/v1/journal/stats?range=decade", anaToken, "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_RANGE", decode[ErrorResponse](t, resp).Code)
}

func TestExportEndpoint(t *testing.T) {
	s := setupTestServer(t, 60, nil)

	s.createEntry(t, anaToken, `{"text":"First entry for the export test"}`)
	s.createEntry(t, anaToken, `{"text":"Second entry for the export test"}`)

	resp := s.do(t, http.MethodGet, "/api/v1/journal/export", anaToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), "journal-export.json")

	export := decode[models.ExportResponse](t, resp)
	assert.Equal(t, 2, export.Count)
	assert.Len(t, export.Entries, 2)
	_, err := time.Parse(time.RFC3339, export.ExportedAt)
	assert.NoError(t, err)
}

func TestReflectionsEndpoint(t *testing.T) {
	s := setupTestServer(t, 60, nil)

	require.NoError(t, s.db.SaveReflection(&models.Reflection{Actor: "ana", Range: "week", ForDate: "2025-03-16", Text: "calm week"}))

	resp := s.do(t, http.MethodGet, "/api/v1/reflections", anaToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	got := decode[models.ReflectionsResponse](t, resp)
	require.Len(t, got.Reflections, 1)
	assert.Equal(t, "calm week", got.Reflections[0].Text)

	resp = s.do(t, http.MethodGet, "/api/v1/reflections", benToken, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, decode[models.ReflectionsResponse](t, resp).Reflections)

	// no generator wired
	resp = s.do(t, http.MethodPost, "/api/v1/reflections/generate", anaToken, "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestGenerateReflection(t *testing.T) {
	gen := &fakeReflections{}
	s := setupTestServer(t, 60, gen)

	resp := s.do(t, http.MethodPost, "/api/v1/reflections/generate", benToken, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "ben", decode[models.Reflection](t, resp).Actor)
	assert.Equal(t, []string{"ben"}, gen.calls)

	gen.err = errors.New("boom")
	resp = s.do(t, http.MethodPost, "/api/v1/reflections/generate", benToken, "")
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestRateLimit(t *testing.T) {
	s := setupTestServer(t, 2, nil)

	for i := 0; i < 2; i++ {
		resp := s.do(t, http.MethodGet, "/api/v1/reflections", anaToken, "")
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp := s.do(t, http.MethodGet, "/api/v1/reflections", anaToken, "")
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "60", resp.Header.Get("Retry-After"))

	// limits are per actor
	resp = s.do(t, http.MethodGet, "/api/v1/reflections", benToken, "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(1, 50*time.Millisecond)

	assert.True(t, rl.Allow("ana"))
	assert.False(t, rl.Allow("ana"))
	assert.True(t, rl.Allow("ben"))

	time.Sleep(60 * time.Millisecond)
	assert.True(t, rl.Allow("ana"))
}

func TestParseDate(t *testing.T) {
	berlin, err := time.LoadLocation("Europe/Berlin")
	require.NoError(t, err)

	got, err := parseDate("2025-03-15", berlin, false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, berlin), got)

	got, err = parseDate("2025-03-15", berlin, true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 15, 23, 59, 59, 0, berlin), got)

	got, err = parseDate("2025-03-15T10:00:00Z", berlin, true)
	require.NoError(t, err)
	assert.True(t, got.Equal(time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)))

	_, err = parseDate("March 15", berlin, false)
	assert.Error(t, err)
}
