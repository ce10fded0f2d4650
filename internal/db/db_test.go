package db

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrwolf/journal-server/internal/models"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(filepath.Join(t.TempDir(), "journal-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testEntry(id, actor, mood string, date time.Time) *models.JournalEntry {
	text := "A day worth writing about for " + actor
	return &models.JournalEntry{
		ID:        id,
		Actor:     actor,
		Date:      date,
		Text:      text,
		WordCount: models.CountWords(text),
		Analysis: models.AnalysisResult{
			Mood:           mood,
			SentimentScore: 0.4,
			Suggestions: []models.Suggestion{
				models.PlainSuggestion("Take a walk"),
				models.StructuredSuggestion(models.SuggestionSocial, "Call a friend", "", models.TimeframeToday),
			},
			AISource: models.SourceFallback,
		},
		CreatedAt: date,
		UpdatedAt: date,
	}
}

var baseDate = time.Date(2025, 3, 15, 9, 30, 0, 0, time.UTC)

func TestSaveAndGetEntry(t *testing.T) {
	db := setupTestDB(t)

	entry := testEntry("e1", "ana", models.MoodCalm, baseDate)
	require.NoError(t, db.SaveEntry(entry))

	got, err := db.GetEntry("ana", "e1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, entry.ID, got.ID)
	assert.Equal(t, entry.Text, got.Text)
	assert.Equal(t, entry.WordCount, got.WordCount)
	assert.True(t, entry.Date.Equal(got.Date))
	assert.Equal(t, models.MoodCalm, got.Analysis.Mood)
	assert.Equal(t, entry.Analysis.Suggestions, got.Analysis.Suggestions)

	// another actor cannot see it
	other, err := db.GetEntry("ben", "e1")
	require.NoError(t, err)
	assert.Nil(t, other)
}

func TestGetEntryMissing(t *testing.T) {
	db := setupTestDB(t)

	got, err := db.GetEntry("ana", "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestListEntriesFilters(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.SaveEntry(testEntry("e1", "ana", models.MoodCalm, baseDate.AddDate(0, 0, -3))))
	require.NoError(t, db.SaveEntry(testEntry("e2", "ana", models.MoodHappy, baseDate.AddDate(0, 0, -2))))
	require.NoError(t, db.SaveEntry(testEntry("e3", "ana", models.MoodCalm, baseDate.AddDate(0, 0, -1))))
	require.NoError(t, db.SaveEntry(testEntry("e4", "ana", models.MoodSad, baseDate)))
	require.NoError(t, db.SaveEntry(testEntry("x1", "ben", models.MoodCalm, baseDate)))

	all, err := db.ListEntries("ana", EntryFilter{})
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, []string{"e4", "e3", "e2", "e1"}, entryIDs(all))

	calm, err := db.ListEntries("ana", EntryFilter{Mood: models.MoodCalm})
	require.NoError(t, err)
	assert.Equal(t, []string{"e3", "e1"}, entryIDs(calm))

	start := baseDate.AddDate(0, 0, -2)
	end := baseDate.AddDate(0, 0, -1)
	ranged, err := db.ListEntries("ana", EntryFilter{Start: &start, End: &end})
	require.NoError(t, err)
	assert.Equal(t, []string{"e3", "e2"}, entryIDs(ranged))

	page, err := db.ListEntries("ana", EntryFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"e2", "e1"}, entryIDs(page))

	n, err := db.CountEntries("ana", EntryFilter{Mood: models.MoodCalm, Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	none, err := db.ListEntries("carl", EntryFilter{})
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestUpdateEntry(t *testing.T) {
	db := setupTestDB(t)

	entry := testEntry("e1", "ana", models.MoodCalm, baseDate)
	require.NoError(t, db.SaveEntry(entry))

	entry.Text = "Rewritten with a different feeling entirely"
	entry.WordCount = models.CountWords(entry.Text)
	entry.Analysis.Mood = models.MoodStressed
	entry.UpdatedAt = baseDate.Add(time.Hour)

	ok, err := db.UpdateEntry(entry)
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := db.GetEntry("ana", "e1")
	require.NoError(t, err)
	assert.Equal(t, entry.Text, got.Text)
	assert.Equal(t, models.MoodStressed, got.Analysis.Mood)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))

	// mood column follows the analysis
	stressed, err := db.CountEntries("ana", EntryFilter{Mood: models.MoodStressed})
	require.NoError(t, err)
	assert.Equal(t, 1, stressed)

	entry.Actor = "ben"
	ok, err = db.UpdateEntry(entry)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDeleteEntry(t *testing.T) {
	db := setupTestDB(t)
	require.NoError(t, db.SaveEntry(testEntry("e1", "ana", models.MoodCalm, baseDate)))

	ok, err := db.DeleteEntry("ben", "e1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = db.DeleteEntry("ana", "e1")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := db.GetEntry("ana", "e1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestReflections(t *testing.T) {
	db := setupTestDB(t)

	require.NoError(t, db.SaveReflection(&models.Reflection{ID: "r1", Actor: "ana", Range: "week", ForDate: "2025-03-09", Text: "first week"}))
	require.NoError(t, db.SaveReflection(&models.Reflection{ID: "r2", Actor: "ana", Range: "week", ForDate: "2025-03-16", Text: "second week"}))
	require.NoError(t, db.SaveReflection(&models.Reflection{ID: "r3", Actor: "ben", Range: "week", ForDate: "2025-03-16", Text: "ben's week"}))

	// regenerating the same week replaces it
	require.NoError(t, db.SaveReflection(&models.Reflection{ID: "r4", Actor: "ana", Range: "week", ForDate: "2025-03-16", Text: "second week, again"}))

	generated := &models.Reflection{Actor: "ana", Range: "month", ForDate: "2025-03-01", Text: "a month"}
	require.NoError(t, db.SaveReflection(generated))
	assert.NotEmpty(t, generated.ID)

	got, err := db.GetReflections("ana", 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "r4", got[0].ID)
	assert.Equal(t, "second week, again", got[0].Text)
	assert.Equal(t, "2025-03-09", got[1].ForDate)
	assert.Equal(t, generated.ID, got[2].ID)
	assert.NotEmpty(t, got[0].CreatedAt)

	limited, err := db.GetReflections("ana", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestJobRuns(t *testing.T) {
	db := setupTestDB(t)

	run, err := db.GetLastJobRun("ana", "weekly_reflection")
	require.NoError(t, err)
	assert.Nil(t, run)

	id, err := db.StartJobRun("ana", "weekly_reflection")
	require.NoError(t, err)

	run, err = db.GetLastJobRun("ana", "weekly_reflection")
	require.NoError(t, err)
	require.NotNil(t, run)
	assert.Equal(t, "running", run.Status)
	assert.Nil(t, run.CompletedAt)

	require.NoError(t, db.CompleteJobRun(id, "llm down"))

	run, err = db.GetLastJobRun("ana", "weekly_reflection")
	require.NoError(t, err)
	assert.Equal(t, "failed", run.Status)
	assert.Equal(t, "llm down", run.ErrorMessage)
	require.NotNil(t, run.CompletedAt)

	id, err = db.StartJobRun("ana", "weekly_reflection")
	require.NoError(t, err)
	require.NoError(t, db.CompleteJobRun(id, ""))

	run, err = db.GetLastJobRun("ana", "weekly_reflection")
	require.NoError(t, err)
	assert.Equal(t, "completed", run.Status)
}

func TestPing(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.Ping())
}

func entryIDs(entries []models.JournalEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ID)
	}
	return ids
}
