package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/mrwolf/journal-server/internal/models"
)

const schema = `
-- Journal entries with their stored analysis
CREATE TABLE IF NOT EXISTS journal_entries (
    id TEXT PRIMARY KEY,
    actor TEXT NOT NULL,
    entry_date TEXT NOT NULL,
    text TEXT NOT NULL,
    word_count INTEGER NOT NULL,
    mood TEXT NOT NULL,
    sentiment_score REAL NOT NULL DEFAULT 0,
    analysis TEXT NOT NULL,          -- JSON AnalysisResult
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);

-- Generated weekly reflections
CREATE TABLE IF NOT EXISTS reflections (
    id TEXT PRIMARY KEY,
    actor TEXT NOT NULL,
    period TEXT NOT NULL,
    for_date TEXT NOT NULL,
    text TEXT NOT NULL,
    created_at TEXT NOT NULL,
    UNIQUE (actor, period, for_date)
);

-- Scheduler job tracking per actor
CREATE TABLE IF NOT EXISTS job_runs (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    actor TEXT NOT NULL,
    job_type TEXT NOT NULL,
    status TEXT NOT NULL,
    started_at TEXT NOT NULL,
    completed_at TEXT,
    error_message TEXT
);

CREATE INDEX IF NOT EXISTS idx_entries_actor_date ON journal_entries(actor, entry_date DESC);
CREATE INDEX IF NOT EXISTS idx_entries_actor_mood ON journal_entries(actor, mood);
CREATE INDEX IF NOT EXISTS idx_reflections_actor ON reflections(actor, created_at DESC);
CREATE INDEX IF NOT EXISTS idx_job_runs_actor ON job_runs(actor, job_type);
`

// timeLayout keeps stored timestamps fixed-width so they sort as text.
const timeLayout = "2006-01-02T15:04:05Z"

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return db, nil
}

func (db *DB) migrate() error {
	_, err := db.conn.Exec(schema)
	if err != nil {
		return fmt.Errorf("executing migration: %w", err)
	}
	return nil
}

func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks the database connection
func (db *DB) Ping() error {
	return db.conn.Ping()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// EntryFilter narrows entry queries. Zero values mean no constraint.
type EntryFilter struct {
	Mood   string
	Start  *time.Time
	End    *time.Time
	Limit  int
	Offset int
}

func (f EntryFilter) where(actor string) (string, []interface{}) {
	clauses := []string{"actor = ?"}
	args := []interface{}{actor}

	if f.Mood != "" {
		clauses = append(clauses, "mood = ?")
		args = append(args, f.Mood)
	}
	if f.Start != nil {
		clauses = append(clauses, "entry_date >= ?")
		args = append(args, formatTime(*f.Start))
	}
	if f.End != nil {
		clauses = append(clauses, "entry_date <= ?")
		args = append(args, formatTime(*f.End))
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// SaveEntry inserts a new journal entry
func (db *DB) SaveEntry(e *models.JournalEntry) error {
	analysis, err := json.Marshal(e.Analysis)
	if err != nil {
		return fmt.Errorf("encoding analysis: %w", err)
	}

	_, err = db.conn.Exec(`
		INSERT INTO journal_entries (id, actor, entry_date, text, word_count, mood, sentiment_score, analysis, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Actor, formatTime(e.Date), e.Text, e.WordCount, e.Analysis.Mood, e.Analysis.SentimentScore,
		string(analysis), formatTime(e.CreatedAt), formatTime(e.UpdatedAt))
	if err != nil {
		return fmt.Errorf("inserting entry: %w", err)
	}
	return nil
}

// UpdateEntry rewrites an entry's text, date and analysis
func (db *DB) UpdateEntry(e *models.JournalEntry) (bool, error) {
	analysis, err := json.Marshal(e.Analysis)
	if err != nil {
		return false, fmt.Errorf("encoding analysis: %w", err)
	}

	result, err := db.conn.Exec(`
		UPDATE journal_entries
		SET entry_date = ?, text = ?, word_count = ?, mood = ?, sentiment_score = ?, analysis = ?, updated_at = ?
		WHERE id = ? AND actor = ?
	`, formatTime(e.Date), e.Text, e.WordCount, e.Analysis.Mood, e.Analysis.SentimentScore,
		string(analysis), formatTime(e.UpdatedAt), e.ID, e.Actor)
	if err != nil {
		return false, fmt.Errorf("updating entry: %w", err)
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

// DeleteEntry removes an entry owned by actor
func (db *DB) DeleteEntry(actor, id string) (bool, error) {
	result, err := db.conn.Exec(`DELETE FROM journal_entries WHERE id = ? AND actor = ?`, id, actor)
	if err != nil {
		return false, fmt.Errorf("deleting entry: %w", err)
	}
	affected, err := result.RowsAffected()
	return affected > 0, err
}

// GetEntry returns a single entry, or nil if actor has no entry with that id
func (db *DB) GetEntry(actor, id string) (*models.JournalEntry, error) {
	row := db.conn.QueryRow(`
		SELECT id, actor, entry_date, text, word_count, analysis, created_at, updated_at
		FROM journal_entries
		WHERE id = ? AND actor = ?
	`, id, actor)

	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// ListEntries returns an actor's entries, most recent first
func (db *DB) ListEntries(actor string, f EntryFilter) ([]models.JournalEntry, error) {
	where, args := f.where(actor)
	query := `SELECT id, actor, entry_date, text, word_count, analysis, created_at, updated_at
		FROM journal_entries` + where + ` ORDER BY entry_date DESC, created_at DESC`
	if f.Limit > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, f.Limit, f.Offset)
	}

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	entries := []models.JournalEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// CountEntries counts an actor's entries matching the filter (Limit and Offset are ignored)
func (db *DB) CountEntries(actor string, f EntryFilter) (int, error) {
	where, args := f.where(actor)
	var n int
	if err := db.conn.QueryRow(`SELECT COUNT(*) FROM journal_entries`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting entries: %w", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (*models.JournalEntry, error) {
	var e models.JournalEntry
	var dateStr, analysis, createdStr, updatedStr string
	if err := s.Scan(&e.ID, &e.Actor, &dateStr, &e.Text, &e.WordCount, &analysis, &createdStr, &updatedStr); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(analysis), &e.Analysis); err != nil {
		return nil, fmt.Errorf("decoding analysis for entry %s: %w", e.ID, err)
	}
	e.Date = parseTime(dateStr)
	e.CreatedAt = parseTime(createdStr)
	e.UpdatedAt = parseTime(updatedStr)
	return &e, nil
}

// SaveReflection records a generated reflection, assigning its ID and
// CreatedAt. A second reflection for the same actor, period and date
// replaces the first.
func (db *DB) SaveReflection(r *models.Reflection) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	_, err := db.conn.Exec(`
		INSERT INTO reflections (id, actor, period, for_date, text, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(actor, period, for_date) DO UPDATE SET
			id = excluded.id,
			text = excluded.text,
			created_at = excluded.created_at
	`, r.ID, r.Actor, r.Range, r.ForDate, r.Text, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("saving reflection: %w", err)
	}
	return nil
}

// GetReflections returns an actor's reflections, newest first
func (db *DB) GetReflections(actor string, limit int) ([]models.Reflection, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.conn.Query(`
		SELECT id, actor, period, for_date, text, created_at
		FROM reflections
		WHERE actor = ?
		ORDER BY for_date DESC, created_at DESC
		LIMIT ?
	`, actor, limit)
	if err != nil {
		return nil, fmt.Errorf("querying reflections: %w", err)
	}
	defer rows.Close()

	reflections := []models.Reflection{}
	for rows.Next() {
		var r models.Reflection
		if err := rows.Scan(&r.ID, &r.Actor, &r.Range, &r.ForDate, &r.Text, &r.CreatedAt); err != nil {
			return nil, err
		}
		reflections = append(reflections, r)
	}
	return reflections, rows.Err()
}

// JobRun tracks a scheduler job execution
type JobRun struct {
	ID           int64
	Actor        string
	JobType      string
	Status       string
	StartedAt    time.Time
	CompletedAt  *time.Time
	ErrorMessage string
}

// StartJobRun records the start of a scheduler job
func (db *DB) StartJobRun(actor, jobType string) (int64, error) {
	result, err := db.conn.Exec(`
		INSERT INTO job_runs (actor, job_type, status, started_at)
		VALUES (?, ?, 'running', ?)
	`, actor, jobType, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return 0, err
	}
	return result.LastInsertId()
}

// CompleteJobRun marks a scheduler job as completed, or failed when errMsg is set
func (db *DB) CompleteJobRun(runID int64, errMsg string) error {
	status := "completed"
	if errMsg != "" {
		status = "failed"
	}
	_, err := db.conn.Exec(`
		UPDATE job_runs
		SET status = ?, completed_at = ?, error_message = ?
		WHERE id = ?
	`, status, time.Now().UTC().Format(time.RFC3339), errMsg, runID)
	return err
}

// GetLastJobRun returns the last run for an actor and job type
func (db *DB) GetLastJobRun(actor, jobType string) (*JobRun, error) {
	var run JobRun
	var startedStr string
	var completedStr, errMsg sql.NullString
	err := db.conn.QueryRow(`
		SELECT id, actor, job_type, status, started_at, completed_at, error_message
		FROM job_runs
		WHERE actor = ? AND job_type = ?
		ORDER BY id DESC
		LIMIT 1
	`, actor, jobType).Scan(&run.ID, &run.Actor, &run.JobType, &run.Status, &startedStr, &completedStr, &errMsg)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	run.StartedAt = parseTime(startedStr)
	if completedStr.Valid {
		t := parseTime(completedStr.String)
		run.CompletedAt = &t
	}
	if errMsg.Valid {
		run.ErrorMessage = errMsg.String
	}
	return &run, nil
}
