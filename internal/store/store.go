// Package store handles SQLite persistence.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sbsidd17/type-scribe-zen/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for texts and session results.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS texts (
			id INTEGER PRIMARY KEY,
			title TEXT NOT NULL,
			body TEXT NOT NULL,
			word_count INTEGER NOT NULL,
			char_count INTEGER NOT NULL,
			created_at TEXT NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS results (
			id INTEGER PRIMARY KEY,
			text_id INTEGER NOT NULL,
			username TEXT NOT NULL,
			mode TEXT NOT NULL,
			started_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			net_wpm INTEGER NOT NULL,
			gross_wpm INTEGER NOT NULL,
			accuracy_pct REAL NOT NULL,
			keystroke_accuracy_pct REAL NOT NULL,
			total_words INTEGER NOT NULL,
			typed_words INTEGER NOT NULL,
			correct_words INTEGER NOT NULL,
			incorrect_words INTEGER NOT NULL,
			error_words INTEGER NOT NULL,
			total_keystrokes INTEGER NOT NULL,
			correct_keystrokes INTEGER NOT NULL,
			elapsed_seconds INTEGER NOT NULL,
			total_time_seconds INTEGER NOT NULL,
			qualifies INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_results_ended_at ON results(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_results_username ON results(username);`,
		`CREATE INDEX IF NOT EXISTS idx_results_leaderboard ON results(qualifies, net_wpm);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertText stores a reference passage and returns its ID.
func (s *Store) InsertText(ctx context.Context, text model.Text) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO texts (title, body, word_count, char_count, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		text.Title,
		text.Body,
		text.WordCount,
		text.CharCount,
		text.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetText returns one passage by ID.
func (s *Store) GetText(ctx context.Context, id int64) (model.Text, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, body, word_count, char_count, created_at FROM texts WHERE id = ?`, id)
	return scanText(row)
}

// RandomText returns a uniformly random passage.
func (s *Store) RandomText(ctx context.Context) (model.Text, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, body, word_count, char_count, created_at FROM texts ORDER BY RANDOM() LIMIT 1`)
	return scanText(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanText(row rowScanner) (model.Text, error) {
	var text model.Text
	var createdAt string
	if err := row.Scan(&text.ID, &text.Title, &text.Body, &text.WordCount, &text.CharCount, &createdAt); err != nil {
		return model.Text{}, err
	}
	parsed, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return model.Text{}, err
	}
	text.CreatedAt = parsed
	return text, nil
}

// ListTexts returns all passages, newest first.
func (s *Store) ListTexts(ctx context.Context) ([]model.Text, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, body, word_count, char_count, created_at FROM texts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var texts []model.Text
	for rows.Next() {
		text, err := scanText(rows)
		if err != nil {
			return nil, err
		}
		texts = append(texts, text)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return texts, nil
}

// InsertResult stores a finished session outcome.
func (s *Store) InsertResult(ctx context.Context, rec model.ResultRecord) (int64, error) {
	qualifies := 0
	if rec.Results.QualifiesForLeaderboard {
		qualifies = 1
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO results (text_id, username, mode, started_at, ended_at,
			net_wpm, gross_wpm, accuracy_pct, keystroke_accuracy_pct,
			total_words, typed_words, correct_words, incorrect_words, error_words,
			total_keystrokes, correct_keystrokes, elapsed_seconds, total_time_seconds, qualifies)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.TextID,
		rec.Username,
		string(rec.Mode),
		rec.StartedAt.Format(time.RFC3339Nano),
		rec.EndedAt.Format(time.RFC3339Nano),
		rec.Results.NetWPM,
		rec.Results.GrossWPM,
		rec.Results.AccuracyPercent,
		rec.Results.KeystrokeAccuracyPercent,
		rec.Results.TotalWords,
		rec.Results.TypedWordCount,
		rec.Results.CorrectWordCount,
		rec.Results.IncorrectWordCount,
		rec.Results.ErrorWordCount,
		rec.Results.TotalKeystrokes,
		rec.Results.CorrectKeystrokes,
		rec.Results.ElapsedSeconds,
		rec.Results.TotalTimeSeconds,
		qualifies,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListResults returns stored results matching the filter, oldest first.
func (s *Store) ListResults(ctx context.Context, filter model.ResultFilter) ([]model.ResultRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Username != "" {
		clauses = append(clauses, "username = ?")
		args = append(args, filter.Username)
	}
	if filter.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, filter.Since.Format(time.RFC3339Nano))
	}
	query := fmt.Sprintf(`SELECT id, text_id, username, mode, started_at, ended_at,
			net_wpm, gross_wpm, accuracy_pct, keystroke_accuracy_pct,
			total_words, typed_words, correct_words, incorrect_words, error_words,
			total_keystrokes, correct_keystrokes, elapsed_seconds, total_time_seconds, qualifies
		FROM results
		WHERE %s
		ORDER BY ended_at ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var records []model.ResultRecord
	for rows.Next() {
		var rec model.ResultRecord
		var mode, startedAt, endedAt string
		var qualifies int
		if err := rows.Scan(&rec.ID, &rec.TextID, &rec.Username, &mode, &startedAt, &endedAt,
			&rec.Results.NetWPM, &rec.Results.GrossWPM, &rec.Results.AccuracyPercent, &rec.Results.KeystrokeAccuracyPercent,
			&rec.Results.TotalWords, &rec.Results.TypedWordCount, &rec.Results.CorrectWordCount, &rec.Results.IncorrectWordCount, &rec.Results.ErrorWordCount,
			&rec.Results.TotalKeystrokes, &rec.Results.CorrectKeystrokes, &rec.Results.ElapsedSeconds, &rec.Results.TotalTimeSeconds, &qualifies); err != nil {
			return nil, err
		}
		rec.Mode = model.BackspaceMode(mode)
		rec.Results.QualifiesForLeaderboard = qualifies == 1
		parsedStart, err := time.Parse(time.RFC3339Nano, startedAt)
		if err != nil {
			return nil, err
		}
		parsedEnd, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		rec.StartedAt = parsedStart
		rec.EndedAt = parsedEnd
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if filter.Last > 0 && len(records) > filter.Last {
		records = records[len(records)-filter.Last:]
	}
	return records, nil
}

// Leaderboard returns the top qualifying results by net WPM.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	if limit <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT username, net_wpm, keystroke_accuracy_pct, typed_words, ended_at
		 FROM results
		 WHERE qualifies = 1
		 ORDER BY net_wpm DESC, ended_at ASC
		 LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var entries []model.LeaderboardEntry
	for rows.Next() {
		var entry model.LeaderboardEntry
		var endedAt string
		if err := rows.Scan(&entry.Username, &entry.NetWPM, &entry.KeystrokeAccuracyPercent, &entry.TypedWordCount, &endedAt); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(time.RFC3339Nano, endedAt)
		if err != nil {
			return nil, err
		}
		entry.EndedAt = parsed
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}
