package memory

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// ArchiveStore persists interaction records to SQLite so a learner's
// history survives process restarts. The archive is write-through:
// the agent loop records each turn after committing it to the in-memory
// profile, and a missing archive never changes turn semantics.
type ArchiveStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenArchive opens (creating if needed) the archive database at path
// and runs migrations.
func OpenArchive(path string, logger *slog.Logger) (*ArchiveStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open archive db: %w", err)
	}

	s := &ArchiveStore{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("archive migration: %w", err)
	}

	logger.Debug("interaction archive opened", "path", path)
	return s, nil
}

// migrate creates the interactions table if it does not exist.
func (s *ArchiveStore) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS interactions (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id   TEXT NOT NULL,
			user_input   TEXT NOT NULL,
			agent_answer TEXT NOT NULL,
			correctness  INTEGER,
			reward       REAL NOT NULL,
			difficulty   INTEGER NOT NULL,
			created_at   TEXT NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_interactions_session
			ON interactions(session_id, id);
	`)
	return err
}

// RecordInteraction appends one record for a session. Correctness is
// stored as a nullable integer to preserve the tri-state.
func (s *ArchiveStore) RecordInteraction(sessionID string, rec InteractionRecord) error {
	var correctness any
	if rec.Correctness != nil {
		if *rec.Correctness {
			correctness = 1
		} else {
			correctness = 0
		}
	}

	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.db.Exec(`
		INSERT INTO interactions
			(session_id, user_input, agent_answer, correctness, reward, difficulty, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sessionID, rec.UserInput, rec.AgentAnswer, correctness,
		rec.Reward, rec.Difficulty, createdAt.Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("record interaction: %w", err)
	}
	return nil
}

// RecentInteractions returns up to limit records for a session, oldest
// first.
func (s *ArchiveStore) RecentInteractions(sessionID string, limit int) ([]InteractionRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(`
		SELECT user_input, agent_answer, correctness, reward, difficulty, created_at
		FROM (
			SELECT * FROM interactions
			WHERE session_id = ?
			ORDER BY id DESC
			LIMIT ?
		)
		ORDER BY id ASC
	`, sessionID, limit)
	if err != nil {
		return nil, fmt.Errorf("query interactions: %w", err)
	}
	defer rows.Close()

	var records []InteractionRecord
	for rows.Next() {
		var rec InteractionRecord
		var correctness sql.NullInt64
		var createdAt string

		if err := rows.Scan(&rec.UserInput, &rec.AgentAnswer, &correctness,
			&rec.Reward, &rec.Difficulty, &createdAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}

		if correctness.Valid {
			v := correctness.Int64 == 1
			rec.Correctness = &v
		}
		rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)

		records = append(records, rec)
	}
	return records, rows.Err()
}

// Close closes the underlying database.
func (s *ArchiveStore) Close() error {
	return s.db.Close()
}
