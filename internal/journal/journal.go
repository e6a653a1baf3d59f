package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"washboard/internal/models"

	_ "github.com/mattn/go-sqlite3"
)

// Journal is the local append-only log of transition attempts. It exists for
// shift-end reporting and incident review; it is not an offline store and is
// never consulted to rebuild board state.
type Journal struct {
	db *sql.DB
}

func Open(path string) (*Journal, error) {
	// Создаем директорию для журнала, если её нет
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to journal: %w", err)
	}

	if err := createTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return &Journal{db: db}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS transitions (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            booking_id TEXT NOT NULL,
            from_status TEXT NOT NULL,
            to_status TEXT NOT NULL,
            outcome TEXT NOT NULL,
            error TEXT,
            created_at DATETIME DEFAULT CURRENT_TIMESTAMP
        )`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_booking_id ON transitions(booking_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transitions_created_at ON transitions(created_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("error executing query %s: %w", query, err)
		}
	}
	return nil
}

// Record appends one transition attempt.
func (j *Journal) Record(ctx context.Context, entry *models.TransitionRecord) error {
	query := `INSERT INTO transitions (booking_id, from_status, to_status, outcome, error, created_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	result, err := j.db.ExecContext(ctx, query,
		entry.BookingID,
		entry.FromStatus,
		entry.ToStatus,
		entry.Outcome,
		entry.Error,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to record transition: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	entry.ID = id
	entry.CreatedAt = now

	return nil
}

// ListByDateRange returns attempts in [start, end) ordered by creation time.
func (j *Journal) ListByDateRange(ctx context.Context, start, end time.Time) ([]models.TransitionRecord, error) {
	query := `SELECT id, booking_id, from_status, to_status, outcome, COALESCE(error, ''), created_at
              FROM transitions
              WHERE created_at >= ? AND created_at < ?
              ORDER BY created_at ASC`
	rows, err := j.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}
	defer rows.Close()

	var records []models.TransitionRecord
	for rows.Next() {
		var rec models.TransitionRecord
		if err := rows.Scan(&rec.ID, &rec.BookingID, &rec.FromStatus, &rec.ToStatus, &rec.Outcome, &rec.Error, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan transition: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountByOutcome агрегирует журнал за период для сменного отчета.
func (j *Journal) CountByOutcome(ctx context.Context, start, end time.Time) (map[string]int, error) {
	query := `SELECT outcome, COUNT(*) FROM transitions
              WHERE created_at >= ? AND created_at < ?
              GROUP BY outcome`
	rows, err := j.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to count transitions: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var outcome string
		var count int
		if err := rows.Scan(&outcome, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		counts[outcome] = count
	}
	return counts, rows.Err()
}

func (j *Journal) Close() error {
	return j.db.Close()
}
