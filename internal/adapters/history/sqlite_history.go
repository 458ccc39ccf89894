package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/phishguard/phishing-filter/internal/core"
)

// SQLiteHistory is a SQLite implementation of core.HistoryStore.
type SQLiteHistory struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteHistory opens (and if needed initializes) a SQLite history store.
func NewSQLiteHistory(dbPath string, logger *zap.Logger) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS email_history (
			id TEXT PRIMARY KEY,
			sender TEXT,
			subject TEXT,
			body TEXT,
			recipients TEXT,
			headers TEXT,
			attachments TEXT,
			indicators TEXT,
			is_phishing BOOLEAN,
			uploaded_at TIMESTAMP
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	// Backs CountSince during retrain checks.
	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_uploaded_at ON email_history(uploaded_at)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create index: %w", err)
	}

	return &SQLiteHistory{db: db, logger: logger}, nil
}

// Insert stores a labeled example.
func (h *SQLiteHistory) Insert(ctx context.Context, example core.TrainingExample) error {
	r, err := encodeExample(example)
	if err != nil {
		return err
	}
	uploadedAt := example.UploadedAt
	if uploadedAt.IsZero() {
		uploadedAt = time.Now()
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO email_history (id, sender, subject, body, recipients, headers, attachments, indicators, is_phishing, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, uuid.New().String(), r.sender, r.subject, r.body, r.recipients, r.headers, r.attachments, r.indicators,
		example.IsPhishing, uploadedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert example: %w", err)
	}
	return nil
}

// Count returns the total number of stored examples.
func (h *SQLiteHistory) Count(ctx context.Context) (int, error) {
	var count int
	err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM email_history`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count examples: %w", err)
	}
	return count, nil
}

// CountSince returns the number of examples uploaded after t.
func (h *SQLiteHistory) CountSince(ctx context.Context, t time.Time) (int, error) {
	var count int
	err := h.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM email_history WHERE uploaded_at > ?
	`, t.UTC().Format(time.RFC3339Nano)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count new examples: %w", err)
	}
	return count, nil
}

// ListExamples returns all stored examples.
func (h *SQLiteHistory) ListExamples(ctx context.Context) ([]core.TrainingExample, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT sender, subject, body, recipients, headers, attachments, indicators, is_phishing, uploaded_at
		FROM email_history ORDER BY uploaded_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query examples: %w", err)
	}
	defer rows.Close()

	var examples []core.TrainingExample
	for rows.Next() {
		var r row
		var isPhishing bool
		var uploadedAt string
		if err := rows.Scan(&r.sender, &r.subject, &r.body, &r.recipients, &r.headers, &r.attachments,
			&r.indicators, &isPhishing, &uploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan example: %w", err)
		}
		example, err := decodeExample(r, isPhishing)
		if err != nil {
			h.logger.Error("Skipping undecodable history row", zap.Error(err))
			continue
		}
		if ts, err := time.Parse(time.RFC3339Nano, uploadedAt); err == nil {
			example.UploadedAt = ts
		}
		examples = append(examples, example)
	}
	return examples, rows.Err()
}

// Close closes the underlying database.
func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}
