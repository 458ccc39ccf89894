package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/phishguard/phishing-filter/internal/core"
)

// MySQLHistory is a MySQL implementation of core.HistoryStore.
type MySQLHistory struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMySQLHistory connects to MySQL and initializes the history schema.
// The DSN must enable parseTime.
func NewMySQLHistory(dsn string, logger *zap.Logger) (*MySQLHistory, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS email_history (
			id VARCHAR(36) PRIMARY KEY,
			sender VARCHAR(512),
			subject TEXT,
			body MEDIUMTEXT,
			recipients JSON,
			headers JSON,
			attachments JSON,
			indicators JSON,
			is_phishing BOOLEAN,
			uploaded_at TIMESTAMP,
			INDEX idx_uploaded_at (uploaded_at)
		)
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	return &MySQLHistory{db: db, logger: logger}, nil
}

// Insert stores a labeled example.
func (h *MySQLHistory) Insert(ctx context.Context, example core.TrainingExample) error {
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
		example.IsPhishing, uploadedAt)
	if err != nil {
		return fmt.Errorf("failed to insert example: %w", err)
	}
	return nil
}

// Count returns the total number of stored examples.
func (h *MySQLHistory) Count(ctx context.Context) (int, error) {
	var count int
	err := h.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM email_history`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count examples: %w", err)
	}
	return count, nil
}

// CountSince returns the number of examples uploaded after t.
func (h *MySQLHistory) CountSince(ctx context.Context, t time.Time) (int, error) {
	var count int
	err := h.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM email_history WHERE uploaded_at > ?
	`, t).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count new examples: %w", err)
	}
	return count, nil
}

// ListExamples returns all stored examples.
func (h *MySQLHistory) ListExamples(ctx context.Context) ([]core.TrainingExample, error) {
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
		var uploadedAt time.Time
		if err := rows.Scan(&r.sender, &r.subject, &r.body, &r.recipients, &r.headers, &r.attachments,
			&r.indicators, &isPhishing, &uploadedAt); err != nil {
			return nil, fmt.Errorf("failed to scan example: %w", err)
		}
		example, err := decodeExample(r, isPhishing)
		if err != nil {
			h.logger.Error("Skipping undecodable history row", zap.Error(err))
			continue
		}
		example.UploadedAt = uploadedAt
		examples = append(examples, example)
	}
	return examples, rows.Err()
}

// Close closes the underlying database.
func (h *MySQLHistory) Close() error {
	return h.db.Close()
}
