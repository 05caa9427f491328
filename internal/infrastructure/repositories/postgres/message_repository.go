// Package postgres stores classified chat messages in Postgres via the
// pgx driver.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"chatpulse/internal/core/domain"
	"chatpulse/internal/core/ports"

	_ "github.com/jackc/pgx/v5/stdlib" // pgx postgres driver registered as 'pgx'
)

// Connect opens a Postgres connection pool for the given DSN.
func Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres connection: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

// Migrate applies idempotent schema changes for the messages table.
func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS messages (
			id SERIAL PRIMARY KEY,
			message_id TEXT UNIQUE,
			stream_id TEXT,
			broadcaster_user_login TEXT NOT NULL,
			chatter_user_login TEXT,
			message_text TEXT,
			nlp_classification TEXT,
			sent_at TIMESTAMPTZ,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_broadcaster_sent ON messages(broadcaster_user_login, sent_at)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_stream ON messages(stream_id)`,
	}
	for i, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("postgres migrate step %d failed: %w", i, err)
		}
	}
	return nil
}

// PostgresMessageRepository persists classified messages.
type PostgresMessageRepository struct {
	db *sql.DB
}

func NewPostgresMessageRepository(db *sql.DB) ports.MessageRepository {
	return &PostgresMessageRepository{db: db}
}

func (r *PostgresMessageRepository) Insert(ctx context.Context, msg *domain.ClassifiedMessage) error {
	// ON CONFLICT keeps redelivered messages from duplicating rows.
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO messages (message_id, stream_id, broadcaster_user_login, chatter_user_login, message_text, nlp_classification, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (message_id) DO NOTHING`,
		msg.MessageID,
		msg.StreamID,
		string(msg.Broadcaster),
		msg.Chatter,
		msg.Text,
		msg.Classification,
		msg.SentAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

func (r *PostgresMessageRepository) List(ctx context.Context, filter domain.MessageFilter) ([]*domain.ClassifiedMessage, error) {
	query := `SELECT message_id, stream_id, broadcaster_user_login, chatter_user_login, message_text, nlp_classification, sent_at FROM messages`

	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Broadcaster != "" {
		add("broadcaster_user_login = $%d", string(filter.Broadcaster))
	}
	if filter.StreamID != "" {
		add("stream_id = $%d", filter.StreamID)
	}
	if filter.Chatter != "" {
		add("chatter_user_login = $%d", filter.Chatter)
	}
	if !filter.Start.IsZero() {
		add("sent_at >= $%d", filter.Start)
	}
	if !filter.End.IsZero() {
		add("sent_at <= $%d", filter.End)
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY sent_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []*domain.ClassifiedMessage
	for rows.Next() {
		var (
			msg         domain.ClassifiedMessage
			broadcaster string
			sentAt      sql.NullTime
		)
		if err := rows.Scan(&msg.MessageID, &msg.StreamID, &broadcaster, &msg.Chatter, &msg.Text, &msg.Classification, &sentAt); err != nil {
			return nil, fmt.Errorf("failed to scan message row: %w", err)
		}
		msg.Broadcaster = domain.StreamerID(broadcaster)
		if sentAt.Valid {
			msg.SentAt = sentAt.Time
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate message rows: %w", err)
	}
	return messages, nil
}
