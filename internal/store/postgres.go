package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tastybites/backend/internal/models"
)

// ContactStore persists contact-form submissions in PostgreSQL.
type ContactStore struct {
	pool *pgxpool.Pool
}

func NewContactStore(pool *pgxpool.Pool) *ContactStore {
	return &ContactStore{pool: pool}
}

// Migrate creates the contact_messages table if it doesn't exist.
func (s *ContactStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS contact_messages (
			id         BIGSERIAL PRIMARY KEY,
			name       VARCHAR(100)  NOT NULL,
			email      VARCHAR(255)  NOT NULL,
			subject    VARCHAR(200)  NOT NULL,
			message    TEXT          NOT NULL,
			created_at TIMESTAMPTZ   DEFAULT NOW()
		)
	`)
	return err
}

// Insert stores a submission and fills in its id and timestamp.
func (s *ContactStore) Insert(ctx context.Context, m *models.ContactMessage) error {
	err := s.pool.QueryRow(ctx,
		`INSERT INTO contact_messages (name, email, subject, message)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		m.Name, m.Email, m.Subject, m.Message,
	).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	return nil
}

// List returns the most recent submissions, for the admin dashboard.
func (s *ContactStore) List(ctx context.Context, limit int) ([]models.ContactMessage, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, email, subject, message, created_at
		 FROM contact_messages ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []models.ContactMessage
	for rows.Next() {
		var m models.ContactMessage
		if err := rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &m.CreatedAt); err != nil {
			return nil, err
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}
