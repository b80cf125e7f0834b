package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"avalia/internal/response/models"
	"avalia/internal/sentinel"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// PostgresStore persists submitted responses in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateAll(ctx context.Context, responses []*models.Response) error {
	if len(responses) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin submission: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	for _, r := range responses {
		value, err := json.Marshal(r.Value)
		if err != nil {
			return fmt.Errorf("marshal response value: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO responses (id, user_id, form_id, question_id, value, submitted_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, r.ID, r.UserID, r.FormID, r.QuestionID, value, r.SubmittedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				// Two racing submissions slipped past HasSubmitted; the
				// (user, form, question) index stops the loser here.
				return fmt.Errorf("response for question %s already submitted: %w", r.QuestionID, sentinel.ErrConflict)
			}
			return fmt.Errorf("insert response for question %s: %w", r.QuestionID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit submission: %w", err)
	}
	return nil
}

func (s *PostgresStore) HasSubmitted(ctx context.Context, userID, formID uuid.UUID) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `
		SELECT EXISTS (SELECT 1 FROM responses WHERE user_id = $1 AND form_id = $2)
	`, userID, formID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check submission: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) ListByUserAndForm(ctx context.Context, userID, formID uuid.UUID) ([]*models.Response, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, form_id, question_id, value, submitted_at
		FROM responses
		WHERE user_id = $1 AND form_id = $2
		ORDER BY submitted_at
	`, userID, formID)
	if err != nil {
		return nil, fmt.Errorf("list responses: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	var out []*models.Response
	for rows.Next() {
		var r models.Response
		var value []byte
		if err := rows.Scan(&r.ID, &r.UserID, &r.FormID, &r.QuestionID, &value, &r.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan response: %w", err)
		}
		if err := json.Unmarshal(value, &r.Value); err != nil {
			return nil, fmt.Errorf("unmarshal response value: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate responses: %w", err)
	}
	return out, nil
}
