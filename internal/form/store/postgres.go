package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"avalia/internal/form/models"
	"avalia/internal/sentinel"
)

// PostgresStore persists forms in PostgreSQL. Questions live in their own
// table; the conditional rule is stored as the form builder's JSON document.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, form *models.Form) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save form: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx, `
		INSERT INTO forms (id, title, description, estimated_time, generates_certificate)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			estimated_time = EXCLUDED.estimated_time,
			generates_certificate = EXCLUDED.generates_certificate
	`, form.ID, form.Title, form.Description, form.EstimatedTime, form.GeneratesCertificate)
	if err != nil {
		return fmt.Errorf("save form: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE form_id = $1`, form.ID); err != nil {
		return fmt.Errorf("clear form questions: %w", err)
	}

	for i := range form.Questions {
		q := &form.Questions[i]
		options, rows, columns, conditional, err := marshalQuestionFields(q)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO questions (
				id, form_id, text, description, type, position, options, rows, columns, required, conditional
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		`, q.ID, form.ID, q.Text, q.Description, string(q.Type), q.Order, options, rows, columns, q.Required, conditional)
		if err != nil {
			return fmt.Errorf("save question %s: %w", q.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save form: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Form, error) {
	var form models.Form
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, estimated_time, generates_certificate
		FROM forms WHERE id = $1
	`, id).Scan(&form.ID, &form.Title, &form.Description, &form.EstimatedTime, &form.GeneratesCertificate)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("form %s: %w", id, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find form by id: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, text, description, type, position, options, rows, columns, required, conditional
		FROM questions
		WHERE form_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return nil, fmt.Errorf("list form questions: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		form.Questions = append(form.Questions, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate form questions: %w", err)
	}
	return &form, nil
}

func marshalQuestionFields(q *models.Question) (options, rows, columns, conditional []byte, err error) {
	if options, err = json.Marshal(q.Options); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal question options: %w", err)
	}
	if rows, err = json.Marshal(q.Rows); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal question rows: %w", err)
	}
	if columns, err = json.Marshal(q.Columns); err != nil {
		return nil, nil, nil, nil, fmt.Errorf("marshal question columns: %w", err)
	}
	if q.Conditional != nil {
		if conditional, err = json.Marshal(q.Conditional); err != nil {
			return nil, nil, nil, nil, fmt.Errorf("marshal question conditional: %w", err)
		}
	}
	return options, rows, columns, conditional, nil
}

func scanQuestion(rows *sql.Rows) (*models.Question, error) {
	var q models.Question
	var qType string
	var options, rowLabels, columns, conditional []byte
	if err := rows.Scan(
		&q.ID,
		&q.Text,
		&q.Description,
		&qType,
		&q.Order,
		&options,
		&rowLabels,
		&columns,
		&q.Required,
		&conditional,
	); err != nil {
		return nil, fmt.Errorf("scan question: %w", err)
	}
	q.Type = models.QuestionType(qType)
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return nil, fmt.Errorf("unmarshal question options: %w", err)
	}
	if err := json.Unmarshal(rowLabels, &q.Rows); err != nil {
		return nil, fmt.Errorf("unmarshal question rows: %w", err)
	}
	if err := json.Unmarshal(columns, &q.Columns); err != nil {
		return nil, fmt.Errorf("unmarshal question columns: %w", err)
	}
	if len(conditional) > 0 {
		q.Conditional = &models.Conditional{}
		if err := json.Unmarshal(conditional, q.Conditional); err != nil {
			return nil, fmt.Errorf("unmarshal question conditional: %w", err)
		}
	}
	return &q, nil
}
