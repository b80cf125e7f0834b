package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"avalia/internal/certificate/models"
	"avalia/internal/sentinel"
)

// pgUniqueViolation is the PostgreSQL error code for unique constraint violations.
const pgUniqueViolation = "23505"

// PostgresStore persists certificates in PostgreSQL. Uniqueness of the
// (user, form) pair and of the validation code is enforced by the schema's
// unique constraints; violations surface as sentinel.ErrConflict.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed certificate store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, cert *models.Certificate) error {
	if cert == nil {
		return fmt.Errorf("certificate is required")
	}
	metadata, err := json.Marshal(cert.Metadata)
	if err != nil {
		return fmt.Errorf("marshal certificate metadata: %w", err)
	}

	query := `
		INSERT INTO certificates (
			id, user_id, form_id, validation_code, hash, metadata, issued_at, ready
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err = s.db.ExecContext(ctx, query,
		cert.ID,
		cert.UserID,
		cert.FormID,
		cert.ValidationCode,
		cert.Hash,
		metadata,
		cert.IssuedAt,
		cert.Ready,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return fmt.Errorf("certificate already exists: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert certificate: %w", err)
	}
	return nil
}

const certificateColumns = `id, user_id, form_id, validation_code, hash, metadata, issued_at, ready`

func (s *PostgresStore) FindByID(ctx context.Context, id uuid.UUID) (*models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE id = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, id), "find certificate by id")
}

func (s *PostgresStore) FindByUserAndForm(ctx context.Context, userID, formID uuid.UUID) (*models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE user_id = $1 AND form_id = $2`
	return s.scanOne(s.db.QueryRowContext(ctx, query, userID, formID), "find certificate by user and form")
}

func (s *PostgresStore) FindByValidationCode(ctx context.Context, validationCode string) (*models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE validation_code = $1`
	return s.scanOne(s.db.QueryRowContext(ctx, query, validationCode), "find certificate by code")
}

func (s *PostgresStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.Certificate, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE user_id = $1 ORDER BY issued_at DESC`
	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list certificates by user: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	var certs []*models.Certificate
	for rows.Next() {
		cert, err := scanCertificate(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		certs = append(certs, cert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate certificates: %w", err)
	}
	return certs, nil
}

func (s *PostgresStore) MarkReady(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `UPDATE certificates SET ready = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark certificate ready: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark certificate ready: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("certificate %s: %w", id, sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) scanOne(row *sql.Row, op string) (*models.Certificate, error) {
	cert, err := scanCertificate(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return cert, nil
}

func scanCertificate(scan func(dest ...any) error) (*models.Certificate, error) {
	var cert models.Certificate
	var metadata []byte
	if err := scan(
		&cert.ID,
		&cert.UserID,
		&cert.FormID,
		&cert.ValidationCode,
		&cert.Hash,
		&metadata,
		&cert.IssuedAt,
		&cert.Ready,
	); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(metadata, &cert.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal certificate metadata: %w", err)
	}
	return &cert, nil
}

// PostgresValidationLogStore appends validation attempts to the
// validation_logs table.
type PostgresValidationLogStore struct {
	db *sql.DB
}

func NewPostgresValidationLogStore(db *sql.DB) *PostgresValidationLogStore {
	return &PostgresValidationLogStore{db: db}
}

func (s *PostgresValidationLogStore) Append(ctx context.Context, entry *models.ValidationLog) error {
	// certificate_id is NULL for well-formed codes that matched nothing.
	certificateID := uuid.NullUUID{UUID: entry.CertificateID, Valid: entry.CertificateID != uuid.Nil}

	query := `
		INSERT INTO validation_logs (id, certificate_id, code, ip_address, user_agent, device, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		entry.ID,
		certificateID,
		entry.Code,
		entry.IPAddress,
		entry.UserAgent,
		entry.Device,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert validation log: %w", err)
	}
	return nil
}

func (s *PostgresValidationLogStore) ListByCertificate(ctx context.Context, certificateID uuid.UUID) ([]*models.ValidationLog, error) {
	query := `
		SELECT id, certificate_id, code, ip_address, user_agent, device, created_at
		FROM validation_logs
		WHERE certificate_id = $1
		ORDER BY created_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, certificateID)
	if err != nil {
		return nil, fmt.Errorf("list validation logs: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	var entries []*models.ValidationLog
	for rows.Next() {
		var entry models.ValidationLog
		if err := rows.Scan(
			&entry.ID,
			&entry.CertificateID,
			&entry.Code,
			&entry.IPAddress,
			&entry.UserAgent,
			&entry.Device,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan validation log: %w", err)
		}
		entries = append(entries, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate validation logs: %w", err)
	}
	return entries, nil
}
