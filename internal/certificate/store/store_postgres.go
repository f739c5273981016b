package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"certmint/internal/certificate"
	"certmint/pkg/platform/sentinel"
)

// PostgresStore persists certificates. Append-only: there is no update or
// delete path.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Save(ctx context.Context, cert certificate.Certificate) error {
	payload, err := json.Marshal(cert.Payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	query := `
		INSERT INTO certificates (certificate_id, user_id, payload, qr_image_data_url, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err = s.db.ExecContext(ctx, query,
		cert.CertificateID, cert.UserID, payload, cert.QRImageDataURL, cert.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("save certificate: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (certificate.Certificate, error) {
	query := `
		SELECT certificate_id, user_id, payload, qr_image_data_url, created_at
		FROM certificates
		WHERE certificate_id = $1
	`
	var cert certificate.Certificate
	var payload []byte
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&cert.CertificateID, &cert.UserID, &payload, &cert.QRImageDataURL, &cert.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return certificate.Certificate{}, sentinel.ErrNotFound
		}
		return certificate.Certificate{}, fmt.Errorf("find certificate: %w", err)
	}
	if err := json.Unmarshal(payload, &cert.Payload); err != nil {
		return certificate.Certificate{}, fmt.Errorf("unmarshal payload: %w", err)
	}
	return cert, nil
}

func (s *PostgresStore) List(ctx context.Context) ([]certificate.Certificate, error) {
	query := `
		SELECT certificate_id, user_id, payload, qr_image_data_url, created_at
		FROM certificates
		ORDER BY created_at
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	defer rows.Close()

	var certs []certificate.Certificate
	for rows.Next() {
		var cert certificate.Certificate
		var payload []byte
		if err := rows.Scan(&cert.CertificateID, &cert.UserID, &payload, &cert.QRImageDataURL, &cert.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan certificate: %w", err)
		}
		if err := json.Unmarshal(payload, &cert.Payload); err != nil {
			return nil, fmt.Errorf("unmarshal payload: %w", err)
		}
		certs = append(certs, cert)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return certs, nil
}
