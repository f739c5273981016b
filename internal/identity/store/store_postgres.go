package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"certmint/internal/identity"
	"certmint/pkg/platform/sentinel"
)

// PostgresStore persists users in PostgreSQL. This store is pure I/O; rules
// like "credential equals mobile number" live in the service layer.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, title, name, guardian_name, mobile_no, email, date_of_birth,
	passout_percentage, state, address, course_name, experience, college_name,
	photo_url, qr_seed_url, registration_number, role, is_restricted,
	password_hash, created_at, updated_at`

func (s *PostgresStore) Save(ctx context.Context, user identity.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Title, user.Name, user.GuardianName, user.MobileNo,
		user.Email, user.DateOfBirth, user.PassoutPercentage, user.State,
		user.Address, user.CourseName, user.Experience, user.CollegeName,
		user.PhotoURL, user.QRSeedURL, user.RegistrationNumber, user.Role,
		user.IsRestricted, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (identity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return identity.User{}, sentinel.ErrNotFound
		}
		return identity.User{}, fmt.Errorf("find user by id: %w", err)
	}
	return user, nil
}

// FindByIdentifier matches the identifier against mobile number or email,
// first match wins. Emails are stored lowercase.
func (s *PostgresStore) FindByIdentifier(ctx context.Context, identifier string) (identity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE mobile_no = $1 OR email = LOWER($1) LIMIT 1`
	user, err := scanUser(s.db.QueryRowContext(ctx, query, identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return identity.User{}, sentinel.ErrNotFound
		}
		return identity.User{}, fmt.Errorf("find user by identifier: %w", err)
	}
	return user, nil
}

func (s *PostgresStore) Update(ctx context.Context, user identity.User) error {
	query := `
		UPDATE users SET
			title = $2, name = $3, guardian_name = $4, mobile_no = $5, email = $6,
			date_of_birth = $7, passout_percentage = $8, state = $9, address = $10,
			course_name = $11, experience = $12, college_name = $13, photo_url = $14,
			qr_seed_url = $15, role = $16, is_restricted = $17, updated_at = $18
		WHERE id = $1
	`
	result, err := s.db.ExecContext(ctx, query,
		user.ID, user.Title, user.Name, user.GuardianName, user.MobileNo,
		user.Email, user.DateOfBirth, user.PassoutPercentage, user.State,
		user.Address, user.CourseName, user.Experience, user.CollegeName,
		user.PhotoURL, user.QRSeedURL, user.Role, user.IsRestricted, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return sentinel.ErrDuplicate
		}
		return fmt.Errorf("update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user rows affected: %w", err)
	}
	if rows == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) List(ctx context.Context) ([]identity.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []identity.User
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

type userRow interface {
	Scan(dest ...any) error
}

func scanUser(row userRow) (identity.User, error) {
	var user identity.User
	err := row.Scan(
		&user.ID, &user.Title, &user.Name, &user.GuardianName, &user.MobileNo,
		&user.Email, &user.DateOfBirth, &user.PassoutPercentage, &user.State,
		&user.Address, &user.CourseName, &user.Experience, &user.CollegeName,
		&user.PhotoURL, &user.QRSeedURL, &user.RegistrationNumber, &user.Role,
		&user.IsRestricted, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt,
	)
	return user, err
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
