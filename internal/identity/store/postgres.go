package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"transferdesk/internal/identity/models"
	"transferdesk/internal/platform/database"
	"transferdesk/pkg/domain"
	"transferdesk/pkg/platform/sentinel"
	txcontext "transferdesk/pkg/platform/tx"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, identity *models.Identity) error {
	query := `
		INSERT INTO identities (
			national_id, user_id, first_name, last_name, phone, role,
			password_hash, must_change_password, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		identity.NationalID,
		uuid.UUID(identity.UserID),
		identity.FirstName,
		identity.LastName,
		identity.Phone,
		string(identity.Role),
		identity.PasswordHash,
		identity.MustChangePassword,
		identity.CreatedAt,
		identity.UpdatedAt,
	)
	if err != nil {
		if _, ok := database.IsUniqueViolation(err); ok {
			return sentinel.ErrAlreadyUsed
		}
		return fmt.Errorf("insert identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByNationalID(ctx context.Context, nationalID string) (*models.Identity, error) {
	query := `
		SELECT national_id, user_id, first_name, last_name, phone, role,
			   password_hash, must_change_password, created_at, updated_at
		FROM identities
		WHERE national_id = $1
	`
	var (
		identity models.Identity
		userID   uuid.UUID
		role     string
	)
	err := s.db.QueryRowContext(ctx, query, nationalID).Scan(
		&identity.NationalID,
		&userID,
		&identity.FirstName,
		&identity.LastName,
		&identity.Phone,
		&role,
		&identity.PasswordHash,
		&identity.MustChangePassword,
		&identity.CreatedAt,
		&identity.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find identity: %w", err)
	}
	identity.UserID = domain.UserID(userID)
	identity.Role = domain.Role(role)
	return &identity, nil
}

func (s *PostgresStore) UpdateProfile(ctx context.Context, profile models.Profile, at time.Time) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE identities
		SET first_name = $2, last_name = $3, phone = $4, updated_at = $5
		WHERE national_id = $1
	`, profile.NationalID, profile.FirstName, profile.LastName, profile.Phone, at)
	if err != nil {
		return fmt.Errorf("update identity profile: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update identity profile rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
