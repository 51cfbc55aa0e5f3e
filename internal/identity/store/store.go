// Package store persists applicant identities.
package store

import (
	"context"
	"time"

	"transferdesk/internal/identity/models"
)

type Store interface {
	// Create returns sentinel.ErrAlreadyUsed when the national id is taken.
	Create(ctx context.Context, identity *models.Identity) error
	FindByNationalID(ctx context.Context, nationalID string) (*models.Identity, error)
	UpdateProfile(ctx context.Context, profile models.Profile, at time.Time) error
}
