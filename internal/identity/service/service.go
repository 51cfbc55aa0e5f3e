// Package service provisions and maintains applicant identities linked to
// transfer cases.
package service

import (
	"context"
	"errors"
	"log/slog"

	"transferdesk/internal/identity/credentials"
	"transferdesk/internal/identity/models"
	"transferdesk/internal/identity/store"
	"transferdesk/pkg/domain"
	dErrors "transferdesk/pkg/domain-errors"
	"transferdesk/pkg/platform/sentinel"
	"transferdesk/pkg/requestcontext"
)

type Service struct {
	store  store.Store
	logger *slog.Logger
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func New(st store.Store, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("identity store is required")
	}
	s := &Service{store: st, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// EnsureProvisioned creates an applicant identity for the profile unless one
// already exists. The initial password is the personnel code and must be
// changed on first login. It reports whether an identity was created.
func (s *Service) EnsureProvisioned(ctx context.Context, profile models.Profile) (bool, error) {
	if profile.NationalID == "" {
		return false, nil
	}
	_, err := s.store.FindByNationalID(ctx, profile.NationalID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up identity")
	}
	if profile.PersonnelCode == "" {
		return false, dErrors.New(dErrors.CodeValidation, "personnel code is required to derive the initial password")
	}

	hash, err := credentials.Hash(profile.PersonnelCode)
	if err != nil {
		return false, err
	}
	now := requestcontext.Now(ctx)
	identity := &models.Identity{
		UserID:             domain.NewUserID(),
		NationalID:         profile.NationalID,
		FirstName:          profile.FirstName,
		LastName:           profile.LastName,
		Phone:              profile.Phone,
		Role:               domain.RoleApplicant,
		PasswordHash:       hash,
		MustChangePassword: true,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.store.Create(ctx, identity); err != nil {
		if errors.Is(err, sentinel.ErrAlreadyUsed) {
			return false, nil
		}
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create identity")
	}
	s.logger.InfoContext(ctx, "identity provisioned",
		"user_id", identity.UserID.String(),
		"request_id", requestcontext.RequestID(ctx),
	)
	return true, nil
}

// SyncProfile copies name and phone onto a linked identity. Cases without a
// linked identity are ignored.
func (s *Service) SyncProfile(ctx context.Context, profile models.Profile) error {
	if profile.NationalID == "" {
		return nil
	}
	err := s.store.UpdateProfile(ctx, profile, requestcontext.Now(ctx))
	if err == nil || errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to sync identity profile")
}

// Authenticate verifies an applicant's password.
func (s *Service) Authenticate(ctx context.Context, nationalID, password string) (*models.Identity, error) {
	identity, err := s.store.FindByNationalID(ctx, nationalID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up identity")
	}
	if err := credentials.Verify(password, identity.PasswordHash); err != nil {
		return nil, err
	}
	return identity, nil
}
