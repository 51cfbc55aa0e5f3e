package testutil

import (
	"net/http"
	"time"

	"transferdesk/pkg/domain"
	"transferdesk/pkg/requestcontext"
)

// WithActor attaches an authenticated actor to the request context.
// This simulates what the auth middleware does for a valid bearer token.
func WithActor(req *http.Request, actor domain.Actor) *http.Request {
	return req.WithContext(requestcontext.WithActor(req.Context(), actor))
}

// WithRequestTime pins the request-scoped clock.
func WithRequestTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// SuperAdmin returns an actor with unrestricted scope.
func SuperAdmin() domain.Actor {
	return domain.Actor{ID: domain.NewUserID(), Role: domain.RoleSuperAdmin}
}

// DistrictAdmin returns an actor scoped to one district code.
func DistrictAdmin(code string) domain.Actor {
	return domain.Actor{
		ID:       domain.NewUserID(),
		Role:     domain.RoleDistrictAdmin,
		District: domain.LocationRef{Code: code},
	}
}

// ProvinceAdmin returns an actor scoped to one province code.
func ProvinceAdmin(code string) domain.Actor {
	return domain.Actor{
		ID:       domain.NewUserID(),
		Role:     domain.RoleProvinceAdmin,
		Province: domain.LocationRef{Code: code},
	}
}

// Applicant returns an actor who may only see their own case.
func Applicant(nationalID string) domain.Actor {
	return domain.Actor{
		ID:         domain.NewUserID(),
		Role:       domain.RoleApplicant,
		NationalID: nationalID,
	}
}
