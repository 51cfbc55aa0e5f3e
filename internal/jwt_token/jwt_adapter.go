package jwttoken

import (
	"transferdesk/pkg/domain"
	dErrors "transferdesk/pkg/domain-errors"
)

// ToActor converts verified claims into the actor the services consume.
func ToActor(claims *Claims) (domain.Actor, error) {
	userID, err := domain.ParseUserID(claims.Subject)
	if err != nil {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "token subject is not a user id")
	}
	role := domain.Role(claims.Role)
	if !role.IsValid() {
		return domain.Actor{}, dErrors.New(dErrors.CodeUnauthorized, "token carries an unknown role")
	}
	return domain.Actor{
		ID:         userID,
		Role:       role,
		NationalID: claims.NationalID,
		District:   domain.LocationRef{ID: claims.DistrictID, Code: claims.DistrictCode},
		Province:   domain.LocationRef{ID: claims.ProvinceID, Code: claims.ProvinceCode},
	}, nil
}

// ActorValidator adapts JWTService to the auth middleware.
type ActorValidator struct {
	service *JWTService
}

func NewActorValidator(service *JWTService) *ActorValidator {
	return &ActorValidator{service: service}
}

func (a *ActorValidator) ValidateToken(tokenString string) (domain.Actor, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return domain.Actor{}, err
	}
	return ToActor(claims)
}
