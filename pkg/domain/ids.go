package domain

import (
	"strings"

	"github.com/google/uuid"

	dErrors "transferdesk/pkg/domain-errors"
)

// Typed identifiers keep case, identity and registry ids from being mixed up.
type (
	CaseID     uuid.UUID
	UserID     uuid.UUID
	DistrictID uuid.UUID
	ProvinceID uuid.UUID
)

func (id CaseID) String() string     { return uuid.UUID(id).String() }
func (id UserID) String() string     { return uuid.UUID(id).String() }
func (id DistrictID) String() string { return uuid.UUID(id).String() }
func (id ProvinceID) String() string { return uuid.UUID(id).String() }

func (id CaseID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id DistrictID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ProvinceID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// Text marshaling keeps JSON and YAML output in canonical uuid form.
func (id CaseID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id UserID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id DistrictID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id ProvinceID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }

func (id *CaseID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *UserID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *DistrictID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ProvinceID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

func NewCaseID() CaseID { return CaseID(uuid.New()) }
func NewUserID() UserID { return UserID(uuid.New()) }

func ParseCaseID(s string) (CaseID, error) {
	u, err := parseUUID(s, "case id")
	return CaseID(u), err
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user id")
	return UserID(u), err
}

func ParseDistrictID(s string) (DistrictID, error) {
	u, err := parseUUID(s, "district id")
	return DistrictID(u), err
}

func ParseProvinceID(s string) (ProvinceID, error) {
	u, err := parseUUID(s, "province id")
	return ProvinceID(u), err
}

func parseUUID(s, label string) (uuid.UUID, error) {
	if strings.TrimSpace(s) == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, label+" must not be nil")
	}
	return u, nil
}
