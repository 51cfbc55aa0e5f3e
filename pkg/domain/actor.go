package domain

import "strings"

// Role is the administrative level of an authenticated actor.
type Role string

const (
	RoleApplicant     Role = "user"
	RoleDistrictAdmin Role = "district_admin"
	RoleProvinceAdmin Role = "province_admin"
	RoleSuperAdmin    Role = "super_admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleApplicant, RoleDistrictAdmin, RoleProvinceAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsElevated reports whether the role may perform destructive operations.
func (r Role) IsElevated() bool {
	return r == RoleSuperAdmin
}

// LocationRef points at a district or province. Depending on the call path it is
// either resolved (Code set) or raw (only the registry ID set). Consumers must go
// through the scope resolver instead of branching on its shape.
type LocationRef struct {
	ID   string `json:"id,omitempty"`
	Code string `json:"code,omitempty"`
}

func (l LocationRef) IsZero() bool {
	return strings.TrimSpace(l.ID) == "" && strings.TrimSpace(l.Code) == ""
}

// Actor is an already-authenticated caller.
type Actor struct {
	ID         UserID      `json:"id"`
	Role       Role        `json:"role"`
	NationalID string      `json:"national_id,omitempty"`
	District   LocationRef `json:"district"`
	Province   LocationRef `json:"province"`
}

// Label is the attribution string written into audit entries.
func (a Actor) Label() string {
	return string(a.Role) + ":" + a.ID.String()
}
