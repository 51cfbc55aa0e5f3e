package models

import (
	"time"

	"transferdesk/pkg/domain"
)

// Profile is the part of a case the identity directory mirrors.
type Profile struct {
	NationalID    string
	PersonnelCode string
	FirstName     string
	LastName      string
	Phone         string
}

// Identity is an applicant login keyed by national id.
type Identity struct {
	UserID             domain.UserID `json:"user_id"`
	NationalID         string        `json:"national_id"`
	FirstName          string        `json:"first_name"`
	LastName           string        `json:"last_name"`
	Phone              string        `json:"phone,omitempty"`
	Role               domain.Role   `json:"role"`
	PasswordHash       string        `json:"-"`
	MustChangePassword bool          `json:"must_change_password"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// Actor is the authenticated principal for this identity.
func (i *Identity) Actor() domain.Actor {
	return domain.Actor{
		ID:         i.UserID,
		Role:       i.Role,
		NationalID: i.NationalID,
	}
}
