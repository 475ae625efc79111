package domain

import (
	"errors"
	"time"
)

type Role string

const (
	RoleAdmin     Role = "Admin"
	RoleAssessor  Role = "Assessor"
	RoleWardStaff Role = "Ward Staff"
)

var (
	ErrWardRequired   = errors.New("ward staff must be assigned to exactly one ward")
	ErrWardNotAllowed = errors.New("only ward staff can be assigned to a ward")
	ErrUnknownRole    = errors.New("unknown role")
)

func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleAssessor, RoleWardStaff:
		return true
	}
	return false
}

type User struct {
	ID           string    `json:"id" db:"id"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	Password     string    `json:"password,omitempty" db:"-"` // write-only, never returned by the server
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         Role      `json:"role" db:"role"`
	WardID       string    `json:"wardId,omitempty" db:"ward_id"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

// Validate checks the role/ward invariant: ward staff always carry exactly one ward, everybody
// else carries none.
func (u *User) Validate() error {
	if !u.Role.Valid() {
		return ErrUnknownRole
	}
	if u.Role == RoleWardStaff && u.WardID == "" {
		return ErrWardRequired
	}
	if u.Role != RoleWardStaff && u.WardID != "" {
		return ErrWardNotAllowed
	}
	return nil
}

// Sanitized returns a copy that is safe to hand out or persist in a session.
func (u User) Sanitized() User {
	u.Password = ""
	u.PasswordHash = ""
	return u
}
