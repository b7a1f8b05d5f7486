package models

import (
	"errors"
	"fmt"

	"github.com/golang-jwt/jwt/v4"
)

var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
)

var ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)

type Role string

const (
	RoleEstudiante Role = `ESTUDIANTE`
	RoleSoporte    Role = `SOPORTE`
	RoleMetricas   Role = `METRICAS`
)

func (r Role) Valid() bool {
	switch r {
	case RoleEstudiante, RoleSoporte, RoleMetricas:
		return true
	}
	return false
}

// CanCreate reports whether the role may open new loan requests.
func (r Role) CanCreate() bool {
	return r == RoleEstudiante
}

// CanAuthorize reports whether the role may approve or reject a request.
func (r Role) CanAuthorize() bool {
	return r == RoleSoporte
}

// CanDelete reports whether the role may withdraw its own pending requests.
func (r Role) CanDelete() bool {
	return r == RoleEstudiante
}

// SeesAll reports whether the role may read requests owned by others.
func (r Role) SeesAll() bool {
	return r == RoleSoporte || r == RoleMetricas
}

func (r Role) CanReport() bool {
	return r == RoleSoporte || r == RoleMetricas
}

// Caller is the identity an operation runs on behalf of.
type Caller struct {
	ID   string
	Role Role
}

type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userID"`
	Role   Role   `json:"role"`
}

func (c *Claims) Caller() Caller {
	return Caller{ID: c.UserID, Role: c.Role}
}

type TokenResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
