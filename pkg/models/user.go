package models

import (
	"strings"
	"time"
)

type UserRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Nombre   string `json:"nombre" validate:"required"`
	Role     Role   `json:"role" validate:"omitempty,oneof=ESTUDIANTE SOPORTE METRICAS"`
}

func (u *UserRequest) Normalize() {
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))
	u.Nombre = strings.TrimSpace(u.Nombre)
	if u.Role == "" {
		u.Role = RoleEstudiante
	}
}

type Credentials struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type User struct {
	ID           string    `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Nombre       string    `json:"nombre" db:"nombre"`
	Role         Role      `json:"role" db:"role"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
}

func (u User) Public() PublicUser {
	return PublicUser{
		ID:     u.ID,
		Nombre: u.Nombre,
		Email:  u.Email,
	}
}

// PublicUser is the profile embedded into requests and authorizations.
type PublicUser struct {
	ID     string `json:"id" db:"id"`
	Nombre string `json:"nombre" db:"nombre"`
	Email  string `json:"email" db:"email"`
}
