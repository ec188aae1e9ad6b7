package users

import (
	"strings"
	"time"
)

// Role es la variante cerrada de roles. No existe operación para cambiarlo.
type Role string

const (
	RoleUser   Role = "user"
	RoleDoctor Role = "doctor"
	RoleAdmin  Role = "admin"
)

func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser, true
	case RoleDoctor:
		return RoleDoctor, true
	case RoleAdmin:
		return RoleAdmin, true
	default:
		return "", false
	}
}

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

// StatusFor deriva el status del perfil del flag de la cuenta.
func StatusFor(active bool) Status {
	if active {
		return StatusActive
	}
	return StatusInactive
}

type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsActive     bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile es 1:1 con User. Phone y Specialization solo aplican a doctores.
type Profile struct {
	UserID         string
	Role           Role
	Status         Status
	Phone          *string
	Specialization *string
}

// Account agrupa User + Profile; los repos siempre leen/escriben ambos juntos.
type Account struct {
	User    User
	Profile Profile
}
