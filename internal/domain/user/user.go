package user

import (
	"errors"
	"strings"
	"time"
)

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

var (
	ErrDuplicateEmail     = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("user not found")
	ErrPersistence        = errors.New("user store failure")
	ErrValidation         = errors.New("invalid user input")
)

// PublicUser is the only view of a user that leaves the service layer.
type PublicUser struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CredentialRecord carries the password hash and is only read by login.
type CredentialRecord struct {
	PublicUser
	PasswordHash string `json:"-"` // never expose hash in JSON
}

func (r CredentialRecord) Public() PublicUser {
	return r.PublicUser
}

// NewUser is what the store persists on registration.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
	Role         Role
}

// MaxPasswordBytes is bcrypt's input limit. It counts bytes, not characters.
const MaxPasswordBytes = 72

type RegisterRequest struct {
	Name     string `json:"name" binding:"required,max=100"`
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,maxbytes=72"`
	Role     Role   `json:"role" binding:"omitempty,oneof=user admin"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=254"`
	Password string `json:"password" binding:"required,maxbytes=72"`
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// RoleOrDefault falls back to RoleUser when no role was supplied.
func RoleOrDefault(r Role) Role {
	if r == "" {
		return RoleUser
	}
	return r
}
