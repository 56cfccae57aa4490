package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Authentication errors
var (
	ErrUnauthorized       = errors.New("unauthorized")
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// BcryptCost is used for new password hashes.
var BcryptCost = bcrypt.DefaultCost

// Email is a normalized (lower-cased, trimmed) email address.
type Email struct {
	value string
}

func ParseEmail(s string) (Email, error) {
	if err := ValidateEmail(s); err != nil {
		return Email{}, err
	}
	return Email{value: strings.ToLower(strings.TrimSpace(s))}, nil
}

func (e Email) String() string {
	return e.value
}

func (e Email) Equals(other Email) bool {
	return e.value == other.value
}

// PasswordHash is a bcrypt hash. The plaintext is never kept.
type PasswordHash struct {
	hash []byte
}

// HashPassword checks password strength and hashes it.
func HashPassword(password string) (PasswordHash, error) {
	if err := ValidatePassword(password); err != nil {
		return PasswordHash{}, err
	}
	h, err := bcrypt.GenerateFromPassword([]byte(password), BcryptCost)
	if err != nil {
		return PasswordHash{}, fmt.Errorf("hash password: %w", err)
	}
	return PasswordHash{hash: h}, nil
}

// RestorePasswordHash wraps a stored hash.
func RestorePasswordHash(hash string) PasswordHash {
	return PasswordHash{hash: []byte(hash)}
}

// Matches reports whether password produces this hash.
func (p PasswordHash) Matches(password string) bool {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(password)) == nil
}

func (p PasswordHash) String() string {
	return string(p.hash)
}

// User owns accounts and transactions.
type User struct {
	EntityIdentity
	EntityTimestamps

	email        Email
	name         string
	passwordHash PasswordHash
}

// UserRow is the persisted shape of a user.
type UserRow struct {
	ID           ID
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CreateUser validates input and hashes the password.
func CreateUser(email, name, password string) (*User, error) {
	e, err := ParseEmail(email)
	if err != nil {
		return nil, err
	}
	if err := ValidateUserName(name); err != nil {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	return &User{
		EntityIdentity:   newIdentity(),
		EntityTimestamps: newTimestamps(),
		email:            e,
		name:             strings.TrimSpace(name),
		passwordHash:     hash,
	}, nil
}

func RestoreUser(row UserRow) (*User, error) {
	e, err := ParseEmail(row.Email)
	if err != nil {
		return nil, err
	}
	return &User{
		EntityIdentity:   EntityIdentity{id: row.ID},
		EntityTimestamps: restoreTimestamps(row.CreatedAt, row.UpdatedAt),
		email:            e,
		name:             row.Name,
		passwordHash:     RestorePasswordHash(row.PasswordHash),
	}, nil
}

func (u *User) Email() Email {
	return u.email
}

func (u *User) Name() string {
	return u.name
}

// CheckPassword compares password with the stored hash.
func (u *User) CheckPassword(password string) bool {
	return u.passwordHash.Matches(password)
}

func (u *User) ToPersistence() UserRow {
	return UserRow{
		ID:           u.ID(),
		Email:        u.email.String(),
		Name:         u.name,
		PasswordHash: u.passwordHash.String(),
		CreatedAt:    u.CreatedAt().Time(),
		UpdatedAt:    u.UpdatedAt().Time(),
	}
}
