package model

import "time"

// PasswordHasher produces and checks one-way password hashes.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// TokenIssuer derives session tokens from login and password hash material.
type TokenIssuer interface {
	Issue(login, passwordHash string) string
}

// ServiceTokenManager issues and validates credentials of trusted internal
// services allowed to run privileged account actions.
type ServiceTokenManager interface {
	GenerateServiceToken(service string, ttl time.Duration) (string, error)
	ParseServiceToken(token string) (service string, err error)
}
