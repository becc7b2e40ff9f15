// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

// PasswordHasher defines the interface for password hashing and verification.
// This abstracts the underlying hashing algorithm (e.g., bcrypt), keeping the domain pure.
type PasswordHasher interface {
	// HashPassword generates a salted hash from a plaintext password.
	HashPassword(password string) (string, error)

	// VerifyPassword compares a plaintext password with a hash. A malformed hash never matches.
	VerifyPassword(password, hash string) bool
}
