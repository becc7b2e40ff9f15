// Package entity contains the core business objects of the project.
package entity

import (
	"slices"
	"strings"
)

// RoleName is the unique name of an authorization tier.
type RoleName string

const (
	// RoleAdmin indicates a school administrator.
	RoleAdmin RoleName = "admin"
	// RoleTeacher indicates instructional staff.
	RoleTeacher RoleName = "teacher"
	// RoleStudent indicates a learner.
	RoleStudent RoleName = "student"
)

const (
	// DefaultProvisionedRole is assigned to identities created on first federated login.
	DefaultProvisionedRole = RoleStudent

	// LegacyFallbackRole is reported for identities whose role reference does not resolve.
	// Tokens minted before roles were normalized carry this value, so it must stay stable
	// until those tokens can no longer be in circulation.
	LegacyFallbackRole = RoleAdmin
)

// String returns the string representation of the RoleName.
func (r RoleName) String() string {
	return string(r)
}

// Role is a named authorization tier stored in the roles table.
type Role struct {
	ID          uint64
	Name        RoleName
	Description string
}

// ResolveRoleName returns the role name carried in tokens for the identity.
// It is the only place the legacy fallback is applied.
func ResolveRoleName(identity *Identity) RoleName {
	if identity == nil || identity.Role == nil || identity.Role.Name == "" {
		return LegacyFallbackRole
	}

	return identity.Role.Name
}

// RoleSet is the closed set of role names an endpoint accepts.
type RoleSet []RoleName

// Contains checks if the set contains a specific role.
func (rs RoleSet) Contains(role RoleName) bool {
	return slices.Contains(rs, role)
}

// ToStrings converts the set to plain strings.
func (rs RoleSet) ToStrings() []string {
	result := make([]string, len(rs))
	for i, r := range rs {
		result[i] = r.String()
	}

	return result
}

// String renders the set for logs.
func (rs RoleSet) String() string {
	return "{" + strings.Join(rs.ToStrings(), ",") + "}"
}
