package entity

import (
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// usernameSuffixLen is the number of trailing subject runes used for a provisioned username.
const usernameSuffixLen = 6

// Identity is a person known to the system, authenticated either by password or by a
// federated provider. At least one of PasswordHash and ExternalSubject is set.
type Identity struct {
	ID              uint64    // Surrogate key, carried as the token subject.
	Username        string    // Login name for password identities; derived for federated ones.
	PasswordHash    string    // bcrypt hash, empty for federated-only identities.
	ExternalSubject string    // Stable subject issued by the federated provider.
	Name            string    // Display name, refreshed from the provider on login.
	Email           string    // Contact email, refreshed from the provider on login.
	RoleID          *uint64   // Reference to the roles table; nil for legacy rows.
	Role            *Role     // Resolved role, populated when loaded with its role.
	CreatedAt       time.Time // Timestamp of when this identity was created.
	UpdatedAt       time.Time // Timestamp of the last modification.
}

// HasPassword reports whether the identity can log in with a password.
func (i *Identity) HasPassword() bool {
	return i.PasswordHash != ""
}

// IsFederated reports whether the identity is bound to an external subject.
func (i *Identity) IsFederated() bool {
	return i.ExternalSubject != ""
}

// SubjectString renders the id in the form carried by the token "sub" claim.
func (i *Identity) SubjectString() string {
	return strconv.FormatUint(i.ID, 10)
}

// ApplyProfile copies the non-empty fields of profile that differ from the current values.
// It reports whether anything changed.
func (i *Identity) ApplyProfile(profile ExternalProfile) bool {
	changed := false
	if profile.Name != "" && profile.Name != i.Name {
		i.Name = profile.Name
		changed = true
	}
	if profile.Email != "" && profile.Email != i.Email {
		i.Email = profile.Email
		changed = true
	}

	return changed
}

// ParseSubject converts a token subject back into an identity id.
func ParseSubject(subject string) (uint64, error) {
	id, err := strconv.ParseUint(subject, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.Errorf("invalid subject %q", subject)
	}

	return id, nil
}

// ExternalProfile holds the profile attributes reported by a federated provider.
type ExternalProfile struct {
	Name  string
	Email string
}

// DeriveUsername builds the username of an identity provisioned from an external subject:
// "user_" followed by the last six runes of the subject, or the whole subject when shorter.
func DeriveUsername(subject string) string {
	runes := []rune(subject)
	if len(runes) > usernameSuffixLen {
		runes = runes[len(runes)-usernameSuffixLen:]
	}

	return "user_" + string(runes)
}

// FallbackUsername is used when the derived username is already taken by another identity.
func FallbackUsername(subject string) string {
	return "user_" + subject
}

// Principal is the authenticated caller attached to a request.
type Principal struct {
	Identity *Identity
	Role     RoleName
}
