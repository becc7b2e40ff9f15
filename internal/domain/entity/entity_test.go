package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveUsername(t *testing.T) {
	tests := []struct {
		name    string
		subject string
		want    string
	}{
		{name: "long subject keeps last six runes", subject: "U1234567890abcdef", want: "user_abcdef"},
		{name: "short subject kept whole", subject: "U123", want: "user_U123"},
		{name: "exactly six runes", subject: "U12345", want: "user_U12345"},
		{name: "multibyte runes are not split", subject: "甲乙丙丁戊己庚辛", want: "user_丙丁戊己庚辛"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveUsername(tt.subject))
		})
	}
}

func TestResolveRoleName(t *testing.T) {
	assert.Equal(t, RoleAdmin, ResolveRoleName(nil))
	assert.Equal(t, RoleAdmin, ResolveRoleName(&Identity{ID: 1}))
	assert.Equal(t, RoleAdmin, ResolveRoleName(&Identity{ID: 1, Role: &Role{}}))
	assert.Equal(t, RoleStudent, ResolveRoleName(&Identity{ID: 1, Role: &Role{ID: 3, Name: RoleStudent}}))
}

func TestRoleSet(t *testing.T) {
	staff := RoleSet{RoleAdmin, RoleTeacher}

	assert.True(t, staff.Contains(RoleAdmin))
	assert.True(t, staff.Contains(RoleTeacher))
	assert.False(t, staff.Contains(RoleStudent))
	assert.False(t, staff.Contains(""))
	assert.Equal(t, []string{"admin", "teacher"}, staff.ToStrings())
	assert.Equal(t, "{admin,teacher}", staff.String())
}

func TestParseSubject(t *testing.T) {
	id, err := ParseSubject("42")
	require.NoError(t, err)
	assert.Equal(t, uint64(42), id)

	for _, bad := range []string{"", "0", "-1", "admin1", "4.2"} {
		_, err := ParseSubject(bad)
		assert.Error(t, err, bad)
	}

	identity := &Identity{ID: 42}
	assert.Equal(t, "42", identity.SubjectString())
}

func TestIdentity_ApplyProfile(t *testing.T) {
	identity := &Identity{Name: "Ann", Email: "ann@example.com"}

	assert.False(t, identity.ApplyProfile(ExternalProfile{}))
	assert.False(t, identity.ApplyProfile(ExternalProfile{Name: "Ann"}))

	assert.True(t, identity.ApplyProfile(ExternalProfile{Name: "Annie"}))
	assert.Equal(t, "Annie", identity.Name)
	assert.Equal(t, "ann@example.com", identity.Email)

	assert.True(t, identity.ApplyProfile(ExternalProfile{Email: "annie@example.com"}))
	assert.Equal(t, "annie@example.com", identity.Email)
}

func TestIdentity_CredentialFlags(t *testing.T) {
	federated := &Identity{ExternalSubject: "U123"}
	assert.True(t, federated.IsFederated())
	assert.False(t, federated.HasPassword())

	admin := &Identity{Username: "admin1", PasswordHash: "$2a$10$x"}
	assert.True(t, admin.HasPassword())
	assert.False(t, admin.IsFederated())
}

func TestRefreshSession_IsExpired(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	session := &RefreshSession{ExpiresAt: now.Add(time.Minute)}

	assert.False(t, session.IsExpired(now))
	assert.True(t, session.IsExpired(now.Add(time.Minute)))
	assert.True(t, session.IsExpired(now.Add(time.Hour)))
}
