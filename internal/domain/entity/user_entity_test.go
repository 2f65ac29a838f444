package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserPatchNormalize(t *testing.T) {
	exp := time.Now().Add(time.Hour)

	t.Run("revoking admin clears temp expiry", func(t *testing.T) {
		p := UserPatch{IsAdmin: Ptr(false), TempAdminExpiry: &exp}.Normalize()
		assert.True(t, p.ClearTempAdminExpiry)
		assert.Nil(t, p.TempAdminExpiry)
	})

	t.Run("temporary grant keeps expiry", func(t *testing.T) {
		p := UserPatch{IsAdmin: Ptr(true), TempAdminExpiry: &exp}.Normalize()
		assert.False(t, p.ClearTempAdminExpiry)
		require.NotNil(t, p.TempAdminExpiry)
	})

	t.Run("permanent grant drops expiry", func(t *testing.T) {
		p := UserPatch{IsAdmin: Ptr(true)}.Normalize()
		assert.True(t, p.ClearTempAdminExpiry)
	})

	t.Run("email lower-cased", func(t *testing.T) {
		p := UserPatch{Email: Ptr("  Foo@Example.COM ")}.Normalize()
		assert.Equal(t, "foo@example.com", *p.Email)
	})
}

func TestUserPatchApply(t *testing.T) {
	exp := time.Now().Add(time.Hour)
	tok := "abc"
	u := &User{
		Roles:                RoleFlags{IsAdmin: true, IsUser: true},
		TempAdminExpiry:      &exp,
		ResetPasswordToken:   &tok,
		ResetPasswordExpires: &exp,
	}

	UserPatch{IsAdmin: Ptr(false), ClearResetToken: true, IsOnline: Ptr(true)}.Apply(u)

	assert.False(t, u.Roles.IsAdmin)
	assert.True(t, u.Roles.IsUser)
	assert.Nil(t, u.TempAdminExpiry)
	assert.Nil(t, u.ResetPasswordToken)
	assert.Nil(t, u.ResetPasswordExpires)
	assert.True(t, u.IsOnline)
}

func TestRoleFlagsHasAny(t *testing.T) {
	f := RoleFlags{IsBusiness: true}
	assert.True(t, f.HasAny(RoleAdmin, RoleBusiness))
	assert.False(t, f.HasAny(RoleAdmin))
	assert.False(t, f.HasAny())
}

func TestParseTempAdminDuration(t *testing.T) {
	now := time.Date(2026, 1, 31, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Time
	}{
		{"1day", now.Add(24 * time.Hour)},
		{"1week", now.Add(7 * 24 * time.Hour)},
		{"1month", now.AddDate(0, 1, 0)},
	}
	for _, tt := range tests {
		d, err := ParseTempAdminDuration(tt.in)
		require.NoError(t, err)
		assert.Equal(t, tt.want, d.ExpiryFrom(now))
	}

	for _, bad := range []string{"", "2days", "1year", "1DAY"} {
		_, err := ParseTempAdminDuration(bad)
		assert.Error(t, err, bad)
	}
}

func TestOAuthProfilePrimaryEmail(t *testing.T) {
	p := OAuthProfile{Emails: []string{"  ", "Jane@Example.com"}}
	assert.Equal(t, "jane@example.com", p.PrimaryEmail())
	assert.Empty(t, OAuthProfile{}.PrimaryEmail())
}
