package entity

import (
	"fmt"
	"time"
)

// Role is one of the fixed, non-exclusive permissions a user can hold.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleBusiness Role = "business"
	RoleUser     Role = "user"
)

// RoleFlags is the persisted role set.
type RoleFlags struct {
	IsAdmin    bool `json:"isAdmin"`
	IsBusiness bool `json:"isBusiness"`
	IsUser     bool `json:"isUser"`
}

// Has reports whether the flags grant r.
func (f RoleFlags) Has(r Role) bool {
	switch r {
	case RoleAdmin:
		return f.IsAdmin
	case RoleBusiness:
		return f.IsBusiness
	case RoleUser:
		return f.IsUser
	}
	return false
}

// HasAny reports whether at least one of roles is granted.
func (f RoleFlags) HasAny(roles ...Role) bool {
	for _, r := range roles {
		if f.Has(r) {
			return true
		}
	}
	return false
}

// TempAdminDuration is the closed set of temporary admin grant lengths.
type TempAdminDuration string

const (
	TempAdminOneDay   TempAdminDuration = "1day"
	TempAdminOneWeek  TempAdminDuration = "1week"
	TempAdminOneMonth TempAdminDuration = "1month"
)

// ParseTempAdminDuration rejects anything outside the closed enumeration.
func ParseTempAdminDuration(s string) (TempAdminDuration, error) {
	switch d := TempAdminDuration(s); d {
	case TempAdminOneDay, TempAdminOneWeek, TempAdminOneMonth:
		return d, nil
	}
	return "", fmt.Errorf("unsupported temp admin duration %q", s)
}

// ExpiryFrom returns the instant the grant lapses when issued at now.
func (d TempAdminDuration) ExpiryFrom(now time.Time) time.Time {
	switch d {
	case TempAdminOneDay:
		return now.AddDate(0, 0, 1)
	case TempAdminOneWeek:
		return now.AddDate(0, 0, 7)
	case TempAdminOneMonth:
		return now.AddDate(0, 1, 0)
	}
	return now
}
