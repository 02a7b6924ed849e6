package models

import (
	"fmt"
	"strings"
)

// Role is the fixed set of user roles known to the system
type Role uint8

const (
	RoleUnknown Role = iota
	RoleSuperAdmin
	RoleAdmin
	RoleDoctor
	RoleStaff

	// RoleCount sizes the per-role lookup tables
	RoleCount
)

var roleNames = [RoleCount]string{
	RoleUnknown:    "",
	RoleSuperAdmin: "SUPER_ADMIN",
	RoleAdmin:      "ADMIN",
	RoleDoctor:     "DOCTOR",
	RoleStaff:      "STAFF",
}

// Roles lists the assignable roles in display order
var Roles = []Role{RoleSuperAdmin, RoleAdmin, RoleDoctor, RoleStaff}

// SystemTenant is the cid carried by SUPER_ADMIN users
const SystemTenant = "SYSTEM"

// ParseRole maps a backend role name to a Role. Unrecognised names yield RoleUnknown.
func ParseRole(s string) Role {
	s = strings.ToUpper(strings.TrimSpace(s))
	for r := RoleSuperAdmin; r < RoleCount; r++ {
		if roleNames[r] == s {
			return r
		}
	}
	return RoleUnknown
}

func (r Role) String() string {
	if r >= RoleCount {
		return ""
	}
	return roleNames[r]
}

// Valid reports whether r is one of the assignable roles
func (r Role) Valid() bool {
	return r > RoleUnknown && r < RoleCount
}

func (r Role) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed := ParseRole(string(b))
	if parsed == RoleUnknown && len(b) > 0 {
		return fmt.Errorf("unknown role %q", string(b))
	}
	*r = parsed
	return nil
}

// RoleSet is a set of roles. The zero value means "no role requirement".
type RoleSet uint8

// RolesOf builds a RoleSet
func RolesOf(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		if r.Valid() {
			s |= 1 << r
		}
	}
	return s
}

// Declared reports whether the set restricts access at all
func (s RoleSet) Declared() bool {
	return s != 0
}

// Has reports whether r is a member of s
func (s RoleSet) Has(r Role) bool {
	return r.Valid() && s&(1<<r) != 0
}

// Theme is the UI colour scheme stored on the session
type Theme string

const (
	ThemeDark      Theme = "dark"
	ThemeLight     Theme = "light"
	ThemeCorporate Theme = "corporate"
)

// Themes lists the selectable themes in display order
var Themes = []Theme{ThemeDark, ThemeLight, ThemeCorporate}

func (t Theme) Valid() bool {
	switch t {
	case ThemeDark, ThemeLight, ThemeCorporate:
		return true
	}
	return false
}

// Label is the short name shown on the theme switcher
func (t Theme) Label() string {
	switch t {
	case ThemeDark:
		return "Dark"
	case ThemeLight:
		return "Light"
	case ThemeCorporate:
		return "Corp"
	}
	return string(t)
}
