// Package role defines the bot's authorization tiers.
package role

import (
	"fmt"
	"strings"
)

// Role is a totally ordered authorization tier: Guest < User < Moderator < Admin.
type Role int

const (
	Guest Role = iota
	User
	Moderator
	Admin
)

var names = [...]string{"Guest", "User", "Moderator", "Admin"}

// All lists every tier in ascending order.
func All() []Role { return []Role{Guest, User, Moderator, Admin} }

func (r Role) String() string {
	if !r.Valid() {
		return fmt.Sprintf("Role(%d)", int(r))
	}
	return names[r]
}

// Valid reports whether r is one of the four tiers.
func (r Role) Valid() bool { return r >= Guest && r <= Admin }

// AtLeast reports whether r grants everything required grants.
func (r Role) AtLeast(required Role) bool { return r >= required }

// Parse resolves a tier by name, ignoring case.
func Parse(s string) (Role, error) {
	for i, n := range names {
		if strings.EqualFold(n, strings.TrimSpace(s)) {
			return Role(i), nil
		}
	}
	return Guest, fmt.Errorf("unknown role %q", s)
}

// MarshalText stores roles by name so persisted data survives reordering.
func (r Role) MarshalText() ([]byte, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid role %d", int(r))
	}
	return []byte(r.String()), nil
}

func (r *Role) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}
