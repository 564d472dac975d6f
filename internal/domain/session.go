package domain

import "strings"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
)

const (
	GuestLabel  = "Гость"
	SystemLabel = "system"
)

func ParseRole(s string) (Role, bool) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleSeller:
		return RoleSeller, true
	case RoleBuyer:
		return RoleBuyer, true
	}
	return "", false
}

// Session is the acting identity of a single request. Buyers are anonymous:
// the zero Session is a guest buyer.
type Session struct {
	Username string
	Role     Role
}

func GuestSession() Session {
	return Session{Role: RoleBuyer}
}

func (s Session) EffectiveRole() Role {
	if s.Role == "" {
		return RoleBuyer
	}
	return s.Role
}

// CanManageCatalog reports whether the session may create, edit or remove equipment.
func (s Session) CanManageCatalog() bool {
	r := s.EffectiveRole()
	return r == RoleSeller || r == RoleAdmin
}

func (s Session) IsAdmin() bool {
	return s.EffectiveRole() == RoleAdmin
}

// SeesOutOfStock reports whether zero-quantity items are listed for this session.
func (s Session) SeesOutOfStock() bool {
	return s.CanManageCatalog()
}

// Actor returns the label written to history for catalog mutations.
func (s Session) Actor() string {
	if u := strings.TrimSpace(s.Username); u != "" {
		return u
	}
	return SystemLabel
}
