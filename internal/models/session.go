package models

import (
	"errors"
	"time"
)

// Session is the locally held proof of authentication plus role, tenant and theme
type Session struct {
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Role     Role   `json:"role"`
	CID      string `json:"cid"`
	Token    string `json:"token"`
	Theme    Theme  `json:"theme"`

	ExpiresAt time.Time `json:"expiresAt,omitempty"`
}

// Validate rejects sessions that cannot have come from a successful login
func (s *Session) Validate() error {
	if s == nil {
		return errors.New("session is nil")
	}
	if s.Token == "" {
		return errors.New("session has no token")
	}
	if !s.Role.Valid() {
		return errors.New("session has no valid role")
	}
	if s.Theme != "" && !s.Theme.Valid() {
		return errors.New("session has an unknown theme")
	}
	if !s.ExpiresAt.IsZero() && time.Now().After(s.ExpiresAt) {
		return errors.New("session has expired")
	}
	return nil
}

// Remaining is the time left before the session expires, or fallback when unbounded
func (s *Session) Remaining(fallback time.Duration) time.Duration {
	if s.ExpiresAt.IsZero() {
		return fallback
	}
	return time.Until(s.ExpiresAt)
}

// IsSuperAdmin reports whether the session operates across tenants
func (s *Session) IsSuperAdmin() bool {
	return s != nil && s.Role == RoleSuperAdmin
}

// Initial is the avatar letter shown next to the user's name
func (s *Session) Initial() string {
	for _, r := range s.FullName {
		return string(r)
	}
	return "U"
}

// Public is the session as exposed over the JSON surface, without the token
type Public struct {
	UserID   string `json:"userId,omitempty"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	Role     Role   `json:"role"`
	CID      string `json:"cid"`
	Theme    Theme  `json:"theme"`
}

func (s *Session) Public() Public {
	return Public{
		UserID:   s.UserID,
		Username: s.Username,
		FullName: s.FullName,
		Role:     s.Role,
		CID:      s.CID,
		Theme:    s.Theme,
	}
}
