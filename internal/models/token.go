package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims carries the caller identity threaded through every service
// call: who is calling, their role, and the volunteer profile they own.
type JWTClaims struct {
	UserID      string   `json:"uid"`
	Email       string   `json:"email"`
	Role        UserRole `json:"role"`
	VolunteerID string   `json:"volunteer_id,omitempty"`
	jwt.RegisteredClaims
}

// IsAdmin reports whether the caller holds the admin role.
func (c *JWTClaims) IsAdmin() bool {
	return c != nil && c.Role == RoleAdmin
}

// CanActFor reports whether the caller may read or mutate association
// state belonging to the given volunteer.
func (c *JWTClaims) CanActFor(volunteerID string) bool {
	if c == nil {
		return false
	}
	return c.Role == RoleAdmin || (c.VolunteerID != "" && c.VolunteerID == volunteerID)
}
