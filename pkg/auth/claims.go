package auth

import (
	"slices"

	"github.com/golang-jwt/jwt/v5"
)

// Roles recognised by the risk API.
const (
	// RoleClinician may run assessments and read them back.
	RoleClinician = "clinician"
	// RoleAuditor may only read stored assessments.
	RoleAuditor = "auditor"
	// RoleService is for machine callers that submit assessments.
	RoleService = "service"
)

// Claims are the registered claims plus the caller's roles.
type Claims struct {
	jwt.RegisteredClaims
	Roles []string `json:"roles"`
}

func (c Claims) HasRole(role string) bool {
	return slices.Contains(c.Roles, role)
}

// HasAnyRole reports whether the claims carry at least one of roles.
func (c Claims) HasAnyRole(roles ...string) bool {
	return slices.ContainsFunc(roles, c.HasRole)
}
