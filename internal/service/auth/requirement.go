package auth

import (
	"fmt"
	"strings"

	apperrors "github.com/latra/medicsystem-gta-backend/pkg/errors"

	"github.com/latra/medicsystem-gta-backend/internal/model"
)

// Requirement is an access policy evaluated against a principal.
// Check returns nil when the principal satisfies the policy and a
// forbidden error naming the unmet requirement otherwise.
type Requirement interface {
	Check(p *Principal) error
	Name() string
}

type anyAuthenticated struct{}

// AnyAuthenticated passes for every authenticated principal.
func AnyAuthenticated() Requirement { return anyAuthenticated{} }

func (anyAuthenticated) Check(*Principal) error { return nil }
func (anyAuthenticated) Name() string           { return "authenticated" }

type roleRequirement struct {
	role model.UserRole
}

// Role requires the principal's role to match exactly. Admin status
// does not substitute for the role itself.
func Role(role model.UserRole) Requirement { return roleRequirement{role: role} }

func (r roleRequirement) Check(p *Principal) error {
	if p.Role() != r.role {
		return apperrors.Forbidden(r.Name())
	}
	return nil
}

func (r roleRequirement) Name() string { return fmt.Sprintf("role %s", r.role) }

type roleInRequirement struct {
	roles []model.UserRole
}

// RoleIn requires membership in any of the given roles.
func RoleIn(roles ...model.UserRole) Requirement { return roleInRequirement{roles: roles} }

func (r roleInRequirement) Check(p *Principal) error {
	for _, role := range r.roles {
		if p.Role() == role {
			return nil
		}
	}
	return apperrors.Forbidden(r.Name())
}

func (r roleInRequirement) Name() string {
	names := make([]string, len(r.roles))
	for i, role := range r.roles {
		names[i] = string(role)
	}
	return fmt.Sprintf("role in [%s]", strings.Join(names, ", "))
}

type isAdmin struct{}

// IsAdmin requires the admin flag regardless of role.
func IsAdmin() Requirement { return isAdmin{} }

func (isAdmin) Check(p *Principal) error {
	if !p.IsAdmin() {
		return apperrors.Forbidden("admin")
	}
	return nil
}

func (isAdmin) Name() string { return "admin" }

type anyOf struct {
	reqs []Requirement
}

// AnyOf passes when at least one of the requirements passes.
func AnyOf(reqs ...Requirement) Requirement { return anyOf{reqs: reqs} }

func (r anyOf) Check(p *Principal) error {
	for _, req := range r.reqs {
		if req.Check(p) == nil {
			return nil
		}
	}
	return apperrors.Forbidden(r.Name())
}

func (r anyOf) Name() string {
	names := make([]string, len(r.reqs))
	for i, req := range r.reqs {
		names[i] = req.Name()
	}
	return strings.Join(names, " or ")
}

// DoctorOrAdmin accepts doctors and admin-flagged users of any role.
func DoctorOrAdmin() Requirement {
	return AnyOf(Role(model.RoleDoctor), IsAdmin())
}
