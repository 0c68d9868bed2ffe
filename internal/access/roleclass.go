package access

import "sampletrack/internal/domain"

// Area is a coarse resource guarded by the role-class policy.
type Area string

const (
	AreaSamples   Area = "samples"
	AreaLookups   Area = "lookups"
	AreaUsers     Area = "users"
	AreaRoles     Area = "roles"
	AreaAnalytics Area = "analytics"
	AreaAudit     Area = "audit"
)

// AllowsArea is the role-class gate. ADMIN-class may do anything, EDITOR-class
// may read and write samples and read lookups and analytics, every other role
// is refused.
func AllowsArea(role domain.Role, area Area, action domain.Action) bool {
	switch role.Class() {
	case domain.ClassAdmin:
		return true
	case domain.ClassEditor:
		switch area {
		case AreaSamples:
			return true
		case AreaLookups, AreaAnalytics:
			return action == domain.ActionRead
		case AreaUsers, AreaRoles, AreaAudit:
			return false
		}
		return false
	case domain.ClassNone:
		return false
	}
	return false
}

// RolesForArea lists the roles the role-class policy admits for (area, action).
func RolesForArea(area Area, action domain.Action) []domain.Role {
	var out []domain.Role
	for _, r := range domain.AllRoles {
		if AllowsArea(r, area, action) {
			out = append(out, r)
		}
	}
	return out
}

// CheckArea returns a *domain.ForbiddenError when the role-class gate refuses.
func CheckArea(role domain.Role, area Area, action domain.Action) error {
	if AllowsArea(role, area, action) {
		return nil
	}
	return &domain.ForbiddenError{Feature: string(area), Action: action, AllowedRoles: RolesForArea(area, action)}
}
