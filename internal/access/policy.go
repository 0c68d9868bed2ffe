// Package access decides whether a role may perform an action on a feature.
//
// Two policies cooperate. The role-class policy is a coarse gate per area
// (samples, lookups, users...). The permission table holds per-role,
// per-feature read/write/approve flags and is consulted for stage and feature
// sensitive operations. ADMIN-class roles always pass the table.
package access

import (
	"sampletrack/internal/domain"
)

// Grant is one row of the permission table.
type Grant struct {
	Role       domain.Role
	FeatureKey string
	CanRead    bool
	CanWrite   bool
	CanApprove bool
}

// Allows reports whether the grant carries the flag for action.
func (g Grant) Allows(action domain.Action) bool {
	switch action {
	case domain.ActionRead:
		return g.CanRead
	case domain.ActionWrite:
		return g.CanWrite
	case domain.ActionApprove:
		return g.CanApprove
	default:
		return false
	}
}

// Decision is the outcome of Evaluate. A deny is a value, not an error.
type Decision struct {
	Allowed      bool          `json:"allowed"`
	Feature      string        `json:"feature"`
	Action       domain.Action `json:"action"`
	Reason       string        `json:"reason"`
	AllowedRoles []domain.Role `json:"allowed_roles,omitempty"`
}

// Err converts a deny into a *domain.ForbiddenError. It returns nil when allowed.
func (d Decision) Err() error {
	if d.Allowed {
		return nil
	}
	return &domain.ForbiddenError{Feature: d.Feature, Action: d.Action, AllowedRoles: d.AllowedRoles}
}

const (
	ReasonAdmin          = "admin-class role"
	ReasonGranted        = "granted by role permission"
	ReasonUnknownFeature = "unknown feature key"
	ReasonUnknownRole    = "unknown role"
	ReasonNoRow          = "no permission row for role and feature"
	ReasonFlagNotSet     = "permission flag not set"
	ReasonUnknownAction  = "unknown action"
)

// Policy is an immutable snapshot of the permission table.
type Policy struct {
	grants map[domain.Role]map[string]Grant
}

// NewPolicy indexes grants. Rows for unknown roles or features are dropped; a
// later row for the same (role, feature) pair replaces an earlier one.
func NewPolicy(grants []Grant) *Policy {
	p := &Policy{grants: make(map[domain.Role]map[string]Grant)}
	for _, g := range grants {
		if !g.Role.Valid() {
			continue
		}
		key := domain.NormalizeFeature(g.FeatureKey)
		if !domain.IsKnownFeature(key) {
			continue
		}
		g.FeatureKey = key
		byFeature, ok := p.grants[g.Role]
		if !ok {
			byFeature = make(map[string]Grant)
			p.grants[g.Role] = byFeature
		}
		byFeature[key] = g
	}
	return p
}

// Grant returns the row for (role, feature), if any.
func (p *Policy) Grant(role domain.Role, feature string) (Grant, bool) {
	g, ok := p.grants[role][domain.NormalizeFeature(feature)]
	return g, ok
}

// Evaluate decides (role, feature, action). Evaluation order:
// ADMIN-class allows, an unknown feature or action denies, unknown role
// denies, a missing row denies, otherwise the row's flag decides.
func (p *Policy) Evaluate(role domain.Role, feature string, action domain.Action) Decision {
	key := domain.NormalizeFeature(feature)
	d := Decision{Feature: key, Action: action}

	if role.Class() == domain.ClassAdmin {
		d.Allowed = true
		d.Reason = ReasonAdmin
		return d
	}
	if !domain.IsKnownFeature(key) {
		d.Reason = ReasonUnknownFeature
		return d
	}
	if _, ok := domain.ParseAction(string(action)); !ok {
		d.Reason = ReasonUnknownAction
		return d
	}

	switch role.Class() {
	case domain.ClassNone:
		d.Reason = ReasonUnknownRole
		d.AllowedRoles = p.AllowedRoles(key, action)
		return d
	case domain.ClassAdmin, domain.ClassEditor:
	}

	g, ok := p.grants[role][key]
	switch {
	case !ok:
		d.Reason = ReasonNoRow
	case g.Allows(action):
		d.Allowed = true
		d.Reason = ReasonGranted
		return d
	default:
		d.Reason = ReasonFlagNotSet
	}
	d.AllowedRoles = p.AllowedRoles(key, action)
	return d
}

// AllowedRoles lists the roles that would pass (feature, action), in
// domain.AllRoles order. ADMIN-class roles are always included.
func (p *Policy) AllowedRoles(feature string, action domain.Action) []domain.Role {
	key := domain.NormalizeFeature(feature)
	var out []domain.Role
	for _, r := range domain.AllRoles {
		if r.IsAdmin() {
			out = append(out, r)
			continue
		}
		if g, ok := p.grants[r][key]; ok && g.Allows(action) {
			out = append(out, r)
		}
	}
	return out
}

// Matrix returns the effective flags of role for every known feature.
func (p *Policy) Matrix(role domain.Role) []Grant {
	out := make([]Grant, 0, len(domain.Features))
	for _, f := range domain.Features {
		g := Grant{Role: role, FeatureKey: f.Key}
		if role.IsAdmin() {
			g.CanRead, g.CanWrite, g.CanApprove = true, true, true
		} else if row, ok := p.grants[role][f.Key]; ok {
			g = row
		}
		out = append(out, g)
	}
	return out
}
