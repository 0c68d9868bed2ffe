package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		want  Role
		class RoleClass
	}{
		{in: "SUPER_ADMIN", want: RoleSuperAdmin, class: ClassAdmin},
		{in: "admin", want: RoleAdmin, class: ClassAdmin},
		{in: " pd ", want: RolePD, class: ClassEditor},
		{in: "MD", want: RoleMD, class: ClassEditor},
		{in: "TD", want: RoleTD, class: ClassEditor},
		{in: "COSTING", want: RoleCosting, class: ClassEditor},
		{in: "FACTORY", want: RoleFactory, class: ClassEditor},
		{in: "VIEWER", want: RoleUnknown, class: ClassNone},
		{in: "", want: RoleUnknown, class: ClassNone},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got := ParseRole(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.class, got.Class())
		})
	}
}

func TestAllRolesHaveAClass(t *testing.T) {
	t.Parallel()
	for _, r := range AllRoles {
		assert.True(t, r.Valid(), r)
	}
}

func TestIsTerminalStatus(t *testing.T) {
	t.Parallel()
	assert.True(t, IsTerminalStatus("delivered"))
	assert.True(t, IsTerminalStatus("Delivered to Denver"))
	assert.True(t, IsTerminalStatus("PARTIAL_DELIVERY"))
	assert.False(t, IsTerminalStatus("in_progress"))
	assert.False(t, IsTerminalStatus(""))
}

func TestForbiddenError(t *testing.T) {
	t.Parallel()

	err := &ForbiddenError{Feature: FeatureCosting, Action: ActionWrite, AllowedRoles: []Role{RoleAdmin, RoleCosting}}
	require.ErrorIs(t, err, ErrForbidden)
	assert.Contains(t, err.Error(), "COSTING")
	assert.Contains(t, err.Error(), "ADMIN, COSTING")

	var fe *ForbiddenError
	require.True(t, errors.As(error(err), &fe))
	assert.Equal(t, ActionWrite, fe.Action)
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	single := NewValidationError("stage", "unknown stage")
	require.ErrorIs(t, single, ErrValidation)
	assert.Equal(t, "validation: stage: unknown stage", single.Error())

	multi := NewValidationErrors([]FieldError{{Field: "a", Message: "x"}, {Field: "b", Message: "y"}})
	assert.Contains(t, multi.Error(), "2 errors")
}

func TestFeatures(t *testing.T) {
	t.Parallel()
	assert.True(t, IsKnownFeature("psi"))
	assert.True(t, IsKnownFeature("ROLES"))
	assert.False(t, IsKnownFeature("INVOICES"))

	a, ok := ParseAction("WRITE")
	require.True(t, ok)
	assert.Equal(t, ActionWrite, a)
	_, ok = ParseAction("delete")
	assert.False(t, ok)
}
