package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPermission_Valid(t *testing.T) {
	p, err := NewPermission("identity", ActionRead)

	require.NoError(t, err)
	assert.Equal(t, "identity", p.Resource)
	assert.Equal(t, ActionRead, p.Action)
}

func TestNewPermission_EmptyResource(t *testing.T) {
	_, err := NewPermission("", ActionRead)

	require.Error(t, err)
}

func TestNewPermission_UnknownAction(t *testing.T) {
	_, err := NewPermission("identity", Action("fly"))

	require.Error(t, err)
}

func TestRolePermissions(t *testing.T) {
	adminPerms := RoleAdmin.Permissions()
	require.NotEmpty(t, adminPerms)
	assert.Contains(t, adminPerms, Permission{Resource: "identity", Action: ActionManage})

	userPerms := RoleUser.Permissions()
	require.NotEmpty(t, userPerms)
	for _, p := range userPerms {
		assert.NotEqual(t, "identity", p.Resource, "regular users get no identity permissions")
	}

	assert.Empty(t, Role("ghost").Permissions())
}

func TestRoleFromString(t *testing.T) {
	role, ok := RoleFromString("moderator")
	require.True(t, ok)
	assert.Equal(t, RoleModerator, role)

	_, ok = RoleFromString("superuser")
	assert.False(t, ok)
}

func TestTokenClassIsValid(t *testing.T) {
	assert.True(t, TokenClassAccess.IsValid())
	assert.True(t, TokenClassRefresh.IsValid())
	assert.False(t, TokenClass("session").IsValid())
}
