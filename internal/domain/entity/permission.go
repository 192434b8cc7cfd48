package entity

import "gatekeeper/internal/errors"

// Permission is a strongly-typed {resource, action} pair. Both fields are
// validated at construction so loosely-typed permission documents cannot
// enter the domain.
type Permission struct {
	Resource string `json:"resource"`
	Action   Action `json:"action"`
}

// Action enumerates the operations a permission can grant.
type Action string

const (
	ActionRead   Action = "read"
	ActionCreate Action = "create"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionManage Action = "manage"
)

// IsValid checks if the Action is a valid value.
func (a Action) IsValid() bool {
	switch a {
	case ActionRead, ActionCreate, ActionUpdate, ActionDelete, ActionManage:
		return true
	default:
		return false
	}
}

// NewPermission constructs a validated permission record.
func NewPermission(resource string, action Action) (Permission, error) {
	if resource == "" {
		return Permission{}, errors.New("permission resource must not be empty")
	}
	if !action.IsValid() {
		return Permission{}, errors.Errorf("unknown permission action: %s", action)
	}

	return Permission{Resource: resource, Action: action}, nil
}

// rolePermissions is the static role-to-permission mapping. Identities only
// carry a role tag; effective permissions are derived here.
var rolePermissions = map[Role][]Permission{
	RoleUser: {
		{Resource: "profile", Action: ActionRead},
		{Resource: "profile", Action: ActionUpdate},
	},
	RoleModerator: {
		{Resource: "profile", Action: ActionRead},
		{Resource: "profile", Action: ActionUpdate},
		{Resource: "identity", Action: ActionRead},
	},
	RoleAdmin: {
		{Resource: "profile", Action: ActionManage},
		{Resource: "identity", Action: ActionManage},
	},
}

// Permissions returns the permissions granted by the role.
func (r Role) Permissions() []Permission {
	return rolePermissions[r]
}
