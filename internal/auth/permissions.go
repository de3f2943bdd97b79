package auth

// Role identifies the kind of caller.
type Role string

// Roles.
const (
	// RoleSkill is the voice skill adapter forwarding directives.
	RoleSkill Role = "skill"

	// RoleViewer may watch the audit log and event feed.
	RoleViewer Role = "viewer"

	// RoleAdmin may do everything.
	RoleAdmin Role = "admin"
)

// Permission represents a named capability.
type Permission string

// Permission constants.
const (
	PermDirectiveExecute Permission = "directive:execute"
	PermAuditRead        Permission = "audit:read"
	PermEventsSubscribe  Permission = "events:subscribe"
)

// rolePermissions is the single source of truth for authorisation.
var rolePermissions = map[Role][]Permission{
	RoleSkill: {
		PermDirectiveExecute,
	},
	RoleViewer: {
		PermAuditRead,
		PermEventsSubscribe,
	},
	RoleAdmin: {
		PermDirectiveExecute,
		PermAuditRead,
		PermEventsSubscribe,
	},
}

// IsValidRole reports whether r is a known role.
func IsValidRole(r Role) bool {
	_, ok := rolePermissions[r]
	return ok
}

// HasPermission returns true if role is granted perm.
func HasPermission(role Role, perm Permission) bool {
	for _, p := range rolePermissions[role] {
		if p == perm {
			return true
		}
	}
	return false
}

// PermissionsForRole returns a copy of the permissions granted to role, or
// nil for unknown roles.
func PermissionsForRole(role Role) []Permission {
	perms := rolePermissions[role]
	if perms == nil {
		return nil
	}
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}
