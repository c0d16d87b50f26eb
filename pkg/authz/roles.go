// Package authz defines the canonical role taxonomy and the capability
// matrix consulted by every protected endpoint. Routes must never keep
// their own role lists; they ask Can() instead.
package authz

// Role is the single enumeration of portal roles accepted anywhere in
// the system. The authentication layer and every per-resource
// permission check consume this same set.
type Role string

const (
	RoleUser         Role = "user"
	RoleDoctor       Role = "doctor"
	RoleNurse        Role = "nurse"
	RoleTeacher      Role = "teacher"
	RoleParent       Role = "parent"
	RoleAdmin        Role = "admin"
	RoleSuperAdmin   Role = "super_admin"
	RoleMedicalAdmin Role = "medical_admin"
	RoleSystemAdmin  Role = "system_admin"
)

// Action names a protected operation.
type Action string

const (
	ActionAuthenticate    Action = "authenticate"
	ActionDeletePatient   Action = "delete_patient"
	ActionDeleteScreening Action = "delete_screening"
	ActionManageUsers     Action = "manage_users"
	ActionViewAuditLog    Action = "view_audit_log"
)

// adminTier is the one source of truth for admin-gated actions. Every
// destructive capability below is derived from it, so adding a role
// here grants it uniformly across delete_patient, delete_screening and
// the rest of the admin surface.
var adminTier = []Role{
	RoleAdmin,
	RoleSuperAdmin,
	RoleMedicalAdmin,
	RoleSystemAdmin,
}

var allRoles = []Role{
	RoleUser,
	RoleDoctor,
	RoleNurse,
	RoleTeacher,
	RoleParent,
	RoleAdmin,
	RoleSuperAdmin,
	RoleMedicalAdmin,
	RoleSystemAdmin,
}

var capabilities = map[Action][]Role{
	ActionAuthenticate:    allRoles,
	ActionDeletePatient:   adminTier,
	ActionDeleteScreening: adminTier,
	ActionManageUsers:     adminTier,
	ActionViewAuditLog:    adminTier,
}

// Valid reports whether r is a member of the canonical role set.
func Valid(r Role) bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Can reports whether role may perform action. Unknown actions and
// unknown roles are denied.
func Can(role Role, action Action) bool {
	allowed, ok := capabilities[action]
	if !ok {
		return false
	}
	for _, r := range allowed {
		if r == role {
			return true
		}
	}
	return false
}

// AdminTier returns a copy of the admin-tier role set, for reporting
// and tests. Mutating the copy has no effect on authorization.
func AdminTier() []Role {
	out := make([]Role, len(adminTier))
	copy(out, adminTier)
	return out
}

// Roles returns a copy of the full canonical role set.
func Roles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}
