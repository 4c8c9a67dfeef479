package models

// ActorType represents who performed an action
type ActorType string

const (
	ActorUser   ActorType = "USER"
	ActorSystem ActorType = "SYSTEM"
)

// Role is the verified role carried on each request
type Role string

const (
	RoleCitizen      Role = "CITIZEN"
	RoleStaff        Role = "STAFF"
	RoleDeptHead     Role = "DEPT_HEAD"
	RoleCommissioner Role = "MUNICIPAL_COMMISSIONER"
	RoleAdmin        Role = "ADMIN"
	RoleSuperAdmin   Role = "SUPER_ADMIN"
	RoleSystem       Role = "SYSTEM"
)

// ValidRole reports whether r is a known role
func ValidRole(r Role) bool {
	switch r {
	case RoleCitizen, RoleStaff, RoleDeptHead, RoleCommissioner,
		RoleAdmin, RoleSuperAdmin, RoleSystem:
		return true
	}
	return false
}

// ActorContext is the verified identity attached to an operation. It is
// produced by the authentication layer (or constructed in-process for the
// SYSTEM principal) and passed explicitly; never stored in global state.
type ActorContext struct {
	ActorType    ActorType
	UserID       int64
	Role         Role
	DepartmentID string
}

// SystemActor is the only principal allowed to perform automatic transitions
// (auto-start, timeout close, scheduler escalation).
func SystemActor() ActorContext {
	return ActorContext{ActorType: ActorSystem, Role: RoleSystem}
}

// IsSystem reports whether the actor is the SYSTEM principal
func (a ActorContext) IsSystem() bool {
	return a.ActorType == ActorSystem && a.Role == RoleSystem
}

// IsAdmin reports whether the actor holds an administrative role
func (a ActorContext) IsAdmin() bool {
	return a.Role == RoleAdmin || a.Role == RoleSuperAdmin
}
