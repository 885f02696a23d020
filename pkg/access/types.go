package access

import "github.com/google/uuid"

// Role represents a position in the organizational hierarchy
type Role string

const (
	RoleEmployee       Role = "employee"
	RoleDepartmentHead Role = "department_head"
	RoleManager        Role = "manager"
	RoleExecutive      Role = "executive"
	RoleCEO            Role = "ceo"
	RoleAdmin          Role = "admin" // Platform operator, not part of the reporting chain
)

// AllRoles lists every recognized role
var AllRoles = []Role{
	RoleEmployee,
	RoleDepartmentHead,
	RoleManager,
	RoleExecutive,
	RoleCEO,
	RoleAdmin,
}

// Valid reports whether r is a recognized role
func (r Role) Valid() bool {
	for _, known := range AllRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Principal is an authenticated caller. It is supplied by the session
// collaborator (pkg/auth) and never mutated by the policy engine.
type Principal struct {
	ID           uuid.UUID `json:"id"`
	Role         Role      `json:"role"`
	BranchID     string    `json:"branch_id"`
	DepartmentID string    `json:"department_id"`
}

// Requirement describes what a route or operation demands of a caller.
// Nil/empty fields mean "no constraint".
type Requirement struct {
	// Roles is the set of roles permitted to perform the operation.
	Roles []Role
	// Branch, if set, scopes the operation to a branch.
	Branch *string
	// Department, if set, scopes the operation to a department.
	Department *string
}

// RequireRoles builds a role-only requirement
func RequireRoles(roles ...Role) Requirement {
	return Requirement{Roles: roles}
}

// Outcome classifies an access decision
type Outcome string

const (
	Allow               Outcome = "allow"
	DenyUnauthenticated Outcome = "deny_unauthenticated"
	DenyRole            Outcome = "deny_role"
	DenyBranch          Outcome = "deny_branch"
	DenyDepartment      Outcome = "deny_department"
)

// Decision is the result of evaluating a requirement against a principal
type Decision struct {
	Outcome Outcome `json:"outcome"`
	// Reason is a human-readable explanation, safe to return to callers.
	Reason string `json:"reason"`
}

// Allowed reports whether the decision permits the operation
func (d Decision) Allowed() bool {
	return d.Outcome == Allow
}
