// Package access implements role- and scope-based authorization for the
// branch/department-partitioned platform.
//
// # Overview
//
// The policy engine answers one question: may this principal perform an
// operation that requires a given role set, branch, or department? The
// engine is pure: it performs no I/O, holds no mutable state, and identical
// inputs always produce identical decisions.
//
// # Role Hierarchy
//
// Scope exemptions, widest to narrowest:
//
//   - ceo, executive, admin: bypass branch and department scoping
//   - manager: bypasses department scoping only
//   - department_head, employee: confined to their own branch and department
//
// The hierarchy lives in an ordered table of (scope, bypass roles) rather
// than in branching logic, so tests can enumerate it exhaustively.
//
// # Usage Example
//
//	engine := access.NewEngine()
//	decision := engine.Evaluate(principal, access.Requirement{
//		Roles:  []access.Role{access.RoleManager},
//		Branch: &branchID,
//	})
//	if !decision.Allowed() {
//		return decision.Reason
//	}
//
// # Related Packages
//
//   - pkg/auth: produces Principal values from session tokens
//   - pkg/middleware: maps decisions to HTTP 401/403 responses
package access
