package access

import "fmt"

// scopeKind identifies one of the organizational scoping dimensions
type scopeKind string

const (
	scopeBranch     scopeKind = "branch"
	scopeDepartment scopeKind = "department"
)

// scopeRule pairs a scoping dimension with the roles exempt from it.
// Rules are evaluated in order; the first failing rule decides.
type scopeRule struct {
	kind    scopeKind
	deny    Outcome
	bypass  map[Role]bool
	require func(req Requirement) *string
	actual  func(p *Principal) string
}

// Engine evaluates access requirements against principals. It holds only
// the immutable scope table, so a single instance is safe to share across
// goroutines and evaluation is a pure function of its inputs.
type Engine struct {
	rules []scopeRule
}

// NewEngine creates a policy engine with the platform's scope hierarchy:
// {ceo, executive, admin} bypass branch and department scoping,
// {manager} additionally bypasses department scoping only,
// {department_head, employee} are confined to their own branch and department.
func NewEngine() *Engine {
	return &Engine{
		rules: []scopeRule{
			{
				kind:    scopeBranch,
				deny:    DenyBranch,
				bypass:  roleSet(RoleCEO, RoleExecutive, RoleAdmin),
				require: func(req Requirement) *string { return req.Branch },
				actual:  func(p *Principal) string { return p.BranchID },
			},
			{
				kind:    scopeDepartment,
				deny:    DenyDepartment,
				bypass:  roleSet(RoleCEO, RoleExecutive, RoleManager, RoleAdmin),
				require: func(req Requirement) *string { return req.Department },
				actual:  func(p *Principal) string { return p.DepartmentID },
			},
		},
	}
}

// Evaluate decides whether principal may perform an operation carrying the
// given requirement. Checks run in a fixed order and short-circuit on the
// first failure: authentication, role membership, then each scope rule.
func (e *Engine) Evaluate(principal *Principal, req Requirement) Decision {
	if principal == nil {
		return Decision{
			Outcome: DenyUnauthenticated,
			Reason:  "authentication required",
		}
	}

	if len(req.Roles) > 0 && !roleMember(principal.Role, req.Roles) {
		return Decision{
			Outcome: DenyRole,
			Reason:  fmt.Sprintf("role %q is not permitted to perform this operation", principal.Role),
		}
	}

	for _, rule := range e.rules {
		required := rule.require(req)
		if required == nil {
			continue
		}
		if rule.bypass[principal.Role] {
			continue
		}
		if rule.actual(principal) != *required {
			return Decision{
				Outcome: rule.deny,
				Reason:  fmt.Sprintf("operation is scoped to another %s", rule.kind),
			}
		}
	}

	return Decision{Outcome: Allow, Reason: "allowed"}
}

func roleMember(role Role, roles []Role) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

func roleSet(roles ...Role) map[Role]bool {
	set := make(map[Role]bool, len(roles))
	for _, r := range roles {
		set[r] = true
	}
	return set
}
