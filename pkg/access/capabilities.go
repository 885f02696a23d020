package access

// Capability queries are deterministic projections of role membership used
// by collaborating surfaces (navigation, admin console, reset workflow).
// They must stay consistent with the scope bypass table in NewEngine: any
// role that can manage users platform-wide is in both bypass sets.

// CanManageUsers reports whether the role may create, deactivate, or
// otherwise administer user accounts.
func (r Role) CanManageUsers() bool {
	switch r {
	case RoleAdmin, RoleCEO, RoleExecutive:
		return true
	}
	return false
}

// CanProcessResets reports whether the role may process or reject
// credential-reset requests.
func (r Role) CanProcessResets() bool {
	return r == RoleAdmin
}

// CanReviewSubmissions reports whether the role may review work submitted
// within its scope.
func (r Role) CanReviewSubmissions() bool {
	switch r {
	case RoleDepartmentHead, RoleManager, RoleExecutive, RoleCEO:
		return true
	}
	return false
}

// CanSubmitWork reports whether the role submits work for review.
func (r Role) CanSubmitWork() bool {
	switch r {
	case RoleEmployee, RoleDepartmentHead:
		return true
	}
	return false
}

// CanViewBranchReports reports whether the role may read reporting for an
// entire branch rather than a single department.
func (r Role) CanViewBranchReports() bool {
	switch r {
	case RoleManager, RoleExecutive, RoleCEO, RoleAdmin:
		return true
	}
	return false
}
