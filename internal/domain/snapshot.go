package domain

// EmployeeSnapshot is a copied-by-value subset of the reporting employee's
// identity, embedded in the ticket at creation time.
type EmployeeSnapshot struct {
	EmployeeID string
	Name       string
	Email      string
	Role       UserRole
	Department Department
}

// AgentSnapshot is a copied-by-value subset of the assigned agent's identity,
// embedded in the ticket at assignment time.
type AgentSnapshot struct {
	EmployeeID string
	Name       string
	Email      string
	Role       UserRole
}

// EmployeeSnapshotOf captures the reporter fields of a user.
func EmployeeSnapshotOf(u User) EmployeeSnapshot {
	return EmployeeSnapshot{
		EmployeeID: u.EmployeeID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
		Department: u.Department,
	}
}

// AgentSnapshotOf captures the assignee fields of a user.
func AgentSnapshotOf(u User) AgentSnapshot {
	return AgentSnapshot{
		EmployeeID: u.EmployeeID,
		Name:       u.Name,
		Email:      u.Email,
		Role:       u.Role,
	}
}
