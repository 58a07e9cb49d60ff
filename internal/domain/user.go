package domain

import (
	"fmt"
	"time"
)

// UserRole separates ticket reporters from service-desk agents.
type UserRole string

const (
	UserRoleEmployee    UserRole = "employee"
	UserRoleServiceDesk UserRole = "service_desk"
)

// ParseUserRole validates a raw role string.
func ParseUserRole(raw string) (UserRole, error) {
	switch UserRole(raw) {
	case UserRoleEmployee, UserRoleServiceDesk:
		return UserRole(raw), nil
	}
	return "", fmt.Errorf("unknown user role %q", raw)
}

// Department enumerates the organizational units tickets are reported from.
type Department string

const (
	DepartmentIT         Department = "IT"
	DepartmentHR         Department = "HR"
	DepartmentFinance    Department = "Finance"
	DepartmentOperations Department = "Operations"
	DepartmentMarketing  Department = "Marketing"
)

// ParseDepartment validates a raw department string. Legacy free-text values
// that do not match the enumeration are rejected.
func ParseDepartment(raw string) (Department, error) {
	switch Department(raw) {
	case DepartmentIT, DepartmentHR, DepartmentFinance, DepartmentOperations, DepartmentMarketing:
		return Department(raw), nil
	}
	return "", fmt.Errorf("unknown department %q", raw)
}

// User is the domain model for employees and service-desk agents.
// PasswordHash is a pass-through credentials field; hashing happens outside
// this service.
type User struct {
	ID           string
	EmployeeID   string
	Name         string
	Email        string
	Role         UserRole
	Department   Department
	IsActive     bool
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsEligibleAgent reports whether the user may receive ticket assignments.
func (u User) IsEligibleAgent() bool {
	return u.IsActive && u.Role == UserRoleServiceDesk
}
