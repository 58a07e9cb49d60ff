package domain

import (
	"fmt"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen            TicketStatus = "open"
	TicketStatusInProgress      TicketStatus = "in_progress"
	TicketStatusClosedResolved  TicketStatus = "closed_resolved"
	TicketStatusClosedNoResolve TicketStatus = "closed_no_resolve"
)

// ParseTicketStatus validates a raw status string.
func ParseTicketStatus(raw string) (TicketStatus, error) {
	switch TicketStatus(raw) {
	case TicketStatusOpen, TicketStatusInProgress, TicketStatusClosedResolved, TicketStatusClosedNoResolve:
		return TicketStatus(raw), nil
	}
	return "", fmt.Errorf("unknown ticket status %q", raw)
}

// IsClosed reports whether the status is one of the closed states.
func (s TicketStatus) IsClosed() bool {
	return s == TicketStatusClosedResolved || s == TicketStatusClosedNoResolve
}

// Comment is a thread entry embedded in a ticket, ordered by append time.
type Comment struct {
	AuthorEmployeeID string    `json:"author_employee_id"`
	AuthorName       string    `json:"author_name"`
	Body             string    `json:"body"`
	CreatedAt        time.Time `json:"created_at"`
}

// Ticket is the aggregate for incident reports. Reporter and AssignedAgent
// are value snapshots captured at creation/assignment time; editing the user
// record later never rewrites them.
type Ticket struct {
	ID            string
	HumanID       string
	Title         string
	Description   string
	Status        TicketStatus
	Reporter      EmployeeSnapshot
	AssignedAgent *AgentSnapshot
	Comments      []Comment
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ClosedAt      *time.Time
}
