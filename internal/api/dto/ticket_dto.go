package dto

import (
	"time"

	"github.com/spec-kit/incident-desk/internal/domain"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	ReporterEmployeeID string `json:"reporter_employee_id"`
	Title              string `json:"title"`
	Description        string `json:"description"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status          string `json:"status"`
	ActorEmployeeID string `json:"actor_employee_id"`
}

// ReassignRequest payload.
type ReassignRequest struct {
	AgentEmployeeID string `json:"agent_employee_id"`
	ActorEmployeeID string `json:"actor_employee_id"`
}

// AddCommentRequest payload.
type AddCommentRequest struct {
	AuthorEmployeeID string `json:"author_employee_id"`
	Body             string `json:"body"`
}

// ReporterResponse is the embedded reporter snapshot.
type ReporterResponse struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// AgentResponse is the embedded assignment snapshot.
type AgentResponse struct {
	EmployeeID string `json:"employee_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
}

// CommentResponse is a thread entry.
type CommentResponse struct {
	AuthorEmployeeID string    `json:"author_employee_id"`
	AuthorName       string    `json:"author_name"`
	Body             string    `json:"body"`
	CreatedAt        time.Time `json:"created_at"`
}

// TicketResponse provides full ticket info.
type TicketResponse struct {
	ID            string              `json:"id"`
	HumanID       string              `json:"human_id"`
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Status        domain.TicketStatus `json:"status"`
	Reporter      ReporterResponse    `json:"reporter"`
	AssignedAgent *AgentResponse      `json:"assigned_agent"`
	Comments      []CommentResponse   `json:"comments"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
	ClosedAt      *time.Time          `json:"closed_at"`
}
