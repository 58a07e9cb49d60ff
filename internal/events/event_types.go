package events

import (
	"time"

	"github.com/spec-kit/incident-desk/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketReassigned    EventType = "ticket_reassigned"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketCommentAdded  EventType = "ticket_comment_added"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID              string      `json:"id"`
	Type            EventType   `json:"type"`
	TicketID        string      `json:"ticket_id"`
	TicketHumanID   string      `json:"ticket_human_id"`
	ActorEmployeeID string      `json:"actor_employee_id,omitempty"`
	Timestamp       time.Time   `json:"timestamp"`
	Payload         interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Title              string            `json:"title"`
	ReporterEmployeeID string            `json:"reporter_employee_id"`
	Department         domain.Department `json:"department"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AgentEmployeeID string `json:"agent_employee_id"`
	AgentName       string `json:"agent_name"`
	// Manual marks operator overrides that bypass rotation.
	Manual bool `json:"manual"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	AuthorEmployeeID string `json:"author_employee_id"`
	BodyPreview      string `json:"body_preview"`
}
