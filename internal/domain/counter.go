package domain

// Counter is a named, atomically-incrementable sequence value. Exactly one
// row exists per name; the value only ever increases.
type Counter struct {
	Name  string
	Value int64
}

// Counter names used by the allocator. ID counters mint human-readable
// identifiers; the rotation counter drives round-robin agent selection and
// is never reset.
const (
	CounterTicketID      = "ticket_id"
	CounterEmployeeID    = "employee_id"
	CounterAgentRotation = "agent_rotation"
)

// Identifier prefixes for minted human-readable ids.
const (
	TicketIDPrefix   = "INC"
	EmployeeIDPrefix = "EMP"
)
