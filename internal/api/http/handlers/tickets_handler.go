package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/incident-desk/internal/api/dto"
	"github.com/spec-kit/incident-desk/internal/domain"
	"github.com/spec-kit/incident-desk/internal/service"
	apperrors "github.com/spec-kit/incident-desk/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Create POST /api/v1/tickets.
func (h *TicketsHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.ReporterEmployeeID == "" || req.Title == "" {
		return apperrors.NewValidationError("reporter_employee_id and title required", nil)
	}

	ticket, err := h.service.Create(c.UserContext(), service.TicketCreateInput{
		ReporterEmployeeID: req.ReporterEmployeeID,
		Title:              req.Title,
		Description:        req.Description,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// List GET /api/v1/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	filter, err := parseTicketQuery(c)
	if err != nil {
		return err
	}
	tickets, err := h.service.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/v1/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	ticket, err := h.service.GetByID(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// UpdateStatus PATCH /api/v1/tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	status, err := domain.ParseTicketStatus(req.Status)
	if err != nil {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": req.Status})
	}

	ticket, err := h.service.UpdateStatus(c.UserContext(), req.ActorEmployeeID, c.Params("id"), status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Reassign POST /api/v1/tickets/:id/assignee.
func (h *TicketsHandler) Reassign(c *fiber.Ctx) error {
	var req dto.ReassignRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AgentEmployeeID == "" {
		return apperrors.NewValidationError("agent_employee_id required", nil)
	}

	ticket, err := h.service.Reassign(c.UserContext(), req.ActorEmployeeID, c.Params("id"), req.AgentEmployeeID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// AddComment POST /api/v1/tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	var req dto.AddCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.AuthorEmployeeID == "" || strings.TrimSpace(req.Body) == "" {
		return apperrors.NewValidationError("author_employee_id and body required", nil)
	}

	comment, err := h.service.AddComment(c.UserContext(), req.AuthorEmployeeID, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(*comment)})
}

// Delete DELETE /api/v1/tickets/:id.
func (h *TicketsHandler) Delete(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

func parseTicketQuery(c *fiber.Ctx) (service.TicketListFilter, error) {
	filter := service.TicketListFilter{}
	if reporter := c.Query("reporter"); reporter != "" {
		filter.ReporterEmployeeID = &reporter
	}
	if assignee := c.Query("assignee"); assignee != "" {
		filter.AssignedEmployeeID = &assignee
	}
	if statusStr := c.Query("status"); statusStr != "" {
		for _, part := range strings.Split(statusStr, ",") {
			status, err := domain.ParseTicketStatus(strings.TrimSpace(part))
			if err != nil {
				return filter, apperrors.NewValidationError("unknown status", map[string]any{"status": part})
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if search := c.Query("search"); search != "" {
		filter.SearchTerm = &search
	}
	if from := parseTime(c.Query("created_from")); from != nil {
		filter.CreatedFrom = from
	}
	if to := parseTime(c.Query("created_to")); to != nil {
		filter.CreatedTo = to
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize
	return filter, nil
}

func parseTime(val string) *time.Time {
	if val == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, val)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	resp := dto.TicketResponse{
		ID:          ticket.ID,
		HumanID:     ticket.HumanID,
		Title:       ticket.Title,
		Description: ticket.Description,
		Status:      ticket.Status,
		Reporter: dto.ReporterResponse{
			EmployeeID: ticket.Reporter.EmployeeID,
			Name:       ticket.Reporter.Name,
			Email:      ticket.Reporter.Email,
			Role:       string(ticket.Reporter.Role),
			Department: string(ticket.Reporter.Department),
		},
		Comments:  make([]dto.CommentResponse, 0, len(ticket.Comments)),
		CreatedAt: ticket.CreatedAt,
		UpdatedAt: ticket.UpdatedAt,
		ClosedAt:  ticket.ClosedAt,
	}
	if ticket.AssignedAgent != nil {
		resp.AssignedAgent = &dto.AgentResponse{
			EmployeeID: ticket.AssignedAgent.EmployeeID,
			Name:       ticket.AssignedAgent.Name,
			Email:      ticket.AssignedAgent.Email,
			Role:       string(ticket.AssignedAgent.Role),
		}
	}
	for _, comment := range ticket.Comments {
		resp.Comments = append(resp.Comments, commentResponse(comment))
	}
	return resp
}

func commentResponse(comment domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		AuthorEmployeeID: comment.AuthorEmployeeID,
		AuthorName:       comment.AuthorName,
		Body:             comment.Body,
		CreatedAt:        comment.CreatedAt,
	}
}
