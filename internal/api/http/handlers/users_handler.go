package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/incident-desk/internal/api/dto"
	"github.com/spec-kit/incident-desk/internal/domain"
	"github.com/spec-kit/incident-desk/internal/service"
	apperrors "github.com/spec-kit/incident-desk/pkg/util"
)

// UsersHandler manages directory endpoints.
type UsersHandler struct {
	service *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{service: userService}
}

// Create POST /api/v1/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	role, err := domain.ParseUserRole(req.Role)
	if err != nil {
		return apperrors.NewValidationError("unknown role", map[string]any{"role": req.Role})
	}
	department, err := domain.ParseDepartment(req.Department)
	if err != nil {
		return apperrors.NewValidationError("unknown department", map[string]any{"department": req.Department})
	}

	user, err := h.service.Create(c.UserContext(), service.UserCreateInput{
		Name:         req.Name,
		Email:        req.Email,
		Role:         role,
		Department:   department,
		PasswordHash: req.PasswordHash,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// Update PATCH /api/v1/users/:employeeId.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	input := service.UserUpdateInput{
		Name:     req.Name,
		Email:    req.Email,
		IsActive: req.IsActive,
	}
	if req.Department != "" {
		department, err := domain.ParseDepartment(req.Department)
		if err != nil {
			return apperrors.NewValidationError("unknown department", map[string]any{"department": req.Department})
		}
		input.Department = department
	}

	user, err := h.service.Update(c.UserContext(), c.Params("employeeId"), input)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Deactivate DELETE /api/v1/users/:employeeId.
func (h *UsersHandler) Deactivate(c *fiber.Ctx) error {
	user, err := h.service.Deactivate(c.UserContext(), c.Params("employeeId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// Get GET /api/v1/users/:employeeId.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.service.GetByEmployeeID(c.UserContext(), c.Params("employeeId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

// List GET /api/v1/users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	users, err := h.service.List(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListAgents GET /api/v1/users/agents.
func (h *UsersHandler) ListAgents(c *fiber.Ctx) error {
	agents, err := h.service.ListActiveAgents(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.AgentResponse, 0, len(agents))
	for _, agent := range agents {
		items = append(items, dto.AgentResponse{
			EmployeeID: agent.EmployeeID,
			Name:       agent.Name,
			Email:      agent.Email,
			Role:       string(agent.Role),
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		EmployeeID: user.EmployeeID,
		Name:       user.Name,
		Email:      user.Email,
		Role:       string(user.Role),
		Department: string(user.Department),
		IsActive:   user.IsActive,
		CreatedAt:  user.CreatedAt,
		UpdatedAt:  user.UpdatedAt,
	}
}
