package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/incident-desk/internal/api/dto"
	"github.com/spec-kit/incident-desk/internal/service"
)

// DashboardHandler serves aggregate counts.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler constructs handler.
func NewDashboardHandler(dashboardService *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: dashboardService}
}

// Counts GET /api/v1/dashboard.
func (h *DashboardHandler) Counts(c *fiber.Ctx) error {
	counts, err := h.service.Counts(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dashboardResponse(counts)})
}

// CountsForEmployee GET /api/v1/dashboard/employees/:employeeId.
func (h *DashboardHandler) CountsForEmployee(c *fiber.Ctx) error {
	counts, err := h.service.CountsForEmployee(c.UserContext(), c.Params("employeeId"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dashboardResponse(counts)})
}

func dashboardResponse(counts *service.DashboardCounts) dto.DashboardResponse {
	resp := dto.DashboardResponse{
		Total:       counts.Total,
		ByStatus:    make(map[string]int, len(counts.ByStatus)),
		Percentages: make(map[string]float64, len(counts.Percentages)),
	}
	for status, n := range counts.ByStatus {
		resp.ByStatus[string(status)] = n
	}
	for status, pct := range counts.Percentages {
		resp.Percentages[string(status)] = pct
	}
	if len(counts.ByDepartment) > 0 {
		resp.ByDepartment = make(map[string]int, len(counts.ByDepartment))
		for department, n := range counts.ByDepartment {
			resp.ByDepartment[string(department)] = n
		}
	}
	return resp
}
