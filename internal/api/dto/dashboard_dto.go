package dto

// DashboardResponse summarizes ticket state for dashboards. Absent map keys
// mean zero tickets for that bucket.
type DashboardResponse struct {
	Total        int                `json:"total"`
	ByStatus     map[string]int     `json:"by_status"`
	ByDepartment map[string]int     `json:"by_department,omitempty"`
	Percentages  map[string]float64 `json:"percentages"`
}
