package employee

type EmployeeResponse struct {
	ID             string `json:"id"`
	Name           string `json:"name"`
	Email          string `json:"email"`
	TotalLeaveDays int    `json:"total_leave_days"`
	CreatedAt      string `json:"created_at"`
}
