package events

import "time"

const (
	LeaveApplicationTopic         = "hr.leave.application.v1"
	LeaveApplicationSubmittedType = "leave_application_submitted"
	LeaveApplicationAggregate     = "leave_application"
)

// LeaveApplicationSubmittedEvent is published once per committed ledger entry.
type LeaveApplicationSubmittedEvent struct {
	EventType     string    `json:"event_type"`
	ApplicationID string    `json:"application_id"`
	EmployeeID    string    `json:"employee_id"`
	Email         string    `json:"email"`
	Name          string    `json:"name"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	Days          int       `json:"days"`
	Description   string    `json:"description"`
	LeavesLeft    int       `json:"leaves_left"`
	OccurredAt    time.Time `json:"occurred_at"`
}
