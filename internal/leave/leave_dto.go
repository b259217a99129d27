package leave

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// DayCount accepts a JSON number or a numeric string.
type DayCount int

func (d *DayCount) UnmarshalJSON(b []byte) error {
	raw := bytes.TrimSpace(b)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return err
		}
		raw = []byte(strings.TrimSpace(s))
	}
	n, err := strconv.Atoi(string(raw))
	if err != nil {
		return fmt.Errorf("days must be an integer, got %s", string(b))
	}
	*d = DayCount(n)
	return nil
}

func (d *DayCount) IntPtr() *int {
	if d == nil {
		return nil
	}
	n := int(*d)
	return &n
}

type EmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type UpdateDraftRequest struct {
	Email       string    `json:"email" binding:"required,email"`
	Name        *string   `json:"name"`
	StartDate   *string   `json:"start_date"`
	EndDate     *string   `json:"end_date"`
	Days        *DayCount `json:"days"`
	Description *string   `json:"description"`
}

// ApplyLeaveRequest drives the whole flow in one call. Structured fields win
// over anything extracted from Text.
type ApplyLeaveRequest struct {
	Email       string    `json:"email" binding:"omitempty,email"`
	Name        *string   `json:"name"`
	StartDate   *string   `json:"start_date"`
	EndDate     *string   `json:"end_date"`
	Days        *DayCount `json:"days"`
	Description *string   `json:"description"`
	Text        string    `json:"text"`
}

type DraftResponse struct {
	Email       string  `json:"email"`
	Name        *string `json:"name"`
	StartDate   *string `json:"start_date"`
	EndDate     *string `json:"end_date"`
	Days        *int    `json:"days"`
	Description *string `json:"description"`
	UpdatedAt   string  `json:"updated_at"`
}

type LeaveApplicationResponse struct {
	ID          string `json:"id"`
	EmployeeID  string `json:"employee_id"`
	StartDate   string `json:"start_date"`
	EndDate     string `json:"end_date"`
	Days        int    `json:"days"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

type NotificationResponse struct {
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// IntakeResponse is returned by every draft and submit operation.
type IntakeResponse struct {
	Status        string                    `json:"status"`
	Message       string                    `json:"message,omitempty"`
	Draft         *DraftResponse            `json:"draft,omitempty"`
	MissingFields []string                  `json:"missing_fields,omitempty"`
	LeavesLeft    *int                      `json:"leaves_left,omitempty"`
	Application   *LeaveApplicationResponse `json:"application,omitempty"`
	Notification  *NotificationResponse     `json:"notification,omitempty"`
}

type BalanceResponse struct {
	EmployeeID     string `json:"employee_id"`
	Email          string `json:"email"`
	Name           string `json:"name"`
	TotalLeaveDays int    `json:"total_leave_days"`
	UsedDays       int    `json:"used_days"`
	LeavesLeft     int    `json:"leaves_left"`
}
