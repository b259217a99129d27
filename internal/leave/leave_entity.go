package leave

import (
	"time"

	"github.com/google/uuid"
)

// LeaveApplication is a ledger entry. Rows are only ever inserted.
type LeaveApplication struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	EmployeeID  uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_applications_employee"`
	StartDate   time.Time `gorm:"type:date;not null"`
	EndDate     time.Time `gorm:"type:date;not null"`
	Days        int       `gorm:"not null"`
	Description string    `gorm:"type:text;not null"`
	CreatedAt   time.Time
}

// LeaveDraft is the in-progress request for one email. Nil fields have not
// been provided yet.
type LeaveDraft struct {
	Email       string     `gorm:"type:text;primaryKey" json:"email"`
	Name        *string    `gorm:"type:text" json:"name"`
	StartDate   *time.Time `gorm:"type:date" json:"start_date"`
	EndDate     *time.Time `gorm:"type:date" json:"end_date"`
	Days        *int       `json:"days"`
	Description *string    `gorm:"type:text" json:"description"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
