package employee

import (
	"time"

	"github.com/google/uuid"
)

type Employee struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"`
	Email          string    `gorm:"type:text;not null;uniqueIndex:uq_employee_email"`
	Name           string    `gorm:"type:text;not null"`
	TotalLeaveDays int       `gorm:"not null"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
