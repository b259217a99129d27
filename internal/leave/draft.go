package leave

import (
	"strings"
	"time"

	leaveerrors "go-leave/internal/leave/errors"
)

const (
	StatusDrafting  = "drafting"
	StatusReady     = "ready"
	StatusSubmitted = "submitted"
	StatusRejected  = "rejected"
)

const (
	FieldName        = "name"
	FieldStartDate   = "start_date"
	FieldEndDate     = "end_date"
	FieldDays        = "days"
	FieldDescription = "description"
)

// DraftFields is a partial update; nil means "not provided".
type DraftFields struct {
	Name        *string    `json:"name,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Days        *int       `json:"days,omitempty"`
	Description *string    `json:"description,omitempty"`
}

func (f DraftFields) IsEmpty() bool {
	return f.Name == nil && f.StartDate == nil && f.EndDate == nil &&
		f.Days == nil && f.Description == nil
}

// Overlay returns f with every non-nil field of o written over it.
func (f DraftFields) Overlay(o DraftFields) DraftFields {
	if o.Name != nil {
		f.Name = o.Name
	}
	if o.StartDate != nil {
		f.StartDate = o.StartDate
	}
	if o.EndDate != nil {
		f.EndDate = o.EndDate
	}
	if o.Days != nil {
		f.Days = o.Days
	}
	if o.Description != nil {
		f.Description = o.Description
	}
	return f
}

// Merge overwrites the draft with every provided field. Fields left nil keep
// their stored value.
func (d *LeaveDraft) Merge(f DraftFields) {
	if f.Name != nil {
		d.Name = f.Name
	}
	if f.StartDate != nil {
		d.StartDate = f.StartDate
	}
	if f.EndDate != nil {
		d.EndDate = f.EndDate
	}
	if f.Days != nil {
		d.Days = f.Days
	}
	if f.Description != nil {
		d.Description = f.Description
	}
}

// MissingFields lists unset required fields in canonical order.
func (d *LeaveDraft) MissingFields() []string {
	missing := make([]string, 0, 5)
	if d.Name == nil {
		missing = append(missing, FieldName)
	}
	if d.StartDate == nil {
		missing = append(missing, FieldStartDate)
	}
	if d.EndDate == nil {
		missing = append(missing, FieldEndDate)
	}
	if d.Days == nil {
		missing = append(missing, FieldDays)
	}
	if d.Description == nil {
		missing = append(missing, FieldDescription)
	}
	return missing
}

func (d *LeaveDraft) IsReady() bool {
	return len(d.MissingFields()) == 0
}

func (d *LeaveDraft) Status() string {
	if d.IsReady() {
		return StatusReady
	}
	return StatusDrafting
}

// BuildDraftFields validates raw request values. Blank strings count as not
// provided.
func BuildDraftFields(name, startDate, endDate *string, days *int, description *string) (DraftFields, error) {
	var f DraftFields

	if v := trimmed(name); v != nil {
		f.Name = v
	}
	if v := trimmed(startDate); v != nil {
		t, err := ParseDate(FieldStartDate, *v)
		if err != nil {
			return DraftFields{}, err
		}
		f.StartDate = &t
	}
	if v := trimmed(endDate); v != nil {
		t, err := ParseDate(FieldEndDate, *v)
		if err != nil {
			return DraftFields{}, err
		}
		f.EndDate = &t
	}
	if days != nil {
		if *days < 0 {
			return DraftFields{}, leaveerrors.NegativeDays(*days)
		}
		d := *days
		f.Days = &d
	}
	if v := trimmed(description); v != nil {
		f.Description = v
	}
	return f, nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
