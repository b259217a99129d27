package leave

import (
	"context"

	"go-leave/internal/employee"
)

const (
	ReportPostDeduction = "post_deduction"
	ReportPreDeduction  = "pre_deduction"
)

// LeavesLeft is the allotment minus every recorded day. It is not clamped, so
// an over-committed employee shows a negative balance.
func LeavesLeft(ctx context.Context, ledger Repository, empl *employee.Employee) (int, error) {
	used, err := ledger.SumDaysByEmployee(ctx, empl.ID)
	if err != nil {
		return 0, err
	}
	return empl.TotalLeaveDays - used, nil
}

// ReportedBalance is the figure returned after a successful submission.
func ReportedBalance(policy string, before, days int) int {
	if policy == ReportPreDeduction {
		return before
	}
	return before - days
}
