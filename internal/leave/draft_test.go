package leave_test

import (
	"testing"
	"time"

	"go-leave/internal/leave"
	leaveerrors "go-leave/internal/leave/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func TestLeaveDraft_MissingFields(t *testing.T) {
	d := &leave.LeaveDraft{Email: "asha@example.com"}
	assert.Equal(t, []string{"name", "start_date", "end_date", "days", "description"}, d.MissingFields())
	assert.Equal(t, leave.StatusDrafting, d.Status())

	start := day(2026, time.January, 1)
	d.Merge(leave.DraftFields{Days: intPtr(3), StartDate: &start})
	assert.Equal(t, []string{"name", "end_date", "description"}, d.MissingFields())

	d.Merge(leave.DraftFields{Name: strPtr("Asha"), EndDate: &start, Description: strPtr("rest")})
	assert.Empty(t, d.MissingFields())
	assert.True(t, d.IsReady())
	assert.Equal(t, leave.StatusReady, d.Status())
}

func TestLeaveDraft_MergeKeepsUnprovided(t *testing.T) {
	d := &leave.LeaveDraft{Email: "asha@example.com", Name: strPtr("Asha"), Days: intPtr(2)}

	d.Merge(leave.DraftFields{Days: intPtr(0)})

	assert.Equal(t, "Asha", *d.Name)
	assert.Equal(t, 0, *d.Days)
}

func TestDraftFields_Overlay(t *testing.T) {
	base := leave.DraftFields{Name: strPtr("From Text"), Days: intPtr(3), Description: strPtr("trip")}
	top := leave.DraftFields{Days: intPtr(4)}

	got := base.Overlay(top)

	assert.Equal(t, "From Text", *got.Name)
	assert.Equal(t, 4, *got.Days)
	assert.Equal(t, "trip", *got.Description)
	assert.Equal(t, 3, *base.Days)
}

func TestBuildDraftFields(t *testing.T) {
	t.Run("parses and trims", func(t *testing.T) {
		f, err := leave.BuildDraftFields(strPtr(" Asha "), strPtr("01-01-2026"), strPtr("2026-01-03"), intPtr(3), strPtr("family event"))

		require.NoError(t, err)
		assert.Equal(t, "Asha", *f.Name)
		assert.True(t, day(2026, 1, 1).Equal(*f.StartDate))
		assert.True(t, day(2026, 1, 3).Equal(*f.EndDate))
		assert.Equal(t, 3, *f.Days)
	})

	t.Run("blank strings are not provided", func(t *testing.T) {
		f, err := leave.BuildDraftFields(strPtr("   "), nil, strPtr(""), nil, nil)

		require.NoError(t, err)
		assert.True(t, f.IsEmpty())
	})

	t.Run("negative days", func(t *testing.T) {
		_, err := leave.BuildDraftFields(nil, nil, nil, intPtr(-1), nil)

		assert.ErrorIs(t, err, leaveerrors.ErrNegativeDays)
	})

	t.Run("bad end date names the field", func(t *testing.T) {
		_, err := leave.BuildDraftFields(nil, strPtr("01-01-2026"), strPtr("Jan 3"), nil, nil)

		assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateFormat)
		assert.Contains(t, err.Error(), "end_date")
	})
}

func TestReportedBalance(t *testing.T) {
	assert.Equal(t, 17, leave.ReportedBalance(leave.ReportPostDeduction, 22, 5))
	assert.Equal(t, 22, leave.ReportedBalance(leave.ReportPreDeduction, 22, 5))
	assert.Equal(t, 17, leave.ReportedBalance("", 22, 5))
}
