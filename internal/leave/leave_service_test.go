package leave_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"sync"
	"testing"

	"go-leave/internal/employee"
	employeeerrors "go-leave/internal/employee/errors"
	"go-leave/internal/events"
	"go-leave/internal/leave"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/notification"
	notificationMock "go-leave/internal/notification/mock"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type recordingOutbox struct {
	mu     sync.Mutex
	events []kafka.OutboxEvent
}

func (o *recordingOutbox) WithTx(*sql.Tx) kafka.OutboxRepository { return o }

func (o *recordingOutbox) Create(_ context.Context, e kafka.OutboxEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.events = append(o.events, e)
	return nil
}

func (o *recordingOutbox) ListPending(context.Context, int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}

func (o *recordingOutbox) MarkSent(context.Context, string) error { return nil }

func (o *recordingOutbox) MarkFailed(context.Context, string, string) error { return nil }

type intakeDeps struct {
	db       *gorm.DB
	service  leave.Service
	notifier *notificationMock.MockSender
	outbox   *recordingOutbox
}

func setupIntake(t *testing.T, opts leave.Options) *intakeDeps {
	t.Helper()
	db := openTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)

	notifier := notificationMock.NewMockSender(gomock.NewController(t))
	outbox := &recordingOutbox{}
	employees := employee.NewService(employee.NewRepository(db), employee.DefaultTotalLeaveDays, zap.NewNop())

	if opts.HREmail == "" {
		opts.HREmail = "hr@example.com"
	}
	svc := leave.NewService(
		sqlDB,
		leave.NewRepository(db),
		leave.NewDraftRepository(db),
		employees,
		notifier,
		outbox,
		opts,
		zap.NewNop(),
	)
	return &intakeDeps{db: db, service: svc, notifier: notifier, outbox: outbox}
}

func jsonField(t *testing.T, payload []byte, key string) string {
	t.Helper()
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &m))
	return string(m[key])
}

func dayCount(n int) *leave.DayCount {
	d := leave.DayCount(n)
	return &d
}

func fillDraft(t *testing.T, svc leave.Service, email, start, end string, days int) leave.IntakeResponse {
	t.Helper()
	resp, err := svc.Update(context.Background(), leave.UpdateDraftRequest{
		Email:       email,
		Name:        strPtr("Asha"),
		StartDate:   strPtr(start),
		EndDate:     strPtr(end),
		Days:        dayCount(days),
		Description: strPtr("family event"),
	})
	require.NoError(t, err)
	return resp
}

func (d *intakeDeps) countApplications(t *testing.T) int64 {
	t.Helper()
	var n int64
	require.NoError(t, d.db.Model(&leave.LeaveApplication{}).Count(&n).Error)
	return n
}

func TestLeaveService_SubmitThenRejectOverBalance(t *testing.T) {
	ctx := context.Background()
	deps := setupIntake(t, leave.Options{})

	var sent notification.Message
	deps.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, msg notification.Message) notification.Result {
			sent = msg
			return notification.Sent()
		}).Times(1)

	resp, err := deps.service.Init(ctx, "Asha@Example.com")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusDrafting, resp.Status)
	assert.Equal(t, []string{"name", "start_date", "end_date", "days", "description"}, resp.MissingFields)

	resp = fillDraft(t, deps.service, "asha@example.com", "01-01-2026", "05-01-2026", 5)
	assert.Equal(t, leave.StatusReady, resp.Status)
	assert.Empty(t, resp.MissingFields)

	resp, err = deps.service.Submit(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusSubmitted, resp.Status)
	require.NotNil(t, resp.LeavesLeft)
	assert.Equal(t, 17, *resp.LeavesLeft)
	require.NotNil(t, resp.Application)
	assert.Equal(t, 5, resp.Application.Days)
	assert.Equal(t, "2026-01-01", resp.Application.StartDate)
	assert.Equal(t, notification.StatusSent, resp.Notification.Status)

	assert.Equal(t, "hr@example.com", sent.To)
	assert.Equal(t, "Leave Application from Asha", sent.Subject)
	assert.Contains(t, sent.Body, "Start Date: 01-01-2026\n")
	assert.Contains(t, sent.Body, "Leaves Left: 17\n")

	_, err = deps.service.GetDraft(ctx, "asha@example.com")
	assert.ErrorIs(t, err, leaveerrors.ErrDraftNotFound)

	_, err = deps.service.Init(ctx, "asha@example.com")
	require.NoError(t, err)
	fillDraft(t, deps.service, "asha@example.com", "01-02-2026", "20-02-2026", 20)

	resp, err = deps.service.Submit(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusRejected, resp.Status)
	require.NotNil(t, resp.LeavesLeft)
	assert.Equal(t, 17, *resp.LeavesLeft)
	assert.Nil(t, resp.Application)
	assert.Nil(t, resp.Notification)

	draft, err := deps.service.GetDraft(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusReady, draft.Status)
	assert.Equal(t, 20, *draft.Draft.Days)

	assert.Equal(t, int64(1), deps.countApplications(t))
	assert.Len(t, deps.outbox.events, 1)

	bal, err := deps.service.GetBalance(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, 22, bal.TotalLeaveDays)
	assert.Equal(t, 5, bal.UsedDays)
	assert.Equal(t, 17, bal.LeavesLeft)
}

func TestLeaveService_SubmitRecordsOutboxEvent(t *testing.T) {
	ctx := context.Background()
	deps := setupIntake(t, leave.Options{})
	deps.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(notification.Sent())

	_, err := deps.service.Init(ctx, "asha@example.com")
	require.NoError(t, err)
	fillDraft(t, deps.service, "asha@example.com", "2026-01-01", "2026-01-03", 3)

	resp, err := deps.service.Submit(ctx, "asha@example.com")
	require.NoError(t, err)

	require.Len(t, deps.outbox.events, 1)
	evt := deps.outbox.events[0]
	assert.Equal(t, events.LeaveApplicationSubmittedType, evt.EventType)
	assert.Equal(t, events.LeaveApplicationTopic, evt.Topic)
	assert.Equal(t, resp.Application.ID, evt.AggregateID)
	assert.JSONEq(t, `"asha@example.com"`, jsonField(t, evt.Payload, "email"))
	assert.JSONEq(t, `19`, jsonField(t, evt.Payload, "leaves_left"))
}

func TestLeaveService_PreDeductionReporting(t *testing.T) {
	ctx := context.Background()
	deps := setupIntake(t, leave.Options{BalanceReporting: leave.ReportPreDeduction})
	deps.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(notification.Sent())

	_, err := deps.service.Init(ctx, "asha@example.com")
	require.NoError(t, err)
	fillDraft(t, deps.service, "asha@example.com", "01-01-2026", "05-01-2026", 5)

	resp, err := deps.service.Submit(ctx, "asha@example.com")

	require.NoError(t, err)
	assert.Equal(t, 22, *resp.LeavesLeft)
}

func TestLeaveService_SubmitIncompleteDraft(t *testing.T) {
	ctx := context.Background()
	deps := setupIntake(t, leave.Options{})
	deps.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)

	_, err := deps.service.Init(ctx, "asha@example.com")
	require.NoError(t, err)
	_, err = deps.service.Update(ctx, leave.UpdateDraftRequest{Email: "asha@example.com", Name: strPtr("Asha"), Days: dayCount(2)})
	require.NoError(t, err)

	resp, err := deps.service.Submit(ctx, "asha@example.com")

	require.NoError(t, err)
	assert.Equal(t, leave.StatusDrafting, resp.Status)
	assert.Equal(t, []string{"start_date", "end_date", "description"}, resp.MissingFields)
	assert.Zero(t, deps.countApplications(t))
}

func TestLeaveService_DraftNotFound(t *testing.T) {
	ctx := context.Background()
	deps := setupIntake(t, leave.Options{})

	_, err := deps.service.Submit(ctx, "ghost@example.com")
	assert.ErrorIs(t, err, leaveerrors.ErrDraftNotFound)

	_, err = deps.service.Update(ctx, leave.UpdateDraftRequest{Email: "ghost@example.com", Days: dayCount(1)})
	assert.ErrorIs(t, err, leaveerrors.ErrDraftNotFound)
}

func TestLeaveService_UpdateValidation(t *testing.T) {
	ctx := context.Background()
	deps := setupIntake(t, leave.Options{})

	_, err := deps.service.Init(ctx, "asha@example.com")
	require.NoError(t, err)
	_, err = deps.service.Update(ctx, leave.UpdateDraftRequest{Email: "asha@example.com", Days: dayCount(3)})
	require.NoError(t, err)

	_, err = deps.service.Update(ctx, leave.UpdateDraftRequest{Email: "asha@example.com", StartDate: strPtr("2026/01/01"), Days: dayCount(9)})
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateFormat)

	_, err = deps.service.Update(ctx, leave.UpdateDraftRequest{Email: "asha@example.com", Days: dayCount(-2)})
	assert.ErrorIs(t, err, leaveerrors.ErrNegativeDays)

	draft, err := deps.service.GetDraft(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, 3, *draft.Draft.Days)
	assert.Nil(t, draft.Draft.StartDate)
}

func TestLeaveService_SubmitInvalidRangeKeepsDraft(t *testing.T) {
	ctx := context.Background()
	deps := setupIntake(t, leave.Options{})
	deps.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Times(0)

	_, err := deps.service.Init(ctx, "asha@example.com")
	require.NoError(t, err)
	fillDraft(t, deps.service, "asha@example.com", "05-01-2026", "01-01-2026", 2)

	_, err = deps.service.Submit(ctx, "asha@example.com")
	assert.ErrorIs(t, err, leaveerrors.ErrInvalidDateRange)

	_, err = deps.service.GetDraft(ctx, "asha@example.com")
	assert.NoError(t, err)
	assert.Zero(t, deps.countApplications(t))
}

func TestLeaveService_NotificationFailureStillSubmits(t *testing.T) {
	ctx := context.Background()
	deps := setupIntake(t, leave.Options{})
	deps.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).
		Return(notification.Result{Status: notification.StatusFailed, Reason: "smtp down"})

	_, err := deps.service.Init(ctx, "asha@example.com")
	require.NoError(t, err)
	fillDraft(t, deps.service, "asha@example.com", "01-01-2026", "01-01-2026", 1)

	resp, err := deps.service.Submit(ctx, "asha@example.com")

	require.NoError(t, err)
	assert.Equal(t, leave.StatusSubmitted, resp.Status)
	assert.Equal(t, notification.StatusFailed, resp.Notification.Status)
	assert.Equal(t, "smtp down", resp.Notification.Reason)
	assert.Equal(t, int64(1), deps.countApplications(t))
}

func TestLeaveService_ApplyFreeform(t *testing.T) {
	ctx := context.Background()
	deps := setupIntake(t, leave.Options{})
	deps.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(notification.Sent())

	resp, err := deps.service.Apply(ctx, leave.ApplyLeaveRequest{
		Text: "Asha, asha@example.com, 01-01-2026 to 03-01-2026, 3 days, family event",
	})

	require.NoError(t, err)
	assert.Equal(t, leave.StatusSubmitted, resp.Status)
	assert.Equal(t, 19, *resp.LeavesLeft)
	assert.Equal(t, "family event", resp.Application.Description)
	assert.Equal(t, "2026-01-03", resp.Application.EndDate)
}

func TestLeaveService_ApplyStructuredWins(t *testing.T) {
	ctx := context.Background()
	deps := setupIntake(t, leave.Options{})
	deps.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(notification.Skipped("log transport"))

	resp, err := deps.service.Apply(ctx, leave.ApplyLeaveRequest{
		Days:        dayCount(2),
		Description: strPtr("wedding"),
		Text:        "Asha, asha@example.com, 01-01-2026 to 03-01-2026, 3 days, family event",
	})

	require.NoError(t, err)
	assert.Equal(t, leave.StatusSubmitted, resp.Status)
	assert.Equal(t, 2, resp.Application.Days)
	assert.Equal(t, "wedding", resp.Application.Description)
	assert.Equal(t, 20, *resp.LeavesLeft)
	assert.Equal(t, notification.StatusSkipped, resp.Notification.Status)
}

func TestLeaveService_ApplyIncompleteKeepsDraft(t *testing.T) {
	ctx := context.Background()
	deps := setupIntake(t, leave.Options{})
	deps.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(notification.Sent()).Times(1)

	resp, err := deps.service.Apply(ctx, leave.ApplyLeaveRequest{Text: "Ravi ravi@example.com 05-02-2026"})

	require.NoError(t, err)
	assert.Equal(t, leave.StatusDrafting, resp.Status)
	assert.Equal(t, []string{"description"}, resp.MissingFields)

	resp, err = deps.service.Apply(ctx, leave.ApplyLeaveRequest{Email: "ravi@example.com", Description: strPtr("doctor")})
	require.NoError(t, err)
	assert.Equal(t, leave.StatusSubmitted, resp.Status)
}

func TestLeaveService_ApplyWithoutEmail(t *testing.T) {
	deps := setupIntake(t, leave.Options{})

	_, err := deps.service.Apply(context.Background(), leave.ApplyLeaveRequest{Text: "I need 2 days off"})

	assert.ErrorIs(t, err, leaveerrors.ErrEmailRequired)
}

func TestLeaveService_ConcurrentSubmitRecordsOnce(t *testing.T) {
	ctx := context.Background()
	deps := setupIntake(t, leave.Options{})
	deps.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(notification.Sent()).Times(1)

	_, err := deps.service.Init(ctx, "asha@example.com")
	require.NoError(t, err)
	fillDraft(t, deps.service, "asha@example.com", "01-01-2026", "12-01-2026", 12)

	var wg sync.WaitGroup
	results := make([]error, 2)
	statuses := make([]string, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := deps.service.Submit(ctx, "asha@example.com")
			results[i], statuses[i] = err, resp.Status
		}(i)
	}
	wg.Wait()

	submitted, notFound := 0, 0
	for i, err := range results {
		switch {
		case err == nil && statuses[i] == leave.StatusSubmitted:
			submitted++
		case err != nil:
			assert.ErrorIs(t, err, leaveerrors.ErrDraftNotFound)
			notFound++
		}
	}
	assert.Equal(t, 1, submitted)
	assert.Equal(t, 1, notFound)
	assert.Equal(t, int64(1), deps.countApplications(t))
}

func TestLeaveService_BalanceAndApplications(t *testing.T) {
	ctx := context.Background()
	deps := setupIntake(t, leave.Options{})
	deps.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(notification.Sent()).Times(2)

	_, err := deps.service.GetBalance(ctx, "asha@example.com")
	assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)

	for _, days := range []int{3, 4} {
		_, err := deps.service.Init(ctx, "asha@example.com")
		require.NoError(t, err)
		fillDraft(t, deps.service, "asha@example.com", "01-01-2026", "04-01-2026", days)
		_, err = deps.service.Submit(ctx, "asha@example.com")
		require.NoError(t, err)
	}

	bal, err := deps.service.GetBalance(ctx, "ASHA@example.com")
	require.NoError(t, err)
	assert.Equal(t, 7, bal.UsedDays)
	assert.Equal(t, 15, bal.LeavesLeft)

	apps, err := deps.service.GetApplications(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Len(t, apps, 2)

	require.NoError(t, deps.service.DeleteDraft(ctx, "asha@example.com"))
}

func TestLeaveService_GetBalanceIgnoresCallerCancellation(t *testing.T) {
	ctx := context.Background()
	deps := setupIntake(t, leave.Options{})
	deps.notifier.EXPECT().Send(gomock.Any(), gomock.Any()).Return(notification.Sent())

	_, err := deps.service.Init(ctx, "asha@example.com")
	require.NoError(t, err)
	fillDraft(t, deps.service, "asha@example.com", "01-01-2026", "02-01-2026", 2)
	_, err = deps.service.Submit(ctx, "asha@example.com")
	require.NoError(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	bal, err := deps.service.GetBalance(cancelled, "asha@example.com")

	require.NoError(t, err)
	assert.Equal(t, 20, bal.LeavesLeft)
}
