package leave

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-leave/internal/employee"
	"go-leave/internal/events"
	leaveerrors "go-leave/internal/leave/errors"
	"go-leave/internal/messaging/kafka"
	"go-leave/internal/notification"
	"go-leave/internal/shared/contextutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultNotifyTimeout = 30 * time.Second

// Options carries the policy knobs read from config.
type Options struct {
	BalanceReporting string
	HREmail          string
	NotifyTimeout    time.Duration
}

//go:generate mockgen -source=leave_service.go -destination=mock/leave_service_mock.go -package=mock
type Service interface {
	Init(ctx context.Context, email string) (IntakeResponse, error)
	Update(ctx context.Context, req UpdateDraftRequest) (IntakeResponse, error)
	Submit(ctx context.Context, email string) (IntakeResponse, error)
	Apply(ctx context.Context, req ApplyLeaveRequest) (IntakeResponse, error)
	GetDraft(ctx context.Context, email string) (IntakeResponse, error)
	DeleteDraft(ctx context.Context, email string) error
	GetBalance(ctx context.Context, email string) (BalanceResponse, error)
	GetApplications(ctx context.Context, email string) ([]LeaveApplicationResponse, error)
}

type service struct {
	db        *sql.DB
	repo      Repository
	drafts    DraftRepository
	employees employee.Service
	notifier  notification.Sender
	outbox    kafka.OutboxRepository
	opts      Options
	balances  singleflight.Group
	now       func() time.Time
	logger    *zap.Logger
}

// NewService wires the intake flow. outbox may be nil, in which case no
// domain event is recorded on submit.
func NewService(
	db *sql.DB,
	repo Repository,
	drafts DraftRepository,
	employees employee.Service,
	notifier notification.Sender,
	outbox kafka.OutboxRepository,
	opts Options,
	logger ...*zap.Logger,
) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = defaultNotifyTimeout
	}
	if opts.BalanceReporting == "" {
		opts.BalanceReporting = ReportPostDeduction
	}
	return &service{
		db:        db,
		repo:      repo,
		drafts:    drafts,
		employees: employees,
		notifier:  notifier,
		outbox:    outbox,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    l,
	}
}

func (s *service) log(ctx context.Context) *zap.Logger {
	if rid := contextutil.GetRequestID(ctx); rid != "" {
		return s.logger.With(zap.String("request_id", rid))
	}
	return s.logger
}

func (s *service) Init(ctx context.Context, email string) (IntakeResponse, error) {
	log := s.log(ctx)
	email = employee.NormalizeEmail(email)
	if email == "" {
		return IntakeResponse{}, leaveerrors.ErrEmailRequired
	}
	log.Debug("init draft requested", zap.String("email", email))

	draft, created, err := s.findOrCreateDraft(ctx, s.drafts, email, false)
	if err != nil {
		log.Error("init draft failed", zap.String("email", email), zap.Error(err))
		return IntakeResponse{}, err
	}
	if created {
		log.Info("draft created", zap.String("email", email))
	}
	return draftResponse(draft), nil
}

func (s *service) Update(ctx context.Context, req UpdateDraftRequest) (IntakeResponse, error) {
	log := s.log(ctx)
	email := employee.NormalizeEmail(req.Email)
	if email == "" {
		return IntakeResponse{}, leaveerrors.ErrEmailRequired
	}
	log.Debug("update draft requested", zap.String("email", email))

	fields, err := BuildDraftFields(req.Name, req.StartDate, req.EndDate, req.Days.IntPtr(), req.Description)
	if err != nil {
		log.Warn("update draft validation failed", zap.String("email", email), zap.Error(err))
		return IntakeResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("update draft begin tx failed", zap.Error(err))
		return IntakeResponse{}, err
	}
	defer tx.Rollback()

	drafts := s.drafts.WithTx(tx)
	draft, err := drafts.FindForUpdate(ctx, email)
	if err != nil {
		return IntakeResponse{}, s.draftLookupError(log, "update", email, err)
	}

	draft.Merge(fields)
	draft.UpdatedAt = s.now()
	if err := drafts.Save(ctx, draft); err != nil {
		log.Error("update draft persist failed", zap.String("email", email), zap.Error(err))
		return IntakeResponse{}, mapRepositoryError(err)
	}

	if err := tx.Commit(); err != nil {
		log.Error("update draft commit failed", zap.Error(err))
		return IntakeResponse{}, err
	}

	log.Info("draft updated", zap.String("email", email), zap.String("status", draft.Status()))
	return draftResponse(draft), nil
}

// Submit turns a complete draft into a ledger entry when the balance allows
// it. Everything up to the commit happens in one transaction holding the
// draft row lock; the HR notification runs after the commit and cannot undo it.
func (s *service) Submit(ctx context.Context, email string) (IntakeResponse, error) {
	log := s.log(ctx)
	email = employee.NormalizeEmail(email)
	if email == "" {
		return IntakeResponse{}, leaveerrors.ErrEmailRequired
	}
	log.Debug("submit leave requested", zap.String("email", email))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("submit leave begin tx failed", zap.Error(err))
		return IntakeResponse{}, err
	}
	defer tx.Rollback()

	draft, err := s.drafts.WithTx(tx).FindForUpdate(ctx, email)
	if err != nil {
		return IntakeResponse{}, s.draftLookupError(log, "submit", email, err)
	}

	return s.submitLocked(ctx, log, tx, draft)
}

// Apply creates the draft if needed, merges structured fields over whatever
// the freeform text yielded, and submits when the result is complete.
func (s *service) Apply(ctx context.Context, req ApplyLeaveRequest) (IntakeResponse, error) {
	log := s.log(ctx)

	var extracted Extraction
	if strings.TrimSpace(req.Text) != "" {
		var err error
		if extracted, err = ParseFreeform(req.Text); err != nil {
			log.Warn("apply leave freeform parse failed", zap.Error(err))
			return IntakeResponse{}, err
		}
	}

	structured, err := BuildDraftFields(req.Name, req.StartDate, req.EndDate, req.Days.IntPtr(), req.Description)
	if err != nil {
		log.Warn("apply leave validation failed", zap.Error(err))
		return IntakeResponse{}, err
	}

	email := employee.NormalizeEmail(req.Email)
	if email == "" {
		email = extracted.Email
	}
	if email == "" {
		return IntakeResponse{}, leaveerrors.ErrEmailRequired
	}
	fields := extracted.Fields.Overlay(structured)
	log.Debug("apply leave requested", zap.String("email", email), zap.Bool("freeform", req.Text != ""))

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		log.Error("apply leave begin tx failed", zap.Error(err))
		return IntakeResponse{}, err
	}
	defer tx.Rollback()

	drafts := s.drafts.WithTx(tx)
	draft, _, err := s.findOrCreateDraft(ctx, drafts, email, true)
	if err != nil {
		log.Error("apply leave load draft failed", zap.String("email", email), zap.Error(err))
		return IntakeResponse{}, err
	}

	if !fields.IsEmpty() {
		draft.Merge(fields)
		// reject before saving: the redis store would keep the merge on rollback
		if draft.IsReady() && draft.StartDate.After(*draft.EndDate) {
			log.Warn("apply leave invalid date range", zap.String("email", email))
			return IntakeResponse{}, leaveerrors.ErrInvalidDateRange
		}
		draft.UpdatedAt = s.now()
		if err := drafts.Save(ctx, draft); err != nil {
			log.Error("apply leave persist draft failed", zap.String("email", email), zap.Error(err))
			return IntakeResponse{}, mapRepositoryError(err)
		}
	}

	return s.submitLocked(ctx, log, tx, draft)
}

// submitLocked finishes a submission on a draft already read inside tx and
// owns the commit.
func (s *service) submitLocked(ctx context.Context, log *zap.Logger, tx *sql.Tx, draft *LeaveDraft) (IntakeResponse, error) {
	if missing := draft.MissingFields(); len(missing) > 0 {
		if err := tx.Commit(); err != nil {
			log.Error("submit leave commit failed", zap.Error(err))
			return IntakeResponse{}, err
		}
		log.Info("submit leave incomplete draft",
			zap.String("email", draft.Email),
			zap.Strings("missing_fields", missing),
		)
		return draftResponse(draft), nil
	}

	if draft.StartDate.After(*draft.EndDate) {
		log.Warn("submit leave invalid date range",
			zap.String("email", draft.Email),
			zap.Time("start_date", *draft.StartDate),
			zap.Time("end_date", *draft.EndDate),
		)
		return IntakeResponse{}, leaveerrors.ErrInvalidDateRange
	}

	empl, err := s.employees.WithTx(tx).GetOrCreate(ctx, draft.Email, *draft.Name)
	if err != nil {
		log.Error("submit leave resolve employee failed", zap.String("email", draft.Email), zap.Error(err))
		return IntakeResponse{}, err
	}

	ledger := s.repo.WithTx(tx)
	before, err := LeavesLeft(ctx, ledger, empl)
	if err != nil {
		log.Error("submit leave balance failed", zap.String("employee_id", empl.ID.String()), zap.Error(err))
		return IntakeResponse{}, err
	}

	days := *draft.Days
	if days > before {
		if err := tx.Commit(); err != nil {
			log.Error("submit leave commit failed", zap.Error(err))
			return IntakeResponse{}, err
		}
		log.Warn("submit leave rejected, insufficient balance",
			zap.String("employee_id", empl.ID.String()),
			zap.Int("requested_days", days),
			zap.Int("leaves_left", before),
		)
		resp := draftResponse(draft)
		resp.Status = StatusRejected
		resp.Message = fmt.Sprintf("insufficient leave balance: requested %d day(s), %d left", days, before)
		resp.LeavesLeft = &before
		return resp, nil
	}

	app := &LeaveApplication{
		ID:          uuid.New(),
		EmployeeID:  empl.ID,
		StartDate:   *draft.StartDate,
		EndDate:     *draft.EndDate,
		Days:        days,
		Description: *draft.Description,
		CreatedAt:   s.now(),
	}
	if err := ledger.Create(ctx, app); err != nil {
		log.Error("submit leave persist failed", zap.String("employee_id", empl.ID.String()), zap.Error(err))
		return IntakeResponse{}, mapRepositoryError(err)
	}

	if err := s.drafts.WithTx(tx).Delete(ctx, draft.Email); err != nil {
		log.Error("submit leave clear draft failed", zap.String("email", draft.Email), zap.Error(err))
		return IntakeResponse{}, err
	}

	reported := ReportedBalance(s.opts.BalanceReporting, before, days)

	if s.outbox != nil {
		if err := s.enqueueSubmitted(ctx, tx, empl, *draft.Name, app, before-days); err != nil {
			log.Error("submit leave enqueue event failed", zap.String("application_id", app.ID.String()), zap.Error(err))
			return IntakeResponse{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("submit leave commit failed", zap.Error(err))
		return IntakeResponse{}, err
	}
	log.Info("submit leave success",
		zap.String("application_id", app.ID.String()),
		zap.String("employee_id", empl.ID.String()),
		zap.Int("days", days),
		zap.Int("leaves_left", before-days),
	)

	result := s.notify(ctx, log, *draft.Name, empl.Email, app, reported)

	appResp := mapApplication(*app)
	return IntakeResponse{
		Status:       StatusSubmitted,
		Message:      "leave application submitted",
		LeavesLeft:   &reported,
		Application:  &appResp,
		Notification: &NotificationResponse{Status: result.Status, Reason: result.Reason},
	}, nil
}

func (s *service) enqueueSubmitted(ctx context.Context, tx *sql.Tx, empl *employee.Employee, name string, app *LeaveApplication, leavesLeft int) error {
	payload := events.LeaveApplicationSubmittedEvent{
		EventType:     events.LeaveApplicationSubmittedType,
		ApplicationID: app.ID.String(),
		EmployeeID:    empl.ID.String(),
		Email:         empl.Email,
		Name:          name,
		StartDate:     app.StartDate.Format(LayoutISO),
		EndDate:       app.EndDate.Format(LayoutISO),
		Days:          app.Days,
		Description:   app.Description,
		LeavesLeft:    leavesLeft,
		OccurredAt:    app.CreatedAt,
	}
	evt, err := kafka.NewOutboxEvent(
		events.LeaveApplicationTopic,
		events.LeaveApplicationSubmittedType,
		events.LeaveApplicationAggregate,
		app.ID.String(),
		contextutil.GetRequestID(ctx),
		payload,
	)
	if err != nil {
		return err
	}
	return s.outbox.WithTx(tx).Create(ctx, evt)
}

// notify makes one bounded delivery attempt. It outlives a cancelled request
// context so a client hang-up does not abort the mail mid-send.
func (s *service) notify(ctx context.Context, log *zap.Logger, name, email string, app *LeaveApplication, leavesLeft int) notification.Result {
	if s.notifier == nil {
		return notification.Skipped("no notifier configured")
	}

	nctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.NotifyTimeout)
	defer cancel()

	msg := notification.LeaveMessage(s.opts.HREmail, notification.LeaveDetails{
		Name:        name,
		Email:       email,
		StartDate:   app.StartDate,
		EndDate:     app.EndDate,
		Days:        app.Days,
		Description: app.Description,
		LeavesLeft:  leavesLeft,
	})
	result := s.notifier.Send(nctx, msg)

	fields := []zap.Field{
		zap.String("application_id", app.ID.String()),
		zap.String("status", result.Status),
	}
	if result.Status == notification.StatusFailed {
		log.Warn("hr notification failed", append(fields, zap.String("reason", result.Reason))...)
	} else {
		log.Info("hr notification finished", fields...)
	}
	return result
}

func (s *service) GetDraft(ctx context.Context, email string) (IntakeResponse, error) {
	email = employee.NormalizeEmail(email)
	draft, err := s.drafts.Find(ctx, email)
	if err != nil {
		return IntakeResponse{}, s.draftLookupError(s.log(ctx), "get", email, err)
	}
	return draftResponse(draft), nil
}

func (s *service) DeleteDraft(ctx context.Context, email string) error {
	log := s.log(ctx)
	email = employee.NormalizeEmail(email)
	if err := s.drafts.Delete(ctx, email); err != nil {
		log.Error("delete draft failed", zap.String("email", email), zap.Error(err))
		return err
	}
	log.Info("draft deleted", zap.String("email", email))
	return nil
}

// GetBalance collapses concurrent reads for the same email into one query.
func (s *service) GetBalance(ctx context.Context, email string) (BalanceResponse, error) {
	email = employee.NormalizeEmail(email)
	// the result is shared, so one caller's cancellation must not fail the rest
	sctx := context.WithoutCancel(ctx)
	v, err, shared := s.balances.Do(email, func() (any, error) {
		empl, err := s.employees.Find(sctx, email)
		if err != nil {
			return nil, err
		}
		used, err := s.repo.SumDaysByEmployee(sctx, empl.ID)
		if err != nil {
			return nil, err
		}
		return BalanceResponse{
			EmployeeID:     empl.ID.String(),
			Email:          empl.Email,
			Name:           empl.Name,
			TotalLeaveDays: empl.TotalLeaveDays,
			UsedDays:       used,
			LeavesLeft:     empl.TotalLeaveDays - used,
		}, nil
	})
	if err != nil {
		s.log(ctx).Debug("get balance failed", zap.String("email", email), zap.Error(err))
		return BalanceResponse{}, err
	}
	if shared {
		s.log(ctx).Debug("get balance shared result", zap.String("email", email))
	}
	return v.(BalanceResponse), nil
}

func (s *service) GetApplications(ctx context.Context, email string) ([]LeaveApplicationResponse, error) {
	empl, err := s.employees.Find(ctx, email)
	if err != nil {
		return nil, err
	}
	apps, err := s.repo.FindAllByEmployee(ctx, empl.ID)
	if err != nil {
		s.log(ctx).Error("get applications failed", zap.String("employee_id", empl.ID.String()), zap.Error(err))
		return nil, err
	}
	resp := make([]LeaveApplicationResponse, len(apps))
	for i, a := range apps {
		resp[i] = mapApplication(a)
	}
	return resp, nil
}

// findOrCreateDraft returns the stored draft, creating an empty one if none
// exists. Two first-contact calls end up sharing one row.
func (s *service) findOrCreateDraft(ctx context.Context, drafts DraftRepository, email string, forUpdate bool) (*LeaveDraft, bool, error) {
	find := drafts.Find
	if forUpdate {
		find = drafts.FindForUpdate
	}

	draft, err := find(ctx, email)
	if err == nil {
		return draft, false, nil
	}
	if !errors.Is(mapDraftError(err), leaveerrors.ErrDraftNotFound) {
		return nil, false, err
	}

	now := s.now()
	draft = &LeaveDraft{Email: email, CreatedAt: now, UpdatedAt: now}
	created, err := drafts.CreateIfAbsent(ctx, draft)
	if err != nil {
		return nil, false, mapRepositoryError(err)
	}
	if created {
		return draft, true, nil
	}

	draft, err = find(ctx, email)
	if err != nil {
		return nil, false, mapDraftError(err)
	}
	return draft, false, nil
}

func (s *service) draftLookupError(log *zap.Logger, op, email string, err error) error {
	mapped := mapDraftError(err)
	if errors.Is(mapped, leaveerrors.ErrDraftNotFound) {
		log.Warn(op+" draft not found", zap.String("email", email))
	} else {
		log.Error(op+" draft lookup failed", zap.String("email", email), zap.Error(err))
	}
	return mapped
}

func draftResponse(d *LeaveDraft) IntakeResponse {
	resp := IntakeResponse{
		Status: d.Status(),
		Draft:  mapDraft(d),
	}
	if missing := d.MissingFields(); len(missing) > 0 {
		resp.MissingFields = missing
		resp.Message = "please provide: " + strings.Join(missing, ", ")
	} else {
		resp.Message = "draft is complete and ready to submit"
	}
	return resp
}

func mapDraft(d *LeaveDraft) *DraftResponse {
	return &DraftResponse{
		Email:       d.Email,
		Name:        d.Name,
		StartDate:   formatDatePtr(d.StartDate),
		EndDate:     formatDatePtr(d.EndDate),
		Days:        d.Days,
		Description: d.Description,
		UpdatedAt:   d.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func mapApplication(a LeaveApplication) LeaveApplicationResponse {
	return LeaveApplicationResponse{
		ID:          a.ID.String(),
		EmployeeID:  a.EmployeeID.String(),
		StartDate:   a.StartDate.Format(LayoutISO),
		EndDate:     a.EndDate.Format(LayoutISO),
		Days:        a.Days,
		Description: a.Description,
		CreatedAt:   a.CreatedAt.UTC().Format(time.RFC3339),
	}
}
