package employee

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const DefaultTotalLeaveDays = 22

// NormalizeEmail is the directory key: trimmed and lower-cased.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

//go:generate mockgen -source=employee_service.go -destination=mock/employee_service_mock.go -package=mock
type Service interface {
	WithTx(tx *sql.Tx) Service
	GetOrCreate(ctx context.Context, email, name string) (*Employee, error)
	Find(ctx context.Context, email string) (*Employee, error)
	GetByEmail(ctx context.Context, email string) (EmployeeResponse, error)
	GetAll(ctx context.Context) ([]EmployeeResponse, error)
}

type service struct {
	repo             Repository
	defaultLeaveDays int
	logger           *zap.Logger
}

func NewService(repo Repository, defaultLeaveDays int, logger ...*zap.Logger) Service {
	l := zap.L().Named("employee.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("employee.service")
	}
	return &service{repo: repo, defaultLeaveDays: defaultLeaveDays, logger: l}
}

func (s *service) WithTx(tx *sql.Tx) Service {
	return &service{repo: s.repo.WithTx(tx), defaultLeaveDays: s.defaultLeaveDays, logger: s.logger}
}

// GetOrCreate resolves the employee for email, creating it with the default
// allotment on first contact. An existing employee keeps its stored name and
// allotment.
func (s *service) GetOrCreate(ctx context.Context, email, name string) (*Employee, error) {
	email = NormalizeEmail(email)

	empl, err := s.repo.FindByEmail(ctx, email)
	if err == nil {
		return empl, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("find employee by email failed", zap.String("email", email), zap.Error(err))
		return nil, err
	}

	candidate := &Employee{
		ID:             uuid.New(),
		Email:          email,
		Name:           strings.TrimSpace(name),
		TotalLeaveDays: s.defaultLeaveDays,
	}
	created, err := s.repo.CreateIfAbsent(ctx, candidate)
	if err != nil {
		s.logger.Error("create employee failed", zap.String("email", email), zap.Error(err))
		return nil, mapRepositoryError(err)
	}
	if created {
		s.logger.Info("employee created on first contact",
			zap.String("employee_id", candidate.ID.String()),
			zap.String("email", email),
			zap.Int("total_leave_days", candidate.TotalLeaveDays),
		)
		return candidate, nil
	}

	// lost the insert race; the other writer's row wins
	empl, err = s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, mapRepositoryError(err)
	}
	return empl, nil
}

// Find returns the stored employee or ErrEmployeeNotFound. Unlike
// GetOrCreate it never writes.
func (s *service) Find(ctx context.Context, email string) (*Employee, error) {
	empl, err := s.repo.FindByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("find employee failed", zap.Error(err))
		}
		return nil, mapRepositoryError(err)
	}
	return empl, nil
}

func (s *service) GetByEmail(ctx context.Context, email string) (EmployeeResponse, error) {
	email = NormalizeEmail(email)
	s.logger.Debug("get employee by email requested", zap.String("email", email))

	empl, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("get employee by email failed", zap.Error(err))
		}
		return EmployeeResponse{}, mapRepositoryError(err)
	}
	return mapToResponse(*empl), nil
}

func (s *service) GetAll(ctx context.Context) ([]EmployeeResponse, error) {
	employees, err := s.repo.FindAll(ctx)
	if err != nil {
		s.logger.Error("get all employees failed", zap.Error(err))
		return nil, mapRepositoryError(err)
	}
	return mapToListResponse(employees), nil
}

func mapToResponse(e Employee) EmployeeResponse {
	return EmployeeResponse{
		ID:             e.ID.String(),
		Name:           e.Name,
		Email:          e.Email,
		TotalLeaveDays: e.TotalLeaveDays,
		CreatedAt:      e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func mapToListResponse(employees []Employee) []EmployeeResponse {
	resp := make([]EmployeeResponse, len(employees))
	for i, e := range employees {
		resp[i] = mapToResponse(e)
	}
	return resp
}
