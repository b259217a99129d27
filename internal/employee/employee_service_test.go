package employee_test

import (
	"context"
	"errors"
	"testing"

	"go-leave/internal/employee"
	employeeerrors "go-leave/internal/employee/errors"
	employeeMock "go-leave/internal/employee/mock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
	"gorm.io/gorm"
)

type serviceDeps struct {
	service employee.Service
	repo    *employeeMock.MockRepository
}

func setupServiceTest(t *testing.T) *serviceDeps {
	ctrl := gomock.NewController(t)
	repo := employeeMock.NewMockRepository(ctrl)

	return &serviceDeps{
		service: employee.NewService(repo, employee.DefaultTotalLeaveDays),
		repo:    repo,
	}
}

func TestEmployeeService_GetOrCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("existing employee is returned untouched", func(t *testing.T) {
		deps := setupServiceTest(t)
		existing := &employee.Employee{ID: uuid.New(), Email: "asha@example.com", Name: "Asha", TotalLeaveDays: 30}

		deps.repo.EXPECT().FindByEmail(ctx, "asha@example.com").Return(existing, nil)
		deps.repo.EXPECT().CreateIfAbsent(gomock.Any(), gomock.Any()).Times(0)

		got, err := deps.service.GetOrCreate(ctx, "  Asha@Example.com ", "Someone Else")

		assert.NoError(t, err)
		assert.Same(t, existing, got)
		assert.Equal(t, 30, got.TotalLeaveDays)
	})

	t.Run("unseen email is created with default allotment", func(t *testing.T) {
		deps := setupServiceTest(t)

		deps.repo.EXPECT().FindByEmail(ctx, "ravi@example.com").Return(&employee.Employee{}, gorm.ErrRecordNotFound)
		deps.repo.EXPECT().
			CreateIfAbsent(ctx, gomock.Any()).
			DoAndReturn(func(_ context.Context, e *employee.Employee) (bool, error) {
				assert.NotEqual(t, uuid.Nil, e.ID)
				assert.Equal(t, "ravi@example.com", e.Email)
				assert.Equal(t, "Ravi", e.Name)
				assert.Equal(t, 22, e.TotalLeaveDays)
				return true, nil
			})

		got, err := deps.service.GetOrCreate(ctx, "ravi@example.com", " Ravi ")

		assert.NoError(t, err)
		assert.Equal(t, "Ravi", got.Name)
	})

	t.Run("lost insert race re-reads the winner", func(t *testing.T) {
		deps := setupServiceTest(t)
		winner := &employee.Employee{ID: uuid.New(), Email: "mei@example.com", Name: "Mei", TotalLeaveDays: 22}

		gomock.InOrder(
			deps.repo.EXPECT().FindByEmail(ctx, "mei@example.com").Return(&employee.Employee{}, gorm.ErrRecordNotFound),
			deps.repo.EXPECT().CreateIfAbsent(ctx, gomock.Any()).Return(false, nil),
			deps.repo.EXPECT().FindByEmail(ctx, "mei@example.com").Return(winner, nil),
		)

		got, err := deps.service.GetOrCreate(ctx, "mei@example.com", "Mei L")

		assert.NoError(t, err)
		assert.Equal(t, winner.ID, got.ID)
	})

	t.Run("negative lookup failure", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().FindByEmail(ctx, gomock.Any()).Return(nil, errors.New("db down"))

		got, err := deps.service.GetOrCreate(ctx, "x@example.com", "X")

		assert.Error(t, err)
		assert.Nil(t, got)
	})
}

func TestEmployeeService_GetByEmail(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		deps := setupServiceTest(t)
		id := uuid.New()
		deps.repo.EXPECT().FindByEmail(ctx, "asha@example.com").
			Return(&employee.Employee{ID: id, Email: "asha@example.com", Name: "Asha", TotalLeaveDays: 22}, nil)

		resp, err := deps.service.GetByEmail(ctx, "ASHA@example.com")

		assert.NoError(t, err)
		assert.Equal(t, id.String(), resp.ID)
		assert.Equal(t, 22, resp.TotalLeaveDays)
	})

	t.Run("negative not found", func(t *testing.T) {
		deps := setupServiceTest(t)
		deps.repo.EXPECT().FindByEmail(ctx, "nobody@example.com").Return(&employee.Employee{}, gorm.ErrRecordNotFound)

		_, err := deps.service.GetByEmail(ctx, "nobody@example.com")

		assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
	})
}

func TestEmployeeService_Find(t *testing.T) {
	ctx := context.Background()
	deps := setupServiceTest(t)
	deps.repo.EXPECT().FindByEmail(ctx, "ravi@example.com").Return(&employee.Employee{}, gorm.ErrRecordNotFound)
	deps.repo.EXPECT().CreateIfAbsent(gomock.Any(), gomock.Any()).Times(0)

	got, err := deps.service.Find(ctx, " Ravi@example.com")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, employeeerrors.ErrEmployeeNotFound)
}

func TestEmployeeService_WithTx(t *testing.T) {
	deps := setupServiceTest(t)
	txRepo := employeeMock.NewMockRepository(gomock.NewController(t))

	deps.repo.EXPECT().WithTx(gomock.Nil()).Return(txRepo)
	txRepo.EXPECT().FindByEmail(gomock.Any(), "a@example.com").Return(&employee.Employee{Email: "a@example.com"}, nil)

	got, err := deps.service.WithTx(nil).GetOrCreate(context.Background(), "a@example.com", "A")

	assert.NoError(t, err)
	assert.Equal(t, "a@example.com", got.Email)
}
