package leave

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

//go:generate mockgen -source=leave_repo.go -destination=mock/leave_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *sql.Tx) Repository
	Create(ctx context.Context, a *LeaveApplication) error
	SumDaysByEmployee(ctx context.Context, employeeID uuid.UUID) (int, error)
	FindAllByEmployee(ctx context.Context, employeeID uuid.UUID) ([]LeaveApplication, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	if r.tx == nil {
		return r.db.WithContext(ctx)
	}
	db := r.db.Session(&gorm.Session{NewDB: true, Context: ctx})
	db.Statement.ConnPool = r.tx
	return db
}

func (r *repository) Create(ctx context.Context, a *LeaveApplication) error {
	return r.conn(ctx).Create(a).Error
}

func (r *repository) SumDaysByEmployee(ctx context.Context, employeeID uuid.UUID) (int, error) {
	var total int64
	err := r.conn(ctx).
		Model(&LeaveApplication{}).
		Where("employee_id = ?", employeeID).
		Select("COALESCE(SUM(days), 0)").
		Scan(&total).Error
	return int(total), err
}

func (r *repository) FindAllByEmployee(ctx context.Context, employeeID uuid.UUID) ([]LeaveApplication, error) {
	var apps []LeaveApplication
	err := r.conn(ctx).
		Where("employee_id = ?", employeeID).
		Order("start_date DESC").
		Order("created_at DESC").
		Find(&apps).Error
	return apps, err
}
