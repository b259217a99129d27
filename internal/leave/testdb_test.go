package leave_test

import (
	"fmt"
	"testing"

	"go-leave/internal/employee"
	"go-leave/internal/leave"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Discard})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&employee.Employee{}, &leave.LeaveApplication{}, &leave.LeaveDraft{}))
	return db
}

func seedEmployee(t *testing.T, db *gorm.DB, email string, total int) *employee.Employee {
	t.Helper()
	e := &employee.Employee{ID: uuid.New(), Email: email, Name: "Seeded", TotalLeaveDays: total}
	require.NoError(t, db.Create(e).Error)
	return e
}
