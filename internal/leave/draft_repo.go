package leave

import (
	"context"
	"database/sql"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// DraftRepository holds at most one draft per email. Find and FindForUpdate
// return gorm.ErrRecordNotFound or redis.Nil when nothing is stored.
//
//go:generate mockgen -source=draft_repo.go -destination=mock/draft_repo_mock.go -package=mock
type DraftRepository interface {
	WithTx(tx *sql.Tx) DraftRepository
	Find(ctx context.Context, email string) (*LeaveDraft, error)
	FindForUpdate(ctx context.Context, email string) (*LeaveDraft, error)
	CreateIfAbsent(ctx context.Context, d *LeaveDraft) (bool, error)
	Save(ctx context.Context, d *LeaveDraft) error
	Delete(ctx context.Context, email string) error
}

type draftRepository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewDraftRepository(db *gorm.DB) DraftRepository {
	return &draftRepository{db: db}
}

func (r *draftRepository) WithTx(tx *sql.Tx) DraftRepository {
	return &draftRepository{db: r.db, tx: tx}
}

func (r *draftRepository) conn(ctx context.Context) *gorm.DB {
	if r.tx == nil {
		return r.db.WithContext(ctx)
	}
	db := r.db.Session(&gorm.Session{NewDB: true, Context: ctx})
	db.Statement.ConnPool = r.tx
	return db
}

func (r *draftRepository) Find(ctx context.Context, email string) (*LeaveDraft, error) {
	var d LeaveDraft
	if err := r.conn(ctx).First(&d, "email = ?", email).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

// FindForUpdate holds the row lock until the surrounding transaction ends,
// which serialises submissions for one email.
func (r *draftRepository) FindForUpdate(ctx context.Context, email string) (*LeaveDraft, error) {
	var d LeaveDraft
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&d, "email = ?", email).Error
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *draftRepository) CreateIfAbsent(ctx context.Context, d *LeaveDraft) (bool, error) {
	res := r.conn(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
		Create(d)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *draftRepository) Save(ctx context.Context, d *LeaveDraft) error {
	return r.conn(ctx).Save(d).Error
}

func (r *draftRepository) Delete(ctx context.Context, email string) error {
	return r.conn(ctx).Delete(&LeaveDraft{}, "email = ?", email).Error
}
