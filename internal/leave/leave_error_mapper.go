package leave

import (
	"errors"

	leaveerrors "go-leave/internal/leave/errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

func mapDraftError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) || errors.Is(err, redis.Nil) {
		return leaveerrors.ErrDraftNotFound
	}
	return mapRepositoryError(err)
}

func mapRepositoryError(err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// check_violation: days >= 0
		if pgErr.Code == "23514" {
			return leaveerrors.ErrNegativeDays
		}
	}

	return err
}
