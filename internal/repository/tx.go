package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// TxRunner opens a unit of work. Ledger services run every read-modify-write
// through it so that the row lock and the writes share one transaction.
type TxRunner interface {
	RunTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type gormTxRunner struct {
	db          *gorm.DB
	lockTimeout time.Duration
}

// NewTxRunner wraps db.Transaction. A positive lockTimeout bounds how long a
// postgres transaction waits on a row lock; the resulting error is returned
// to the caller untouched (no retry).
func NewTxRunner(db *gorm.DB, lockTimeout time.Duration) TxRunner {
	return &gormTxRunner{db: db, lockTimeout: lockTimeout}
}

func (r *gormTxRunner) RunTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if r.lockTimeout > 0 && tx.Dialector.Name() == "postgres" {
			stmt := fmt.Sprintf("SET LOCAL lock_timeout = '%dms'", r.lockTimeout.Milliseconds())
			if err := tx.Exec(stmt).Error; err != nil {
				return err
			}
		}
		return fn(tx)
	})
}

// dateKey formats a calendar date the way it is bound against DATE columns.
func dateKey(t time.Time) string { return t.Format("2006-01-02") }

func paginate(page, limit, defLimit, maxLimit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > maxLimit {
		limit = defLimit
	}
	return page, limit, (page - 1) * limit
}
